package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/glycoview/glycoview/internal/analytics"
	"github.com/glycoview/glycoview/internal/platform/metrics"
)

// FilterAll is the wire value meaning "no constraint". It exists only at
// this boundary; the core filter types carry no sentinel.
const FilterAll = "all"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/pages", h.ListPages)
	api.GET("/pages/:page", h.GetPage)
}

// ListPages returns the page identifiers in navigation order.
func (h *Handler) ListPages(c echo.Context) error {
	return c.JSON(http.StatusOK, Pages)
}

// GetPage builds one page payload from the query-string filters.
func (h *Handler) GetPage(c echo.Context) error {
	page := PageID(c.Param("page"))

	f, err := parseFilters(c)
	if err != nil {
		metrics.PageRequests.WithLabelValues(string(page), "invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	payload, err := h.svc.BuildPage(page, f)
	if err != nil {
		var verr *analytics.ValidationError
		var ierr *analytics.InsufficientDataError
		switch {
		case errors.As(err, &verr):
			metrics.PageRequests.WithLabelValues(string(page), "invalid").Inc()
			return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
		case errors.As(err, &ierr):
			metrics.PageRequests.WithLabelValues(string(page), "insufficient_data").Inc()
			return echo.NewHTTPError(http.StatusUnprocessableEntity, ierr.Error())
		default:
			metrics.PageRequests.WithLabelValues(string(page), "error").Inc()
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	metrics.PageRequests.WithLabelValues(string(page), "ok").Inc()
	return c.JSON(http.StatusOK, payload)
}

// parseFilters maps query parameters onto the core filter types. Absent
// parameters and the literal "all" mean unconstrained.
func parseFilters(c echo.Context) (analytics.Filters, error) {
	var f analytics.Filters

	minRaw, maxRaw := c.QueryParam("age_min"), c.QueryParam("age_max")
	switch {
	case minRaw == "" && maxRaw == "":
	case minRaw != "" && maxRaw != "":
		min, err := strconv.Atoi(minRaw)
		if err != nil {
			return f, &analytics.ValidationError{Field: "age_min", Value: minRaw, Reason: "not an integer"}
		}
		max, err := strconv.Atoi(maxRaw)
		if err != nil {
			return f, &analytics.ValidationError{Field: "age_max", Value: maxRaw, Reason: "not an integer"}
		}
		f.AgeRange = analytics.AgeBetween(min, max)
	default:
		return f, &analytics.ValidationError{
			Field:  "age_range",
			Value:  minRaw + ".." + maxRaw,
			Reason: "age_min and age_max must be given together",
		}
	}

	f.Status = categoryParam(c, "status")
	f.BMICategory = categoryParam(c, "bmi_category")
	f.AgeGroup = categoryParam(c, "age_group")

	periodRaw := c.QueryParam("period")
	if periodRaw == "" {
		periodRaw = "M"
	}
	period, err := analytics.ParsePeriod(periodRaw)
	if err != nil {
		return f, err
	}
	f.Period = period

	return f, nil
}

func categoryParam(c echo.Context, name string) analytics.CategoryFilter {
	v := c.QueryParam(name)
	if v == "" || v == FilterAll {
		return analytics.AnyCategory()
	}
	return analytics.OneCategory(v)
}
