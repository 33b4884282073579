package modeleval

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/models")
	g.GET("/evaluations", h.ListEvaluations)
	g.GET("/best", h.BestModel)
	g.GET("/metrics/:metric", h.MetricSeries)
}

// ListEvaluations returns every row of the evaluation table.
func (h *Handler) ListEvaluations(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Evaluations())
}

// BestModel returns the model with the highest Test-split F1.
func (h *Handler) BestModel(c echo.Context) error {
	best, ok := h.svc.BestByTestF1()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no Test-split evaluations loaded")
	}
	return c.JSON(http.StatusOK, best)
}

// MetricSeries returns one metric across models on the Test split.
func (h *Handler) MetricSeries(c echo.Context) error {
	series, err := h.svc.TestMetricSeries(c.Param("metric"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, series)
}
