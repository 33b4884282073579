package anomaly

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
	g := api.Group("/anomalies")
	g.GET("/counts", h.GetCounts)
	g.GET("/scores", h.GetScoreHistograms)
}

// GetCounts returns the per-detector anomaly counts over the whole
// cohort.
func (h *Handler) GetCounts(c echo.Context) error {
	counts, err := h.svc.Counts(func(int) bool { return true })
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, counts)
}

// GetScoreHistograms returns the binned detector score distributions.
func (h *Handler) GetScoreHistograms(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ScoreHistograms())
}
