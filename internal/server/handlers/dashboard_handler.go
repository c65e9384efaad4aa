package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/service/reporting"
)

// DashboardHandler serves aggregated analytics.
type DashboardHandler struct {
	svc    *reporting.Service
	dates  DateParser
	logger *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter.
func NewDashboardHandler(svc *reporting.Service, dates DateParser, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{svc: svc, dates: dates, logger: logger}
}

func (h *DashboardHandler) window(c *gin.Context) (models.DateRange, error) {
	start, end, err := h.dates.queryRange(c)
	if err != nil {
		return models.DateRange{}, err
	}
	return h.svc.ResolveRange(start, end), nil
}

// Stats returns overview totals and per-crop statistics.
func (h *DashboardHandler) Stats(c *gin.Context) {
	rng, err := h.window(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), rng)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Charts returns daily or per-crop chart series.
func (h *DashboardHandler) Charts(c *gin.Context) {
	rng, err := h.window(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	chart := models.ChartType(c.DefaultQuery("chartType", string(models.ChartDaily)))
	data, err := h.svc.Charts(c.Request.Context(), chart, rng)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
