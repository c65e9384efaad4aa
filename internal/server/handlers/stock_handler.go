package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/service/stock"
)

// StockHandler serves current and historical stock positions.
type StockHandler struct {
	ledger *stock.Ledger
	dates  DateParser
	logger *zap.Logger
	now    func() time.Time
}

// NewStockHandler constructs the HTTP handler adapter.
func NewStockHandler(ledger *stock.Ledger, dates DateParser, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{ledger: ledger, dates: dates, logger: logger, now: time.Now}
}

func (h *StockHandler) day(c *gin.Context) (time.Time, error) {
	date, err := h.dates.Parse(c.Query("date"), "date")
	if err != nil || !date.IsZero() {
		return date, err
	}
	return h.now(), nil
}

// All computes the stock of every active crop on ?date= (default today).
func (h *StockHandler) All(c *gin.Context) {
	date, err := h.day(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	statuses, err := h.ledger.AllStatus(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// Crop computes one crop's stock on ?date= (default today).
func (h *StockHandler) Crop(c *gin.Context) {
	cropID, ok := pathID(c, "cropId")
	if !ok {
		return
	}
	date, err := h.day(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status, err := h.ledger.CropStatus(c.Request.Context(), cropID, date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// History lists stored snapshots of a crop, newest first.
func (h *StockHandler) History(c *gin.Context) {
	cropID, ok := pathID(c, "cropId")
	if !ok {
		return
	}
	from, to, err := h.dates.queryRange(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	history, err := h.ledger.History(c.Request.Context(), cropID, from, to, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
