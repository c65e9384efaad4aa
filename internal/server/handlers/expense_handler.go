package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/server/middleware"
	"github.com/mamadbah2/agritrade/internal/service/expenses"
)

// ExpenseHandler serves operating expenses.
type ExpenseHandler struct {
	svc    *expenses.Service
	dates  DateParser
	logger *zap.Logger
}

// NewExpenseHandler constructs the HTTP handler adapter.
func NewExpenseHandler(svc *expenses.Service, dates DateParser, logger *zap.Logger) *ExpenseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseHandler{svc: svc, dates: dates, logger: logger}
}

type expenseRequest struct {
	Date        string                 `json:"date"`
	Category    models.ExpenseCategory `json:"category"`
	Description string                 `json:"description" binding:"required"`
	Amount      *float64               `json:"amount" binding:"required,gte=0"`
	Crop        string                 `json:"crop"`
	Notes       string                 `json:"notes"`
}

// expenseUpdateRequest treats "crop": "" as detaching the crop.
type expenseUpdateRequest struct {
	Date        *string                 `json:"date"`
	Category    *models.ExpenseCategory `json:"category"`
	Description *string                 `json:"description"`
	Amount      *float64                `json:"amount"`
	Crop        *string                 `json:"crop"`
	Notes       *string                 `json:"notes"`
}

// List returns expenses matching the query filters.
func (h *ExpenseHandler) List(c *gin.Context) {
	cropID, err := optionalID(c.Query("crop"), "crop")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	from, to, err := h.dates.queryRange(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	list, err := h.svc.List(c.Request.Context(), models.ExpenseFilter{
		Category: models.ExpenseCategory(c.Query("category")),
		CropID:   cropID,
		From:     from,
		To:       to,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one expense.
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	expense, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

// Create records an expense. Category defaults to Other.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "description and a non-negative amount are required", err)
		return
	}

	date, err := h.dates.Parse(req.Date, "date")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	expense := models.Expense{
		Date:        date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      *req.Amount,
		Notes:       req.Notes,
	}
	if expense.Category == "" {
		expense.Category = models.ExpenseOther
	}
	if req.Crop != "" {
		cropID, err := optionalID(req.Crop, "crop")
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		expense.CropID = &cropID
	}

	created, err := h.svc.Create(c.Request.Context(), expense, middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update patches an expense.
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req expenseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}

	date, err := h.dates.ParsePtr(req.Date, "date")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	patch := expenses.Patch{
		Date:        date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Notes:       req.Notes,
	}
	if req.Crop != nil {
		if *req.Crop == "" {
			patch.ClearCrop = true
		} else {
			var cropID primitive.ObjectID
			if cropID, err = optionalID(*req.Crop, "crop"); err != nil {
				respondError(c, h.logger, err)
				return
			}
			patch.CropID = &cropID
		}
	}

	expense, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

// Delete removes an expense.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "expense deleted"})
}
