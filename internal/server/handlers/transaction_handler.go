package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/server/middleware"
	"github.com/mamadbah2/agritrade/internal/service/transactions"
)

// TransactionHandler serves purchases and sales.
type TransactionHandler struct {
	svc    *transactions.Service
	dates  DateParser
	logger *zap.Logger
}

// NewTransactionHandler constructs the HTTP handler adapter.
func NewTransactionHandler(svc *transactions.Service, dates DateParser, logger *zap.Logger) *TransactionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{svc: svc, dates: dates, logger: logger}
}

type purchaseRequest struct {
	Crop          string               `json:"crop" binding:"required"`
	Farmer        string               `json:"farmer" binding:"required"`
	Quantity      *float64             `json:"quantity" binding:"required,gte=0"`
	Rate          *float64             `json:"rate" binding:"required,gte=0"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	PaymentDate   *string              `json:"paymentDate"`
	Notes         string               `json:"notes"`
	PurchaseDate  string               `json:"purchaseDate"`
}

type saleRequest struct {
	Crop          string               `json:"crop" binding:"required"`
	BuyerName     string               `json:"buyerName" binding:"required"`
	VehicleNumber string               `json:"vehicleNumber"`
	Quantity      *float64             `json:"quantity" binding:"required,gte=0"`
	Rate          *float64             `json:"rate" binding:"required,gte=0"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	PaymentDate   *string              `json:"paymentDate"`
	Notes         string               `json:"notes"`
	SaleDate      string               `json:"saleDate"`
}

type transactionUpdateRequest struct {
	Quantity      *float64              `json:"quantity"`
	Rate          *float64              `json:"rate"`
	PaymentStatus *models.PaymentStatus `json:"paymentStatus"`
	PaymentDate   *string               `json:"paymentDate"`
	Notes         *string               `json:"notes"`
	PurchaseDate  *string               `json:"purchaseDate"`
	SaleDate      *string               `json:"saleDate"`
	BuyerName     *string               `json:"buyerName"`
	VehicleNumber *string               `json:"vehicleNumber"`
}

func (h *TransactionHandler) filter(c *gin.Context) (models.TransactionFilter, error) {
	cropID, err := optionalID(c.Query("crop"), "crop")
	if err != nil {
		return models.TransactionFilter{}, err
	}
	farmerID, err := optionalID(c.Query("farmer"), "farmer")
	if err != nil {
		return models.TransactionFilter{}, err
	}
	from, to, err := h.dates.queryRange(c)
	if err != nil {
		return models.TransactionFilter{}, err
	}
	return models.TransactionFilter{
		CropID:        cropID,
		FarmerID:      farmerID,
		BuyerName:     c.Query("buyerName"),
		PaymentStatus: models.PaymentStatus(c.Query("paymentStatus")),
		From:          from,
		To:            to,
	}, nil
}

func (h *TransactionHandler) patch(req transactionUpdateRequest, dateField *string) (transactions.Patch, error) {
	paymentDate, err := h.dates.ParsePtr(req.PaymentDate, "paymentDate")
	if err != nil {
		return transactions.Patch{}, err
	}
	date, err := h.dates.ParsePtr(dateField, "date")
	if err != nil {
		return transactions.Patch{}, err
	}
	return transactions.Patch{
		Quantity:      req.Quantity,
		Rate:          req.Rate,
		PaymentStatus: req.PaymentStatus,
		PaymentDate:   paymentDate,
		Notes:         req.Notes,
		Date:          date,
		BuyerName:     req.BuyerName,
		VehicleNumber: req.VehicleNumber,
	}, nil
}

// ListPurchases returns purchases matching the query filters.
func (h *TransactionHandler) ListPurchases(c *gin.Context) {
	filter, err := h.filter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	purchases, err := h.svc.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

// GetPurchase returns one purchase.
func (h *TransactionHandler) GetPurchase(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	purchase, err := h.svc.GetPurchase(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

// CreatePurchase records a purchase and refreshes the crop's stock.
func (h *TransactionHandler) CreatePurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "crop, farmer, quantity and rate are required", err)
		return
	}

	in, err := h.purchaseInput(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	purchase, err := h.svc.CreatePurchase(c.Request.Context(), in, middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func (h *TransactionHandler) purchaseInput(req purchaseRequest) (transactions.PurchaseInput, error) {
	cropID, err := optionalID(req.Crop, "crop")
	if err != nil {
		return transactions.PurchaseInput{}, err
	}
	farmerID, err := optionalID(req.Farmer, "farmer")
	if err != nil {
		return transactions.PurchaseInput{}, err
	}
	paymentDate, err := h.dates.ParsePtr(req.PaymentDate, "paymentDate")
	if err != nil {
		return transactions.PurchaseInput{}, err
	}
	date, err := h.dates.Parse(req.PurchaseDate, "purchaseDate")
	if err != nil {
		return transactions.PurchaseInput{}, err
	}
	return transactions.PurchaseInput{
		CropID:        cropID,
		FarmerID:      farmerID,
		Quantity:      *req.Quantity,
		Rate:          *req.Rate,
		PaymentStatus: req.PaymentStatus,
		PaymentDate:   paymentDate,
		Notes:         req.Notes,
		PurchaseDate:  date,
	}, nil
}

// UpdatePurchase patches a purchase.
func (h *TransactionHandler) UpdatePurchase(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req transactionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}
	patch, err := h.patch(req, req.PurchaseDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	purchase, err := h.svc.UpdatePurchase(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

// DeletePurchase removes a purchase.
func (h *TransactionHandler) DeletePurchase(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePurchase(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "purchase deleted"})
}

// ListSales returns sales matching the query filters.
func (h *TransactionHandler) ListSales(c *gin.Context) {
	filter, err := h.filter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sales, err := h.svc.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// GetSale returns one sale.
func (h *TransactionHandler) GetSale(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// CreateSale records a sale and refreshes the crop's stock.
func (h *TransactionHandler) CreateSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "crop, buyerName, quantity and rate are required", err)
		return
	}

	cropID, err := optionalID(req.Crop, "crop")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	paymentDate, err := h.dates.ParsePtr(req.PaymentDate, "paymentDate")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	date, err := h.dates.Parse(req.SaleDate, "saleDate")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sale, err := h.svc.CreateSale(c.Request.Context(), transactions.SaleInput{
		CropID:        cropID,
		BuyerName:     req.BuyerName,
		VehicleNumber: req.VehicleNumber,
		Quantity:      *req.Quantity,
		Rate:          *req.Rate,
		PaymentStatus: req.PaymentStatus,
		PaymentDate:   paymentDate,
		Notes:         req.Notes,
		SaleDate:      date,
	}, middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// UpdateSale patches a sale.
func (h *TransactionHandler) UpdateSale(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req transactionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}
	patch, err := h.patch(req, req.SaleDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sale, err := h.svc.UpdateSale(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// DeleteSale removes a sale.
func (h *TransactionHandler) DeleteSale(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSale(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sale deleted"})
}
