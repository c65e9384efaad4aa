package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/service/catalog"
)

// CropHandler serves the crop catalog.
type CropHandler struct {
	svc    *catalog.Service
	logger *zap.Logger
}

// NewCropHandler constructs the HTTP handler adapter.
func NewCropHandler(svc *catalog.Service, logger *zap.Logger) *CropHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CropHandler{svc: svc, logger: logger}
}

type cropRequest struct {
	CropName    string      `json:"cropName" binding:"required"`
	Unit        models.Unit `json:"unit"`
	Description string      `json:"description"`
	MarketRate  float64     `json:"marketRate" binding:"gte=0"`
}

type cropUpdateRequest struct {
	CropName    *string      `json:"cropName"`
	Unit        *models.Unit `json:"unit"`
	Description *string      `json:"description"`
	MarketRate  *float64     `json:"marketRate"`
}

// List returns active crops.
func (h *CropHandler) List(c *gin.Context) {
	crops, err := h.svc.ListCrops(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, crops)
}

// Get returns one crop.
func (h *CropHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	crop, err := h.svc.GetCrop(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, crop)
}

// Create adds a crop.
func (h *CropHandler) Create(c *gin.Context) {
	var req cropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "cropName is required and marketRate cannot be negative", err)
		return
	}

	crop, err := h.svc.CreateCrop(c.Request.Context(), catalog.CropInput{
		CropName:    req.CropName,
		Unit:        req.Unit,
		Description: req.Description,
		MarketRate:  req.MarketRate,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, crop)
}

// Update patches a crop.
func (h *CropHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req cropUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}

	crop, err := h.svc.UpdateCrop(c.Request.Context(), id, catalog.CropPatch(req))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, crop)
}

// Delete deactivates a crop.
func (h *CropHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCrop(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "crop deactivated"})
}
