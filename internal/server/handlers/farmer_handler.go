package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/service/catalog"
)

// FarmerHandler serves farmer records.
type FarmerHandler struct {
	svc    *catalog.Service
	logger *zap.Logger
}

// NewFarmerHandler constructs the HTTP handler adapter.
func NewFarmerHandler(svc *catalog.Service, logger *zap.Logger) *FarmerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmerHandler{svc: svc, logger: logger}
}

type farmerRequest struct {
	Name             string `json:"name" binding:"required"`
	Village          string `json:"village" binding:"required"`
	Contact          string `json:"contact" binding:"required"`
	AlternateContact string `json:"alternateContact"`
	Address          string `json:"address"`
	Notes            string `json:"notes"`
}

type farmerUpdateRequest struct {
	Name             *string `json:"name"`
	Village          *string `json:"village"`
	Contact          *string `json:"contact"`
	AlternateContact *string `json:"alternateContact"`
	Address          *string `json:"address"`
	Notes            *string `json:"notes"`
}

// List returns active farmers.
func (h *FarmerHandler) List(c *gin.Context) {
	farmers, err := h.svc.ListFarmers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, farmers)
}

// Get returns a farmer with their purchase history.
func (h *FarmerHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.GetFarmer(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Create adds a farmer.
func (h *FarmerHandler) Create(c *gin.Context) {
	var req farmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "name, village and contact are required", err)
		return
	}

	farmer, err := h.svc.CreateFarmer(c.Request.Context(), models.Farmer{
		Name:             req.Name,
		Village:          req.Village,
		Contact:          req.Contact,
		AlternateContact: req.AlternateContact,
		Address:          req.Address,
		Notes:            req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, farmer)
}

// Update patches a farmer.
func (h *FarmerHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req farmerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}

	farmer, err := h.svc.UpdateFarmer(c.Request.Context(), id, catalog.FarmerPatch(req))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, farmer)
}

// Delete deactivates a farmer.
func (h *FarmerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteFarmer(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "farmer deactivated"})
}
