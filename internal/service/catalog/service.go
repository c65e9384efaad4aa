// Package catalog manages the crop and farmer master data.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// Store is the persistence surface the catalog needs.
type Store interface {
	InsertCrop(ctx context.Context, crop *models.Crop) error
	GetCrop(ctx context.Context, id primitive.ObjectID) (*models.Crop, error)
	FindCropByName(ctx context.Context, name string) (*models.Crop, error)
	ListCrops(ctx context.Context, activeOnly bool) ([]models.Crop, error)
	UpdateCrop(ctx context.Context, crop *models.Crop) error

	InsertFarmer(ctx context.Context, farmer *models.Farmer) error
	GetFarmer(ctx context.Context, id primitive.ObjectID) (*models.Farmer, error)
	ListFarmers(ctx context.Context, activeOnly bool) ([]models.Farmer, error)
	UpdateFarmer(ctx context.Context, farmer *models.Farmer) error

	ListPurchases(ctx context.Context, filter models.TransactionFilter) ([]models.Purchase, error)
}

// ChangeNotifier is told when master data changed, e.g. to drop cached
// dashboard counts.
type ChangeNotifier interface {
	InvalidateAll(ctx context.Context) error
}

// CropInput carries the fields accepted when creating a crop.
type CropInput struct {
	CropName    string
	Unit        models.Unit
	Description string
	MarketRate  float64
}

// CropPatch carries optional crop updates; nil fields are left untouched.
type CropPatch struct {
	CropName    *string
	Unit        *models.Unit
	Description *string
	MarketRate  *float64
}

// FarmerPatch carries optional farmer updates; nil fields are left untouched.
type FarmerPatch struct {
	Name             *string
	Village          *string
	Contact          *string
	AlternateContact *string
	Address          *string
	Notes            *string
}

// FarmerDetail is a farmer with its purchase history, newest first.
type FarmerDetail struct {
	Farmer    models.Farmer         `json:"farmer"`
	Purchases []models.PurchaseView `json:"purchases"`
}

// Service implements crop and farmer management.
type Service struct {
	store    Store
	notifier ChangeNotifier
	logger   *zap.Logger
}

// NewService wires a catalog service. notifier may be nil.
func NewService(store Store, notifier ChangeNotifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

// ListCrops returns active crops sorted by name.
func (s *Service) ListCrops(ctx context.Context) ([]models.Crop, error) {
	return s.store.ListCrops(ctx, true)
}

// GetCrop loads a crop.
func (s *Service) GetCrop(ctx context.Context, id primitive.ObjectID) (*models.Crop, error) {
	return s.store.GetCrop(ctx, id)
}

// CreateCrop normalizes and stores a new crop. A crop whose name is already
// taken yields models.ErrConflict.
func (s *Service) CreateCrop(ctx context.Context, in CropInput) (*models.Crop, error) {
	crop := &models.Crop{
		CropName:    models.NormalizeCropName(in.CropName),
		Unit:        in.Unit,
		Description: strings.TrimSpace(in.Description),
		MarketRate:  in.MarketRate,
		IsActive:    true,
	}
	if crop.Unit == "" {
		crop.Unit = models.UnitKg
	}
	if err := crop.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, crop.CropName, primitive.NilObjectID); err != nil {
		return nil, err
	}

	if err := s.store.InsertCrop(ctx, crop); err != nil {
		return nil, fmt.Errorf("create crop: %w", err)
	}
	s.logger.Info("crop created", zap.String("crop", crop.CropName), zap.String("id", crop.ID.Hex()))
	s.changed(ctx)
	return crop, nil
}

// UpdateCrop applies a partial update to a crop.
func (s *Service) UpdateCrop(ctx context.Context, id primitive.ObjectID, patch CropPatch) (*models.Crop, error) {
	crop, err := s.store.GetCrop(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.CropName != nil {
		name := models.NormalizeCropName(*patch.CropName)
		if name != crop.CropName {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return nil, err
			}
		}
		crop.CropName = name
	}
	if patch.Unit != nil {
		crop.Unit = *patch.Unit
	}
	if patch.Description != nil {
		crop.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.MarketRate != nil {
		crop.MarketRate = *patch.MarketRate
	}
	if err := crop.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateCrop(ctx, crop); err != nil {
		return nil, fmt.Errorf("update crop: %w", err)
	}
	s.changed(ctx)
	return crop, nil
}

// DeleteCrop deactivates a crop; its history is kept.
func (s *Service) DeleteCrop(ctx context.Context, id primitive.ObjectID) error {
	crop, err := s.store.GetCrop(ctx, id)
	if err != nil {
		return err
	}
	crop.IsActive = false
	if err := s.store.UpdateCrop(ctx, crop); err != nil {
		return fmt.Errorf("deactivate crop: %w", err)
	}
	s.logger.Info("crop deactivated", zap.String("crop", crop.CropName))
	s.changed(ctx)
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string, self primitive.ObjectID) error {
	existing, err := s.store.FindCropByName(ctx, name)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check crop name: %w", err)
	case existing.ID != self:
		return fmt.Errorf("crop %s already exists: %w", name, models.ErrConflict)
	}
	return nil
}

// ListFarmers returns active farmers sorted by name.
func (s *Service) ListFarmers(ctx context.Context) ([]models.Farmer, error) {
	return s.store.ListFarmers(ctx, true)
}

// GetFarmer loads a farmer together with the purchases made from them.
func (s *Service) GetFarmer(ctx context.Context, id primitive.ObjectID) (*FarmerDetail, error) {
	farmer, err := s.store.GetFarmer(ctx, id)
	if err != nil {
		return nil, err
	}
	purchases, err := s.store.ListPurchases(ctx, models.TransactionFilter{FarmerID: id})
	if err != nil {
		return nil, fmt.Errorf("load farmer purchases: %w", err)
	}

	crops := make(map[primitive.ObjectID]*models.CropRef)
	views := make([]models.PurchaseView, 0, len(purchases))
	for _, p := range purchases {
		ref, ok := crops[p.CropID]
		if !ok {
			if crop, err := s.store.GetCrop(ctx, p.CropID); err == nil {
				r := crop.Ref()
				ref = &r
			} else if !errors.Is(err, models.ErrNotFound) {
				return nil, err
			}
			crops[p.CropID] = ref
		}
		views = append(views, models.PurchaseView{Purchase: p, Crop: ref})
	}
	return &FarmerDetail{Farmer: *farmer, Purchases: views}, nil
}

// CreateFarmer validates and stores a new farmer.
func (s *Service) CreateFarmer(ctx context.Context, farmer models.Farmer) (*models.Farmer, error) {
	farmer.ID = primitive.NilObjectID
	farmer.IsActive = true
	trimFarmer(&farmer)
	if err := farmer.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.InsertFarmer(ctx, &farmer); err != nil {
		return nil, fmt.Errorf("create farmer: %w", err)
	}
	s.logger.Info("farmer created", zap.String("id", farmer.ID.Hex()), zap.String("village", farmer.Village))
	s.changed(ctx)
	return &farmer, nil
}

// UpdateFarmer applies a partial update to a farmer. Empty name, village or
// contact values are ignored rather than clearing the field.
func (s *Service) UpdateFarmer(ctx context.Context, id primitive.ObjectID, patch FarmerPatch) (*models.Farmer, error) {
	farmer, err := s.store.GetFarmer(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != "" {
		farmer.Name = *patch.Name
	}
	if patch.Village != nil && *patch.Village != "" {
		farmer.Village = *patch.Village
	}
	if patch.Contact != nil && *patch.Contact != "" {
		farmer.Contact = *patch.Contact
	}
	if patch.AlternateContact != nil {
		farmer.AlternateContact = *patch.AlternateContact
	}
	if patch.Address != nil {
		farmer.Address = *patch.Address
	}
	if patch.Notes != nil {
		farmer.Notes = *patch.Notes
	}
	trimFarmer(farmer)
	if err := farmer.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateFarmer(ctx, farmer); err != nil {
		return nil, fmt.Errorf("update farmer: %w", err)
	}
	return farmer, nil
}

// DeleteFarmer deactivates a farmer.
func (s *Service) DeleteFarmer(ctx context.Context, id primitive.ObjectID) error {
	farmer, err := s.store.GetFarmer(ctx, id)
	if err != nil {
		return err
	}
	farmer.IsActive = false
	if err := s.store.UpdateFarmer(ctx, farmer); err != nil {
		return fmt.Errorf("deactivate farmer: %w", err)
	}
	s.changed(ctx)
	return nil
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.InvalidateAll(ctx); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func trimFarmer(f *models.Farmer) {
	f.Name = strings.TrimSpace(f.Name)
	f.Village = strings.TrimSpace(f.Village)
	f.Contact = strings.TrimSpace(f.Contact)
	f.AlternateContact = strings.TrimSpace(f.AlternateContact)
	f.Address = strings.TrimSpace(f.Address)
	f.Notes = strings.TrimSpace(f.Notes)
}
