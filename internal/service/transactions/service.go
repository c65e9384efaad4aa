// Package transactions records purchases and sales and keeps the daily stock
// snapshots in step with them.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/service/stock"
)

// Store is the persistence surface the transaction service needs.
type Store interface {
	GetCrop(ctx context.Context, id primitive.ObjectID) (*models.Crop, error)
	GetFarmer(ctx context.Context, id primitive.ObjectID) (*models.Farmer, error)

	InsertPurchase(ctx context.Context, purchase *models.Purchase) error
	GetPurchase(ctx context.Context, id primitive.ObjectID) (*models.Purchase, error)
	ListPurchases(ctx context.Context, filter models.TransactionFilter) ([]models.Purchase, error)
	UpdatePurchase(ctx context.Context, purchase *models.Purchase) error
	DeletePurchase(ctx context.Context, id primitive.ObjectID) error

	InsertSale(ctx context.Context, sale *models.Sale) error
	GetSale(ctx context.Context, id primitive.ObjectID) (*models.Sale, error)
	ListSales(ctx context.Context, filter models.TransactionFilter) ([]models.Sale, error)
	UpdateSale(ctx context.Context, sale *models.Sale) error
	DeleteSale(ctx context.Context, id primitive.ObjectID) error
}

// StockRecomputer refreshes snapshots after a purchase or sale write.
type StockRecomputer interface {
	RecomputeAfterTransaction(ctx context.Context, event stock.TransactionEvent) (*models.StockLog, error)
}

// ChangeNotifier is told when transaction data changed, e.g. to drop cached
// dashboard figures.
type ChangeNotifier interface {
	InvalidateAll(ctx context.Context) error
}

// PurchaseInput carries the fields accepted when recording a purchase.
type PurchaseInput struct {
	CropID        primitive.ObjectID
	FarmerID      primitive.ObjectID
	Quantity      float64
	Rate          float64
	PaymentStatus models.PaymentStatus
	PaymentDate   *time.Time
	Notes         string
	PurchaseDate  time.Time
}

// SaleInput carries the fields accepted when recording a sale.
type SaleInput struct {
	CropID        primitive.ObjectID
	BuyerName     string
	VehicleNumber string
	Quantity      float64
	Rate          float64
	PaymentStatus models.PaymentStatus
	PaymentDate   *time.Time
	Notes         string
	SaleDate      time.Time
}

// Patch carries optional updates shared by purchases and sales; nil fields
// are left untouched. BuyerName and VehicleNumber only apply to sales.
type Patch struct {
	Quantity      *float64
	Rate          *float64
	PaymentStatus *models.PaymentStatus
	PaymentDate   *time.Time
	Notes         *string
	Date          *time.Time
	BuyerName     *string
	VehicleNumber *string
}

func (p Patch) touchesStock() bool {
	return p.Quantity != nil || p.Rate != nil || p.Date != nil
}

// Service implements purchase and sale recording.
type Service struct {
	store    Store
	ledger   StockRecomputer
	notifier ChangeNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a transaction service. notifier may be nil.
func NewService(store Store, ledger StockRecomputer, notifier ChangeNotifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, ledger: ledger, notifier: notifier, logger: logger, now: time.Now}
}

// ListPurchases returns purchases matching filter with crop and farmer populated.
func (s *Service) ListPurchases(ctx context.Context, filter models.TransactionFilter) ([]models.PurchaseView, error) {
	purchases, err := s.store.ListPurchases(ctx, filter)
	if err != nil {
		return nil, err
	}
	pop := s.newPopulator()
	out := make([]models.PurchaseView, 0, len(purchases))
	for _, p := range purchases {
		view, err := pop.purchase(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// GetPurchase loads one purchase with crop and farmer populated.
func (s *Service) GetPurchase(ctx context.Context, id primitive.ObjectID) (*models.PurchaseView, error) {
	p, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := s.newPopulator().purchase(ctx, *p)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// CreatePurchase records a purchase and refreshes the stock of its day.
func (s *Service) CreatePurchase(ctx context.Context, in PurchaseInput, createdBy primitive.ObjectID) (*models.PurchaseView, error) {
	if _, err := s.store.GetCrop(ctx, in.CropID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetFarmer(ctx, in.FarmerID); err != nil {
		return nil, err
	}

	p := &models.Purchase{
		CropID:        in.CropID,
		FarmerID:      in.FarmerID,
		Quantity:      in.Quantity,
		Rate:          in.Rate,
		PaymentStatus: defaultStatus(in.PaymentStatus),
		PaymentDate:   in.PaymentDate,
		Notes:         strings.TrimSpace(in.Notes),
		PurchaseDate:  s.dateOrNow(in.PurchaseDate),
		CreatedBy:     createdBy,
	}
	p.Recalculate()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.InsertPurchase(ctx, p); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	s.logger.Info("purchase recorded",
		zap.String("id", p.ID.Hex()),
		zap.String("crop", p.CropID.Hex()),
		zap.Float64("quantity", p.Quantity),
		zap.Float64("rate", p.Rate))

	if err := s.recompute(ctx, models.KindPurchase, p.CropID, p.PurchaseDate, p.Quantity, p.Rate); err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, p.ID)
}

// UpdatePurchase applies a partial update. Changing quantity, rate or date
// re-derives the affected days' stock.
func (s *Service) UpdatePurchase(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.PurchaseView, error) {
	p, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	previousDate := p.PurchaseDate

	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Rate != nil {
		p.Rate = *patch.Rate
	}
	if patch.PaymentStatus != nil && *patch.PaymentStatus != "" {
		p.PaymentStatus = *patch.PaymentStatus
	}
	if patch.PaymentDate != nil {
		p.PaymentDate = patch.PaymentDate
	}
	if patch.Notes != nil {
		p.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.Date != nil {
		p.PurchaseDate = *patch.Date
	}
	p.Recalculate()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdatePurchase(ctx, p); err != nil {
		return nil, fmt.Errorf("update purchase: %w", err)
	}

	if patch.touchesStock() {
		if err := s.recompute(ctx, models.KindPurchase, p.CropID, p.PurchaseDate, p.Quantity, p.Rate); err != nil {
			return nil, err
		}
		if !previousDate.Equal(p.PurchaseDate) {
			if err := s.recompute(ctx, models.KindPurchase, p.CropID, previousDate, -p.Quantity, p.Rate); err != nil {
				return nil, err
			}
		}
	}
	return s.GetPurchase(ctx, p.ID)
}

// DeletePurchase removes a purchase and refreshes the stock of its day.
func (s *Service) DeletePurchase(ctx context.Context, id primitive.ObjectID) error {
	p, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePurchase(ctx, id); err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	s.logger.Info("purchase deleted", zap.String("id", id.Hex()))
	return s.recompute(ctx, models.KindPurchase, p.CropID, p.PurchaseDate, -p.Quantity, p.Rate)
}

// ListSales returns sales matching filter with crop populated.
func (s *Service) ListSales(ctx context.Context, filter models.TransactionFilter) ([]models.SaleView, error) {
	sales, err := s.store.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}
	pop := s.newPopulator()
	out := make([]models.SaleView, 0, len(sales))
	for _, sale := range sales {
		view, err := pop.sale(ctx, sale)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// GetSale loads one sale with crop populated.
func (s *Service) GetSale(ctx context.Context, id primitive.ObjectID) (*models.SaleView, error) {
	sale, err := s.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := s.newPopulator().sale(ctx, *sale)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateSale records a sale and refreshes the stock of its day.
func (s *Service) CreateSale(ctx context.Context, in SaleInput, createdBy primitive.ObjectID) (*models.SaleView, error) {
	if _, err := s.store.GetCrop(ctx, in.CropID); err != nil {
		return nil, err
	}

	sale := &models.Sale{
		CropID:        in.CropID,
		BuyerName:     strings.TrimSpace(in.BuyerName),
		VehicleNumber: strings.TrimSpace(in.VehicleNumber),
		Quantity:      in.Quantity,
		Rate:          in.Rate,
		PaymentStatus: defaultStatus(in.PaymentStatus),
		PaymentDate:   in.PaymentDate,
		Notes:         strings.TrimSpace(in.Notes),
		SaleDate:      s.dateOrNow(in.SaleDate),
		CreatedBy:     createdBy,
	}
	sale.Recalculate()
	if err := sale.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.InsertSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	s.logger.Info("sale recorded",
		zap.String("id", sale.ID.Hex()),
		zap.String("crop", sale.CropID.Hex()),
		zap.Float64("quantity", sale.Quantity),
		zap.Float64("rate", sale.Rate))

	if err := s.recompute(ctx, models.KindSale, sale.CropID, sale.SaleDate, sale.Quantity, sale.Rate); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, sale.ID)
}

// UpdateSale applies a partial update. Changing quantity, rate or date
// re-derives the affected days' stock.
func (s *Service) UpdateSale(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.SaleView, error) {
	sale, err := s.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	previousDate := sale.SaleDate

	if patch.BuyerName != nil && strings.TrimSpace(*patch.BuyerName) != "" {
		sale.BuyerName = strings.TrimSpace(*patch.BuyerName)
	}
	if patch.VehicleNumber != nil {
		sale.VehicleNumber = strings.TrimSpace(*patch.VehicleNumber)
	}
	if patch.Quantity != nil {
		sale.Quantity = *patch.Quantity
	}
	if patch.Rate != nil {
		sale.Rate = *patch.Rate
	}
	if patch.PaymentStatus != nil && *patch.PaymentStatus != "" {
		sale.PaymentStatus = *patch.PaymentStatus
	}
	if patch.PaymentDate != nil {
		sale.PaymentDate = patch.PaymentDate
	}
	if patch.Notes != nil {
		sale.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.Date != nil {
		sale.SaleDate = *patch.Date
	}
	sale.Recalculate()
	if err := sale.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("update sale: %w", err)
	}

	if patch.touchesStock() {
		if err := s.recompute(ctx, models.KindSale, sale.CropID, sale.SaleDate, sale.Quantity, sale.Rate); err != nil {
			return nil, err
		}
		if !previousDate.Equal(sale.SaleDate) {
			if err := s.recompute(ctx, models.KindSale, sale.CropID, previousDate, -sale.Quantity, sale.Rate); err != nil {
				return nil, err
			}
		}
	}
	return s.GetSale(ctx, sale.ID)
}

// DeleteSale removes a sale and refreshes the stock of its day.
func (s *Service) DeleteSale(ctx context.Context, id primitive.ObjectID) error {
	sale, err := s.store.GetSale(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSale(ctx, id); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	s.logger.Info("sale deleted", zap.String("id", id.Hex()))
	return s.recompute(ctx, models.KindSale, sale.CropID, sale.SaleDate, -sale.Quantity, sale.Rate)
}

// recompute runs after the transaction write has already been persisted; a
// failure here leaves the snapshot stale and is reported to the caller.
func (s *Service) recompute(ctx context.Context, kind models.TransactionKind, cropID primitive.ObjectID, date time.Time, delta, rate float64) error {
	if s.notifier != nil {
		if err := s.notifier.InvalidateAll(ctx); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}
	if s.ledger == nil {
		return nil
	}

	_, err := s.ledger.RecomputeAfterTransaction(ctx, stock.TransactionEvent{
		CropID:        cropID,
		Kind:          kind,
		Date:          date,
		QuantityDelta: delta,
		Rate:          rate,
	})
	if err != nil {
		s.logger.Error("stock recompute failed after transaction write",
			zap.String("kind", string(kind)),
			zap.String("crop", cropID.Hex()),
			zap.Error(err))
		return fmt.Errorf("recompute stock: %w", err)
	}
	return nil
}

func (s *Service) dateOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

func defaultStatus(status models.PaymentStatus) models.PaymentStatus {
	if status == "" {
		return models.PaymentPending
	}
	return status
}

// populator resolves crop and farmer references once per request.
type populator struct {
	store   Store
	crops   map[primitive.ObjectID]*models.CropRef
	farmers map[primitive.ObjectID]*models.FarmerRef
}

func (s *Service) newPopulator() *populator {
	return &populator{
		store:   s.store,
		crops:   make(map[primitive.ObjectID]*models.CropRef),
		farmers: make(map[primitive.ObjectID]*models.FarmerRef),
	}
}

func (p *populator) crop(ctx context.Context, id primitive.ObjectID) (*models.CropRef, error) {
	if ref, ok := p.crops[id]; ok {
		return ref, nil
	}
	var ref *models.CropRef
	crop, err := p.store.GetCrop(ctx, id)
	switch {
	case err == nil:
		r := crop.Ref()
		ref = &r
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}
	p.crops[id] = ref
	return ref, nil
}

func (p *populator) farmer(ctx context.Context, id primitive.ObjectID) (*models.FarmerRef, error) {
	if ref, ok := p.farmers[id]; ok {
		return ref, nil
	}
	var ref *models.FarmerRef
	farmer, err := p.store.GetFarmer(ctx, id)
	switch {
	case err == nil:
		r := farmer.Ref()
		ref = &r
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}
	p.farmers[id] = ref
	return ref, nil
}

func (p *populator) purchase(ctx context.Context, purchase models.Purchase) (models.PurchaseView, error) {
	crop, err := p.crop(ctx, purchase.CropID)
	if err != nil {
		return models.PurchaseView{}, err
	}
	farmer, err := p.farmer(ctx, purchase.FarmerID)
	if err != nil {
		return models.PurchaseView{}, err
	}
	return models.PurchaseView{Purchase: purchase, Crop: crop, Farmer: farmer}, nil
}

func (p *populator) sale(ctx context.Context, sale models.Sale) (models.SaleView, error) {
	crop, err := p.crop(ctx, sale.CropID)
	if err != nil {
		return models.SaleView{}, err
	}
	return models.SaleView{Sale: sale, Crop: crop}, nil
}
