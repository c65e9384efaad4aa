// Package expenses records operating costs.
package expenses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// Store is the persistence surface the expense service needs.
type Store interface {
	GetCrop(ctx context.Context, id primitive.ObjectID) (*models.Crop, error)
	InsertExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id primitive.ObjectID) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id primitive.ObjectID) error
}

// ChangeNotifier is told when expense data changed.
type ChangeNotifier interface {
	InvalidateAll(ctx context.Context) error
}

// Patch carries optional expense updates; nil fields are left untouched.
// ClearCrop detaches the expense from its crop.
type Patch struct {
	Date        *time.Time
	Category    *models.ExpenseCategory
	Description *string
	Amount      *float64
	CropID      *primitive.ObjectID
	ClearCrop   bool
	Notes       *string
}

// Service implements expense management.
type Service struct {
	store    Store
	notifier ChangeNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires an expense service. notifier may be nil.
func NewService(store Store, notifier ChangeNotifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger, now: time.Now}
}

// List returns expenses matching filter, newest first.
func (s *Service) List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error) {
	return s.store.ListExpenses(ctx, filter)
}

// Get loads one expense.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// Create validates and stores an expense. A referenced crop must exist.
func (s *Service) Create(ctx context.Context, expense models.Expense, createdBy primitive.ObjectID) (*models.Expense, error) {
	expense.ID = primitive.NilObjectID
	expense.CreatedBy = createdBy
	expense.Description = strings.TrimSpace(expense.Description)
	expense.Notes = strings.TrimSpace(expense.Notes)
	if expense.Date.IsZero() {
		expense.Date = s.now()
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCrop(ctx, expense.CropID); err != nil {
		return nil, err
	}

	if err := s.store.InsertExpense(ctx, &expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	s.logger.Info("expense recorded",
		zap.String("id", expense.ID.Hex()),
		zap.String("category", string(expense.Category)),
		zap.Float64("amount", expense.Amount))
	s.changed(ctx)
	return &expense, nil
}

// Update applies a partial update to an expense.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Date != nil {
		expense.Date = *patch.Date
	}
	if patch.Category != nil {
		expense.Category = *patch.Category
	}
	if patch.Description != nil {
		expense.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Amount != nil {
		expense.Amount = *patch.Amount
	}
	if patch.Notes != nil {
		expense.Notes = strings.TrimSpace(*patch.Notes)
	}
	switch {
	case patch.ClearCrop:
		expense.CropID = nil
	case patch.CropID != nil:
		cropID := *patch.CropID
		expense.CropID = &cropID
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCrop(ctx, expense.CropID); err != nil {
		return nil, err
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}
	s.changed(ctx)
	return expense, nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logger.Info("expense deleted", zap.String("id", id.Hex()))
	s.changed(ctx)
	return nil
}

func (s *Service) checkCrop(ctx context.Context, cropID *primitive.ObjectID) error {
	if cropID == nil || cropID.IsZero() {
		return nil
	}
	if _, err := s.store.GetCrop(ctx, *cropID); err != nil {
		return fmt.Errorf("expense crop: %w", err)
	}
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
