// Package memory is an in-process implementation of repository.Store used
// for local runs without MongoDB and by the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store keeps every collection in maps guarded by a single RWMutex.
type Store struct {
	mu        sync.RWMutex
	crops     map[primitive.ObjectID]models.Crop
	farmers   map[primitive.ObjectID]models.Farmer
	purchases map[primitive.ObjectID]models.Purchase
	sales     map[primitive.ObjectID]models.Sale
	expenses  map[primitive.ObjectID]models.Expense
	stockLogs map[primitive.ObjectID]models.StockLog
	users     map[primitive.ObjectID]models.User
	now       func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		crops:     make(map[primitive.ObjectID]models.Crop),
		farmers:   make(map[primitive.ObjectID]models.Farmer),
		purchases: make(map[primitive.ObjectID]models.Purchase),
		sales:     make(map[primitive.ObjectID]models.Sale),
		expenses:  make(map[primitive.ObjectID]models.Expense),
		stockLogs: make(map[primitive.ObjectID]models.StockLog),
		users:     make(map[primitive.ObjectID]models.User),
		now:       time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

func notFound(kind string, id primitive.ObjectID) error {
	return fmt.Errorf("%s %s: %w", kind, id.Hex(), models.ErrNotFound)
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

// InsertCrop stores a new crop; duplicate names yield models.ErrConflict.
func (s *Store) InsertCrop(_ context.Context, crop *models.Crop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.crops {
		if existing.CropName == crop.CropName {
			return fmt.Errorf("insert crop: %w", models.ErrConflict)
		}
	}
	now := s.now()
	crop.ID = primitive.NewObjectID()
	crop.CreatedAt, crop.UpdatedAt = now, now
	s.crops[crop.ID] = *crop
	return nil
}

// GetCrop loads a crop by ID.
func (s *Store) GetCrop(_ context.Context, id primitive.ObjectID) (*models.Crop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	crop, ok := s.crops[id]
	if !ok {
		return nil, notFound("crop", id)
	}
	return &crop, nil
}

// FindCropByName loads a crop by its normalized name.
func (s *Store) FindCropByName(_ context.Context, name string) (*models.Crop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, crop := range s.crops {
		if crop.CropName == name {
			return &crop, nil
		}
	}
	return nil, fmt.Errorf("crop %q: %w", name, models.ErrNotFound)
}

// ListCrops returns crops sorted by name.
func (s *Store) ListCrops(_ context.Context, activeOnly bool) ([]models.Crop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Crop, 0, len(s.crops))
	for _, crop := range s.crops {
		if activeOnly && !crop.IsActive {
			continue
		}
		out = append(out, crop)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CropName < out[j].CropName })
	return out, nil
}

// UpdateCrop overwrites a stored crop.
func (s *Store) UpdateCrop(_ context.Context, crop *models.Crop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.crops[crop.ID]; !ok {
		return notFound("crop", crop.ID)
	}
	for id, existing := range s.crops {
		if id != crop.ID && existing.CropName == crop.CropName {
			return fmt.Errorf("update crop %s: %w", crop.ID.Hex(), models.ErrConflict)
		}
	}
	crop.UpdatedAt = s.now()
	s.crops[crop.ID] = *crop
	return nil
}

// CountCrops counts crops.
func (s *Store) CountCrops(_ context.Context, activeOnly bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, crop := range s.crops {
		if !activeOnly || crop.IsActive {
			n++
		}
	}
	return n, nil
}

// InsertFarmer stores a new farmer.
func (s *Store) InsertFarmer(_ context.Context, farmer *models.Farmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	farmer.ID = primitive.NewObjectID()
	farmer.CreatedAt, farmer.UpdatedAt = now, now
	s.farmers[farmer.ID] = *farmer
	return nil
}

// GetFarmer loads a farmer by ID.
func (s *Store) GetFarmer(_ context.Context, id primitive.ObjectID) (*models.Farmer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	farmer, ok := s.farmers[id]
	if !ok {
		return nil, notFound("farmer", id)
	}
	return &farmer, nil
}

// ListFarmers returns farmers sorted by name.
func (s *Store) ListFarmers(_ context.Context, activeOnly bool) ([]models.Farmer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Farmer, 0, len(s.farmers))
	for _, farmer := range s.farmers {
		if activeOnly && !farmer.IsActive {
			continue
		}
		out = append(out, farmer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateFarmer overwrites a stored farmer.
func (s *Store) UpdateFarmer(_ context.Context, farmer *models.Farmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.farmers[farmer.ID]; !ok {
		return notFound("farmer", farmer.ID)
	}
	farmer.UpdatedAt = s.now()
	s.farmers[farmer.ID] = *farmer
	return nil
}

// CountFarmers counts farmers.
func (s *Store) CountFarmers(_ context.Context, activeOnly bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, farmer := range s.farmers {
		if !activeOnly || farmer.IsActive {
			n++
		}
	}
	return n, nil
}

// InsertPurchase stores a new purchase.
func (s *Store) InsertPurchase(_ context.Context, purchase *models.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purchase.ID = primitive.NewObjectID()
	purchase.CreatedAt, purchase.UpdatedAt = now, now
	s.purchases[purchase.ID] = *purchase
	return nil
}

// GetPurchase loads a purchase by ID.
func (s *Store) GetPurchase(_ context.Context, id primitive.ObjectID) (*models.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchase, ok := s.purchases[id]
	if !ok {
		return nil, notFound("purchase", id)
	}
	return &purchase, nil
}

// ListPurchases returns purchases matching filter, newest first.
func (s *Store) ListPurchases(_ context.Context, filter models.TransactionFilter) ([]models.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Purchase, 0)
	for _, p := range s.purchases {
		switch {
		case !filter.CropID.IsZero() && p.CropID != filter.CropID:
			continue
		case !filter.FarmerID.IsZero() && p.FarmerID != filter.FarmerID:
			continue
		case filter.PaymentStatus != "" && p.PaymentStatus != filter.PaymentStatus:
			continue
		case !inWindow(p.PurchaseDate, filter.From, filter.To):
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return out, nil
}

// UpdatePurchase overwrites a stored purchase.
func (s *Store) UpdatePurchase(_ context.Context, purchase *models.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[purchase.ID]; !ok {
		return notFound("purchase", purchase.ID)
	}
	purchase.UpdatedAt = s.now()
	s.purchases[purchase.ID] = *purchase
	return nil
}

// DeletePurchase removes a purchase.
func (s *Store) DeletePurchase(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[id]; !ok {
		return notFound("purchase", id)
	}
	delete(s.purchases, id)
	return nil
}

// InsertSale stores a new sale.
func (s *Store) InsertSale(_ context.Context, sale *models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sale.ID = primitive.NewObjectID()
	sale.CreatedAt, sale.UpdatedAt = now, now
	s.sales[sale.ID] = *sale
	return nil
}

// GetSale loads a sale by ID.
func (s *Store) GetSale(_ context.Context, id primitive.ObjectID) (*models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, notFound("sale", id)
	}
	return &sale, nil
}

// ListSales returns sales matching filter, newest first. Buyer names match
// case-insensitively as substrings.
func (s *Store) ListSales(_ context.Context, filter models.TransactionFilter) ([]models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buyer := strings.ToLower(filter.BuyerName)
	out := make([]models.Sale, 0)
	for _, sale := range s.sales {
		switch {
		case !filter.CropID.IsZero() && sale.CropID != filter.CropID:
			continue
		case buyer != "" && !strings.Contains(strings.ToLower(sale.BuyerName), buyer):
			continue
		case filter.PaymentStatus != "" && sale.PaymentStatus != filter.PaymentStatus:
			continue
		case !inWindow(sale.SaleDate, filter.From, filter.To):
			continue
		}
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return out, nil
}

// UpdateSale overwrites a stored sale.
func (s *Store) UpdateSale(_ context.Context, sale *models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[sale.ID]; !ok {
		return notFound("sale", sale.ID)
	}
	sale.UpdatedAt = s.now()
	s.sales[sale.ID] = *sale
	return nil
}

// DeleteSale removes a sale.
func (s *Store) DeleteSale(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[id]; !ok {
		return notFound("sale", id)
	}
	delete(s.sales, id)
	return nil
}

// InsertExpense stores a new expense.
func (s *Store) InsertExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expense.ID = primitive.NewObjectID()
	expense.CreatedAt, expense.UpdatedAt = now, now
	s.expenses[expense.ID] = *expense
	return nil
}

// GetExpense loads an expense by ID.
func (s *Store) GetExpense(_ context.Context, id primitive.ObjectID) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, ok := s.expenses[id]
	if !ok {
		return nil, notFound("expense", id)
	}
	return &expense, nil
}

// ListExpenses returns expenses matching filter, newest first.
func (s *Store) ListExpenses(_ context.Context, filter models.ExpenseFilter) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Expense, 0)
	for _, e := range s.expenses {
		switch {
		case filter.Category != "" && e.Category != filter.Category:
			continue
		case !filter.CropID.IsZero() && (e.CropID == nil || *e.CropID != filter.CropID):
			continue
		case !inWindow(e.Date, filter.From, filter.To):
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// UpdateExpense overwrites a stored expense.
func (s *Store) UpdateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expense.ID]; !ok {
		return notFound("expense", expense.ID)
	}
	expense.UpdatedAt = s.now()
	s.expenses[expense.ID] = *expense
	return nil
}

// DeleteExpense removes an expense.
func (s *Store) DeleteExpense(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return notFound("expense", id)
	}
	delete(s.expenses, id)
	return nil
}

// InsertUser stores a new user; duplicate usernames yield models.ErrConflict.
func (s *Store) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("insert user: %w", models.ErrConflict)
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = s.now()
	s.users[user.ID] = *user
	return nil
}

// GetUser loads a user by ID.
func (s *Store) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &user, nil
}

// FindUserByUsername loads a user by username.
func (s *Store) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
}
