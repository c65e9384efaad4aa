package memory

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// entry is the subset of a purchase or sale the aggregations need.
type entry struct {
	cropID   primitive.ObjectID
	date     time.Time
	quantity float64
	rate     float64
	amount   float64
}

func (s *Store) purchaseEntries(window models.DateRange) []entry {
	out := make([]entry, 0)
	for _, p := range s.purchases {
		if inWindow(p.PurchaseDate, window.Start, window.End) {
			out = append(out, entry{p.CropID, p.PurchaseDate, p.Quantity, p.Rate, p.TotalCost})
		}
	}
	return out
}

func (s *Store) saleEntries(window models.DateRange) []entry {
	out := make([]entry, 0)
	for _, sale := range s.sales {
		if inWindow(sale.SaleDate, window.Start, window.End) {
			out = append(out, entry{sale.CropID, sale.SaleDate, sale.Quantity, sale.Rate, sale.TotalAmount})
		}
	}
	return out
}

// accumulator mirrors a $group stage with $sum quantity/amount and $avg rate.
type accumulator struct {
	totals  models.TransactionTotals
	rateSum float64
}

func (a *accumulator) add(e entry) {
	a.totals.Quantity += e.quantity
	a.totals.Amount += e.amount
	a.totals.Count++
	a.rateSum += e.rate
}

func (a *accumulator) result() models.TransactionTotals {
	out := a.totals
	if out.Count > 0 {
		out.AvgRate = a.rateSum / float64(out.Count)
	}
	return out
}

func total(entries []entry) models.TransactionTotals {
	var acc accumulator
	for _, e := range entries {
		acc.add(e)
	}
	return acc.result()
}

// SumPurchases totals purchases in the window.
func (s *Store) SumPurchases(_ context.Context, window models.DateRange) (models.TransactionTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return total(s.purchaseEntries(window)), nil
}

// SumSales totals sales in the window.
func (s *Store) SumSales(_ context.Context, window models.DateRange) (models.TransactionTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return total(s.saleEntries(window)), nil
}

// SumExpenses totals expense amounts in the window.
func (s *Store) SumExpenses(_ context.Context, window models.DateRange) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum float64
	for _, e := range s.expenses {
		if inWindow(e.Date, window.Start, window.End) {
			sum += e.Amount
		}
	}
	return sum, nil
}

// PurchasesByCrop groups purchases in the window by crop, largest quantity first.
func (s *Store) PurchasesByCrop(_ context.Context, window models.DateRange) ([]models.CropTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byCrop(s.purchaseEntries(window)), nil
}

// SalesByCrop groups sales in the window by crop, largest quantity first.
func (s *Store) SalesByCrop(_ context.Context, window models.DateRange) ([]models.CropTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byCrop(s.saleEntries(window)), nil
}

func (s *Store) byCrop(entries []entry) []models.CropTotals {
	groups := make(map[primitive.ObjectID]*accumulator)
	for _, e := range entries {
		acc, ok := groups[e.cropID]
		if !ok {
			acc = &accumulator{}
			groups[e.cropID] = acc
		}
		acc.add(e)
	}

	out := make([]models.CropTotals, 0, len(groups))
	for cropID, acc := range groups {
		// Unknown crops drop out, as $unwind does after an empty $lookup.
		crop, ok := s.crops[cropID]
		if !ok {
			continue
		}
		out = append(out, models.CropTotals{
			TransactionTotals: acc.result(),
			CropID:            cropID,
			CropName:          crop.CropName,
			Unit:              crop.Unit,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].CropName < out[j].CropName
	})
	return out
}

// PurchasesByDay groups purchases in the window by calendar day in loc.
func (s *Store) PurchasesByDay(_ context.Context, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byDay(s.purchaseEntries(window), loc), nil
}

// SalesByDay groups sales in the window by calendar day in loc.
func (s *Store) SalesByDay(_ context.Context, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byDay(s.saleEntries(window), loc), nil
}

func byDay(entries []entry, loc *time.Location) []models.DailyTotals {
	if loc == nil {
		loc = time.UTC
	}
	groups := make(map[string]*accumulator)
	for _, e := range entries {
		key := e.date.In(loc).Format("2006-01-02")
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}
		acc.add(e)
	}

	out := make([]models.DailyTotals, 0, len(groups))
	for day, acc := range groups {
		out = append(out, models.DailyTotals{TransactionTotals: acc.result(), Day: day})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
