// Package stock derives the per-crop daily stock snapshots from purchase and
// sale records.
package stock

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// Store is the document-store surface the ledger reads and writes.
type Store interface {
	GetCrop(ctx context.Context, id primitive.ObjectID) (*models.Crop, error)
	ListCrops(ctx context.Context, activeOnly bool) ([]models.Crop, error)
	ListPurchases(ctx context.Context, filter models.TransactionFilter) ([]models.Purchase, error)
	ListSales(ctx context.Context, filter models.TransactionFilter) ([]models.Sale, error)
	LatestStockLogBefore(ctx context.Context, cropID primitive.ObjectID, before time.Time) (models.StockLog, bool, error)
	UpsertStockLog(ctx context.Context, day models.DateRange, log *models.StockLog) error
	SetStockLogRate(ctx context.Context, id primitive.ObjectID, kind models.TransactionKind, rate float64) error
	ListStockLogs(ctx context.Context, filter models.StockLogFilter) ([]models.StockLog, error)
}

// TransactionEvent describes a purchase or sale write that changed a crop's
// stock on Date. QuantityDelta and Rate are informational; averages are
// always re-derived from the stored records.
type TransactionEvent struct {
	CropID        primitive.ObjectID
	Kind          models.TransactionKind
	Date          time.Time
	QuantityDelta float64
	Rate          float64
}

// Ledger computes and persists daily stock snapshots.
type Ledger struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger wires a ledger. Day windows are computed in loc.
func NewLedger(store Store, loc *time.Location, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{store: store, loc: loc, logger: logger, now: time.Now}
}

// DayWindow returns [00:00:00.000, 23:59:59.999] of t's calendar day in loc.
func DayWindow(t time.Time, loc *time.Location) models.DateRange {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return models.DateRange{Start: start, End: end}
}

// ComputeDailyStock derives the snapshot of cropID for the calendar day
// containing date and upserts it. Opening stock is the closing stock of the
// latest snapshot dated before the day, or 0 when none exists.
func (l *Ledger) ComputeDailyStock(ctx context.Context, cropID primitive.ObjectID, date time.Time) (*models.StockLog, error) {
	if _, err := l.store.GetCrop(ctx, cropID); err != nil {
		return nil, fmt.Errorf("compute daily stock: %w", err)
	}

	day := DayWindow(date, l.loc)

	previous, found, err := l.store.LatestStockLogBefore(ctx, cropID, day.Start)
	if err != nil {
		return nil, fmt.Errorf("compute daily stock: %w", err)
	}
	var opening float64
	if found {
		opening = previous.ClosingStock
	}

	filter := models.TransactionFilter{CropID: cropID, From: day.Start, To: day.End}
	purchases, err := l.store.ListPurchases(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load purchases: %w", err)
	}
	sales, err := l.store.ListSales(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}

	log := Derive(opening, purchases, sales)
	log.CropID = cropID
	log.Date = day.Start

	if err := l.store.UpsertStockLog(ctx, day, &log); err != nil {
		return nil, fmt.Errorf("compute daily stock: %w", err)
	}

	l.logger.Debug("stock snapshot computed",
		zap.String("crop", cropID.Hex()),
		zap.Time("day", day.Start),
		zap.Float64("opening", log.OpeningStock),
		zap.Float64("closing", log.ClosingStock))

	return &log, nil
}

// RecomputeAfterTransaction refreshes the snapshot of the transaction's own
// day, re-averages the rate for the transaction kind from a fresh query, and
// re-derives every later snapshot of the crop so openings follow the change.
func (l *Ledger) RecomputeAfterTransaction(ctx context.Context, event TransactionEvent) (*models.StockLog, error) {
	date := event.Date
	if date.IsZero() {
		date = l.now()
	}

	log, err := l.ComputeDailyStock(ctx, event.CropID, date)
	if err != nil {
		return nil, err
	}

	day := DayWindow(date, l.loc)
	rates, err := l.dayRates(ctx, event.CropID, event.Kind, day)
	if err != nil {
		return nil, err
	}
	if len(rates) > 0 {
		avg := mean(rates)
		if err := l.store.SetStockLogRate(ctx, log.ID, event.Kind, avg); err != nil {
			return nil, fmt.Errorf("update average rate: %w", err)
		}
		if event.Kind == models.KindPurchase {
			log.AvgBuyingRate = avg
		} else {
			log.AvgSellingRate = avg
		}
	}

	l.logger.Info("stock recomputed after transaction",
		zap.String("crop", event.CropID.Hex()),
		zap.String("kind", string(event.Kind)),
		zap.Time("day", day.Start),
		zap.Float64("quantity_delta", event.QuantityDelta),
		zap.Float64("rate", event.Rate),
		zap.Float64("closing", log.ClosingStock))

	if err := l.rollForward(ctx, event.CropID, day.End); err != nil {
		return nil, err
	}

	return log, nil
}

// rollForward re-derives every stored snapshot of cropID dated after the
// given instant, oldest first.
func (l *Ledger) rollForward(ctx context.Context, cropID primitive.ObjectID, after time.Time) error {
	later, err := l.store.ListStockLogs(ctx, models.StockLogFilter{
		CropID:    cropID,
		From:      after.Add(time.Millisecond),
		Ascending: true,
	})
	if err != nil {
		return fmt.Errorf("load later snapshots: %w", err)
	}
	for _, snapshot := range later {
		if _, err := l.ComputeDailyStock(ctx, cropID, snapshot.Date); err != nil {
			return fmt.Errorf("roll forward %s: %w", snapshot.Date.Format(time.DateOnly), err)
		}
	}
	if len(later) > 0 {
		l.logger.Debug("later snapshots re-derived", zap.String("crop", cropID.Hex()), zap.Int("count", len(later)))
	}
	return nil
}

func (l *Ledger) dayRates(ctx context.Context, cropID primitive.ObjectID, kind models.TransactionKind, day models.DateRange) ([]float64, error) {
	filter := models.TransactionFilter{CropID: cropID, From: day.Start, To: day.End}
	switch kind {
	case models.KindPurchase:
		purchases, err := l.store.ListPurchases(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("reload purchases: %w", err)
		}
		rates := make([]float64, 0, len(purchases))
		for _, p := range purchases {
			rates = append(rates, p.Rate)
		}
		return rates, nil
	case models.KindSale:
		sales, err := l.store.ListSales(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("reload sales: %w", err)
		}
		rates := make([]float64, 0, len(sales))
		for _, s := range sales {
			rates = append(rates, s.Rate)
		}
		return rates, nil
	}
	return nil, fmt.Errorf("%w: unknown transaction kind %q", models.ErrValidation, kind)
}

// Derive folds one day's purchases and sales onto an opening balance.
func Derive(opening float64, purchases []models.Purchase, sales []models.Sale) models.StockLog {
	var purchased, sold float64
	buyRates := make([]float64, 0, len(purchases))
	for _, p := range purchases {
		purchased += p.Quantity
		buyRates = append(buyRates, p.Rate)
	}
	sellRates := make([]float64, 0, len(sales))
	for _, s := range sales {
		sold += s.Quantity
		sellRates = append(sellRates, s.Rate)
	}

	return models.StockLog{
		OpeningStock:   opening,
		Purchased:      purchased,
		Sold:           sold,
		ClosingStock:   opening + purchased - sold,
		AvgBuyingRate:  mean(buyRates),
		AvgSellingRate: mean(sellRates),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
