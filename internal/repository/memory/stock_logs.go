package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// LatestStockLogBefore returns the most recent snapshot for the crop dated
// strictly before the given instant.
func (s *Store) LatestStockLogBefore(_ context.Context, cropID primitive.ObjectID, before time.Time) (models.StockLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest models.StockLog
		found  bool
	)
	for _, log := range s.stockLogs {
		if log.CropID != cropID || !log.Date.Before(before) {
			continue
		}
		if !found || log.Date.After(latest.Date) {
			latest, found = log, true
		}
	}
	return latest, found, nil
}

// UpsertStockLog creates or overwrites the snapshot for log.CropID within the
// day window and fills in the stored ID.
func (s *Store) UpsertStockLog(_ context.Context, day models.DateRange, log *models.StockLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := *log
	stored.ID = primitive.NilObjectID
	stored.CreatedAt = now
	for id, existing := range s.stockLogs {
		if existing.CropID == log.CropID && inWindow(existing.Date, day.Start, day.End) {
			stored.ID = id
			stored.CreatedAt = existing.CreatedAt
			break
		}
	}
	if stored.ID.IsZero() {
		stored.ID = primitive.NewObjectID()
	}
	stored.UpdatedAt = now
	s.stockLogs[stored.ID] = stored
	*log = stored
	return nil
}

// SetStockLogRate overwrites the average rate for the given transaction kind.
func (s *Store) SetStockLogRate(_ context.Context, id primitive.ObjectID, kind models.TransactionKind, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.stockLogs[id]
	if !ok {
		return notFound("stock log", id)
	}
	switch kind {
	case models.KindPurchase:
		log.AvgBuyingRate = rate
	case models.KindSale:
		log.AvgSellingRate = rate
	default:
		return fmt.Errorf("%w: unknown transaction kind %q", models.ErrValidation, kind)
	}
	log.UpdatedAt = s.now()
	s.stockLogs[id] = log
	return nil
}

// ListStockLogs returns snapshots matching filter, newest first unless
// filter.Ascending is set.
func (s *Store) ListStockLogs(_ context.Context, filter models.StockLogFilter) ([]models.StockLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.StockLog, 0)
	for _, log := range s.stockLogs {
		if !filter.CropID.IsZero() && log.CropID != filter.CropID {
			continue
		}
		if !inWindow(log.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, log)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
