package stock

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// DefaultHistoryLimit caps history listings when no limit is requested.
const DefaultHistoryLimit = 30

// CropStatus computes the snapshot of one crop on date.
func (l *Ledger) CropStatus(ctx context.Context, cropID primitive.ObjectID, date time.Time) (*models.StockStatus, error) {
	crop, err := l.store.GetCrop(ctx, cropID)
	if err != nil {
		return nil, err
	}
	log, err := l.ComputeDailyStock(ctx, cropID, date)
	if err != nil {
		return nil, err
	}
	return &models.StockStatus{Crop: crop.Ref(), StockLog: *log}, nil
}

// AllStatus computes the snapshot of every active crop on date.
func (l *Ledger) AllStatus(ctx context.Context, date time.Time) ([]models.StockStatus, error) {
	crops, err := l.store.ListCrops(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load crops: %w", err)
	}

	out := make([]models.StockStatus, 0, len(crops))
	for _, crop := range crops {
		log, err := l.ComputeDailyStock(ctx, crop.ID, date)
		if err != nil {
			return nil, fmt.Errorf("crop %s: %w", crop.CropName, err)
		}
		out = append(out, models.StockStatus{Crop: crop.Ref(), StockLog: *log})
	}
	return out, nil
}

// History lists stored snapshots of a crop within [from, to], newest first.
// Zero bounds are open; limit <= 0 uses DefaultHistoryLimit.
func (l *Ledger) History(ctx context.Context, cropID primitive.ObjectID, from, to time.Time, limit int64) (*models.StockHistory, error) {
	crop, err := l.store.GetCrop(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	logs, err := l.store.ListStockLogs(ctx, models.StockLogFilter{
		CropID: cropID,
		From:   from,
		To:     to,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("load stock history: %w", err)
	}
	return &models.StockHistory{Crop: crop.Ref(), History: logs}, nil
}
