package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// LatestStockLogBefore returns the most recent snapshot for the crop dated
// strictly before the given instant.
func (r *MongoDBRepository) LatestStockLogBefore(ctx context.Context, cropID primitive.ObjectID, before time.Time) (models.StockLog, bool, error) {
	var log models.StockLog
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})
	filter := bson.M{"crop": cropID, "date": bson.M{"$lt": before}}

	err := r.collection(stockLogsCollection).FindOne(ctx, filter, opts).Decode(&log)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StockLog{}, false, nil
	}
	if err != nil {
		return models.StockLog{}, false, fmt.Errorf("find previous stock log for crop %s: %w", cropID.Hex(), err)
	}
	return log, true, nil
}

// UpsertStockLog creates or overwrites the snapshot keyed by (crop, day.Start)
// and fills in the stored ID. The unique index on that key makes a racing
// insert fail with a duplicate key error; the upsert is then retried once and
// matches the row the other writer created.
func (r *MongoDBRepository) UpsertStockLog(ctx context.Context, day models.DateRange, log *models.StockLog) error {
	now := r.now()
	filter := stockLogKey(log.CropID, day)
	update := bson.M{
		"$set": bson.M{
			"openingStock":   log.OpeningStock,
			"purchased":      log.Purchased,
			"sold":           log.Sold,
			"closingStock":   log.ClosingStock,
			"avgBuyingRate":  log.AvgBuyingRate,
			"avgSellingRate": log.AvgSellingRate,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.StockLog
	err := retryOnDuplicateKey(func() error {
		return r.collection(stockLogsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert stock log for crop %s: %w", log.CropID.Hex(), err)
	}
	*log = stored
	return nil
}

// stockLogKey is the unique key of a daily snapshot. Stored dates are always
// the start of the day in the ledger timezone.
func stockLogKey(cropID primitive.ObjectID, day models.DateRange) bson.M {
	return bson.M{"crop": cropID, "date": day.Start}
}

// retryOnDuplicateKey runs op again once when it lost an upsert race.
func retryOnDuplicateKey(op func() error) error {
	err := op()
	if mongo.IsDuplicateKeyError(err) {
		err = op()
	}
	return err
}

// SetStockLogRate overwrites the average rate for the given transaction kind.
func (r *MongoDBRepository) SetStockLogRate(ctx context.Context, id primitive.ObjectID, kind models.TransactionKind, rate float64) error {
	field, err := rateField(kind)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{field: rate, "updatedAt": r.now()}}
	res, err := r.collection(stockLogsCollection).UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("failed to update %s on stock log %s: %w", field, id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("stock log %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}

// ListStockLogs returns snapshots matching filter, newest first unless
// filter.Ascending is set.
func (r *MongoDBRepository) ListStockLogs(ctx context.Context, filter models.StockLogFilter) ([]models.StockLog, error) {
	query := bson.M{}
	if !filter.CropID.IsZero() {
		query["crop"] = filter.CropID
	}
	if cond := dateRange(filter.From, filter.To); len(cond) > 0 {
		query["date"] = cond
	}

	order := -1
	if filter.Ascending {
		order = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: order}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	return findAll[models.StockLog](ctx, r.collection(stockLogsCollection), query, opts)
}

func rateField(kind models.TransactionKind) (string, error) {
	switch kind {
	case models.KindPurchase:
		return "avgBuyingRate", nil
	case models.KindSale:
		return "avgSellingRate", nil
	}
	return "", fmt.Errorf("%w: unknown transaction kind %q", models.ErrValidation, kind)
}
