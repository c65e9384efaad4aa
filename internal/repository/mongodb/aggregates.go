package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// transactionSource describes where a transaction collection keeps its date
// and money fields.
type transactionSource struct {
	collection  string
	dateField   string
	amountField string
}

var (
	purchaseSource = transactionSource{collection: purchasesCollection, dateField: "purchaseDate", amountField: "totalCost"}
	saleSource     = transactionSource{collection: salesCollection, dateField: "saleDate", amountField: "totalAmount"}
)

func (s transactionSource) match(window models.DateRange) bson.D {
	return windowMatch(s.dateField, window)
}

func windowMatch(field string, window models.DateRange) bson.D {
	query := bson.M{}
	if cond := dateRange(window.Start, window.End); len(cond) > 0 {
		query[field] = cond
	}
	return bson.D{{Key: "$match", Value: query}}
}

func (s transactionSource) group(key any) bson.D {
	return bson.D{{Key: "$group", Value: bson.M{
		"_id":      key,
		"quantity": bson.M{"$sum": "$quantity"},
		"amount":   bson.M{"$sum": "$" + s.amountField},
		"avgRate":  bson.M{"$avg": "$rate"},
		"count":    bson.M{"$sum": 1},
	}}}
}

// SumPurchases totals purchases in the window.
func (r *MongoDBRepository) SumPurchases(ctx context.Context, window models.DateRange) (models.TransactionTotals, error) {
	return r.sum(ctx, purchaseSource, window)
}

// SumSales totals sales in the window.
func (r *MongoDBRepository) SumSales(ctx context.Context, window models.DateRange) (models.TransactionTotals, error) {
	return r.sum(ctx, saleSource, window)
}

func (r *MongoDBRepository) sum(ctx context.Context, src transactionSource, window models.DateRange) (models.TransactionTotals, error) {
	pipeline := mongo.Pipeline{src.match(window), src.group(nil)}
	rows, err := aggregate[models.TransactionTotals](ctx, r.collection(src.collection), pipeline)
	if err != nil {
		return models.TransactionTotals{}, err
	}
	if len(rows) == 0 {
		return models.TransactionTotals{}, nil
	}
	return rows[0], nil
}

// SumExpenses totals expense amounts in the window.
func (r *MongoDBRepository) SumExpenses(ctx context.Context, window models.DateRange) (float64, error) {
	pipeline := mongo.Pipeline{
		windowMatch("date", window),
		{{Key: "$group", Value: bson.M{"_id": nil, "amount": bson.M{"$sum": "$amount"}}}},
	}
	rows, err := aggregate[models.TransactionTotals](ctx, r.collection(expensesCollection), pipeline)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Amount, nil
}

// PurchasesByCrop groups purchases in the window by crop, largest quantity first.
func (r *MongoDBRepository) PurchasesByCrop(ctx context.Context, window models.DateRange) ([]models.CropTotals, error) {
	return r.byCrop(ctx, purchaseSource, window)
}

// SalesByCrop groups sales in the window by crop, largest quantity first.
func (r *MongoDBRepository) SalesByCrop(ctx context.Context, window models.DateRange) ([]models.CropTotals, error) {
	return r.byCrop(ctx, saleSource, window)
}

func (r *MongoDBRepository) byCrop(ctx context.Context, src transactionSource, window models.DateRange) ([]models.CropTotals, error) {
	pipeline := mongo.Pipeline{
		src.match(window),
		src.group("$crop"),
		{{Key: "$lookup", Value: bson.M{
			"from":         cropsCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "cropInfo",
		}}},
		{{Key: "$unwind", Value: "$cropInfo"}},
		{{Key: "$addFields", Value: bson.M{
			"cropName": "$cropInfo.cropName",
			"unit":     "$cropInfo.unit",
		}}},
		{{Key: "$project", Value: bson.M{"cropInfo": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "cropName", Value: 1}}}},
	}
	return aggregate[models.CropTotals](ctx, r.collection(src.collection), pipeline)
}

// PurchasesByDay groups purchases in the window by calendar day in loc.
func (r *MongoDBRepository) PurchasesByDay(ctx context.Context, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error) {
	return r.byDay(ctx, purchaseSource, window, loc)
}

// SalesByDay groups sales in the window by calendar day in loc.
func (r *MongoDBRepository) SalesByDay(ctx context.Context, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error) {
	return r.byDay(ctx, saleSource, window, loc)
}

func (r *MongoDBRepository) byDay(ctx context.Context, src transactionSource, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error) {
	day := bson.M{"$dateToString": bson.M{
		"format":   "%Y-%m-%d",
		"date":     "$" + src.dateField,
		"timezone": timezoneName(loc),
	}}
	pipeline := mongo.Pipeline{
		src.match(window),
		src.group(day),
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	rows, err := aggregate[models.DailyTotals](ctx, r.collection(src.collection), pipeline)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	return rows, nil
}

// timezoneName maps a location to an Olson name MongoDB understands.
func timezoneName(loc *time.Location) string {
	if loc == nil || loc.String() == "Local" {
		return "UTC"
	}
	return loc.String()
}
