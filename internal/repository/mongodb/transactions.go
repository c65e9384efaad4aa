package mongodb

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// InsertPurchase stores a new purchase and assigns its ID.
func (r *MongoDBRepository) InsertPurchase(ctx context.Context, purchase *models.Purchase) error {
	now := r.now()
	purchase.CreatedAt, purchase.UpdatedAt = now, now
	id, err := r.insert(ctx, purchasesCollection, "purchase", purchase)
	if err != nil {
		return err
	}
	purchase.ID = id
	return nil
}

// GetPurchase loads a purchase by ID.
func (r *MongoDBRepository) GetPurchase(ctx context.Context, id primitive.ObjectID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.findByID(ctx, purchasesCollection, "purchase", id, &purchase); err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases returns purchases matching filter, newest first.
func (r *MongoDBRepository) ListPurchases(ctx context.Context, filter models.TransactionFilter) ([]models.Purchase, error) {
	query := transactionQuery(filter, "purchaseDate")
	if !filter.FarmerID.IsZero() {
		query["farmer"] = filter.FarmerID
	}
	opts := options.Find().SetSort(bson.D{{Key: "purchaseDate", Value: -1}})
	return findAll[models.Purchase](ctx, r.collection(purchasesCollection), query, opts)
}

// UpdatePurchase overwrites a stored purchase.
func (r *MongoDBRepository) UpdatePurchase(ctx context.Context, purchase *models.Purchase) error {
	purchase.UpdatedAt = r.now()
	return r.replace(ctx, purchasesCollection, "purchase", purchase.ID, purchase)
}

// DeletePurchase removes a purchase.
func (r *MongoDBRepository) DeletePurchase(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, purchasesCollection, "purchase", id)
}

// InsertSale stores a new sale and assigns its ID.
func (r *MongoDBRepository) InsertSale(ctx context.Context, sale *models.Sale) error {
	now := r.now()
	sale.CreatedAt, sale.UpdatedAt = now, now
	id, err := r.insert(ctx, salesCollection, "sale", sale)
	if err != nil {
		return err
	}
	sale.ID = id
	return nil
}

// GetSale loads a sale by ID.
func (r *MongoDBRepository) GetSale(ctx context.Context, id primitive.ObjectID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.findByID(ctx, salesCollection, "sale", id, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListSales returns sales matching filter, newest first.
func (r *MongoDBRepository) ListSales(ctx context.Context, filter models.TransactionFilter) ([]models.Sale, error) {
	query := transactionQuery(filter, "saleDate")
	if filter.BuyerName != "" {
		query["buyerName"] = bson.M{"$regex": regexp.QuoteMeta(filter.BuyerName), "$options": "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "saleDate", Value: -1}})
	return findAll[models.Sale](ctx, r.collection(salesCollection), query, opts)
}

// UpdateSale overwrites a stored sale.
func (r *MongoDBRepository) UpdateSale(ctx context.Context, sale *models.Sale) error {
	sale.UpdatedAt = r.now()
	return r.replace(ctx, salesCollection, "sale", sale.ID, sale)
}

// DeleteSale removes a sale.
func (r *MongoDBRepository) DeleteSale(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, salesCollection, "sale", id)
}

func transactionQuery(filter models.TransactionFilter, dateField string) bson.M {
	query := bson.M{}
	if !filter.CropID.IsZero() {
		query["crop"] = filter.CropID
	}
	if filter.PaymentStatus != "" {
		query["paymentStatus"] = filter.PaymentStatus
	}
	if cond := dateRange(filter.From, filter.To); len(cond) > 0 {
		query[dateField] = cond
	}
	return query
}
