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
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository"
)

const (
	cropsCollection     = "crops"
	farmersCollection   = "farmers"
	purchasesCollection = "purchases"
	salesCollection     = "sales"
	expensesCollection  = "expenses"
	stockLogsCollection = "stock_logs"
	usersCollection     = "users"
)

var _ repository.Store = (*MongoDBRepository)(nil)

// MongoDBRepository implements repository.Store on top of MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

// NewMongoDBRepository connects to MongoDB, verifies the connection and
// ensures the indexes the application relies on.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
		now:    time.Now,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	logger.Info("mongodb repository ready", zap.String("database", dbName))
	return repo, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	for coll, idx := range indexModels() {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// indexModels lists the indexes created on startup, per collection.
func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		cropsCollection: {
			{Keys: bson.D{{Key: "cropName", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		purchasesCollection: {
			{Keys: bson.D{{Key: "crop", Value: 1}, {Key: "purchaseDate", Value: 1}}},
			{Keys: bson.D{{Key: "farmer", Value: 1}}},
		},
		salesCollection: {
			{Keys: bson.D{{Key: "crop", Value: 1}, {Key: "saleDate", Value: 1}}},
		},
		expensesCollection: {
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		stockLogsCollection: {
			{Keys: bson.D{{Key: "crop", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}

func (r *MongoDBRepository) findByID(ctx context.Context, coll, kind string, id primitive.ObjectID, out any) error {
	err := r.collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", kind, id.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find %s %s: %w", kind, id.Hex(), err)
	}
	return nil
}

func (r *MongoDBRepository) insert(ctx context.Context, coll, kind string, doc any) (primitive.ObjectID, error) {
	res, err := r.collection(coll).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, fmt.Errorf("insert %s: %w", kind, models.ErrConflict)
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert %s: %w", kind, err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (r *MongoDBRepository) replace(ctx context.Context, coll, kind string, id primitive.ObjectID, doc any) error {
	res, err := r.collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("update %s %s: %w", kind, id.Hex(), models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", kind, id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, id.Hex(), models.ErrNotFound)
	}
	return nil
}

func (r *MongoDBRepository) deleteByID(ctx context.Context, coll, kind string, id primitive.ObjectID) error {
	res, err := r.collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, id.Hex(), models.ErrNotFound)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s aggregate: %w", coll.Name(), err)
	}
	return out, nil
}

// dateRange builds a {$gte, $lte} predicate, skipping unset bounds.
func dateRange(from, to time.Time) bson.M {
	cond := bson.M{}
	if !from.IsZero() {
		cond["$gte"] = from
	}
	if !to.IsZero() {
		cond["$lte"] = to
	}
	return cond
}

func activeFilter(activeOnly bool) bson.M {
	if activeOnly {
		return bson.M{"isActive": true}
	}
	return bson.M{}
}
