package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// InsertCrop stores a new crop and assigns its ID.
func (r *MongoDBRepository) InsertCrop(ctx context.Context, crop *models.Crop) error {
	now := r.now()
	crop.CreatedAt, crop.UpdatedAt = now, now
	id, err := r.insert(ctx, cropsCollection, "crop", crop)
	if err != nil {
		return err
	}
	crop.ID = id
	return nil
}

// GetCrop loads a crop by ID.
func (r *MongoDBRepository) GetCrop(ctx context.Context, id primitive.ObjectID) (*models.Crop, error) {
	var crop models.Crop
	if err := r.findByID(ctx, cropsCollection, "crop", id, &crop); err != nil {
		return nil, err
	}
	return &crop, nil
}

// FindCropByName loads a crop by its normalized name.
func (r *MongoDBRepository) FindCropByName(ctx context.Context, name string) (*models.Crop, error) {
	var crop models.Crop
	err := r.collection(cropsCollection).FindOne(ctx, bson.M{"cropName": name}).Decode(&crop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("crop %q: %w", name, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find crop %q: %w", name, err)
	}
	return &crop, nil
}

// ListCrops returns crops sorted by name.
func (r *MongoDBRepository) ListCrops(ctx context.Context, activeOnly bool) ([]models.Crop, error) {
	opts := options.Find().SetSort(bson.D{{Key: "cropName", Value: 1}})
	return findAll[models.Crop](ctx, r.collection(cropsCollection), activeFilter(activeOnly), opts)
}

// UpdateCrop overwrites a stored crop.
func (r *MongoDBRepository) UpdateCrop(ctx context.Context, crop *models.Crop) error {
	crop.UpdatedAt = r.now()
	return r.replace(ctx, cropsCollection, "crop", crop.ID, crop)
}

// CountCrops counts crops.
func (r *MongoDBRepository) CountCrops(ctx context.Context, activeOnly bool) (int64, error) {
	n, err := r.collection(cropsCollection).CountDocuments(ctx, activeFilter(activeOnly))
	if err != nil {
		return 0, fmt.Errorf("count crops: %w", err)
	}
	return n, nil
}

// InsertFarmer stores a new farmer and assigns its ID.
func (r *MongoDBRepository) InsertFarmer(ctx context.Context, farmer *models.Farmer) error {
	now := r.now()
	farmer.CreatedAt, farmer.UpdatedAt = now, now
	id, err := r.insert(ctx, farmersCollection, "farmer", farmer)
	if err != nil {
		return err
	}
	farmer.ID = id
	return nil
}

// GetFarmer loads a farmer by ID.
func (r *MongoDBRepository) GetFarmer(ctx context.Context, id primitive.ObjectID) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := r.findByID(ctx, farmersCollection, "farmer", id, &farmer); err != nil {
		return nil, err
	}
	return &farmer, nil
}

// ListFarmers returns farmers sorted by name.
func (r *MongoDBRepository) ListFarmers(ctx context.Context, activeOnly bool) ([]models.Farmer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[models.Farmer](ctx, r.collection(farmersCollection), activeFilter(activeOnly), opts)
}

// UpdateFarmer overwrites a stored farmer.
func (r *MongoDBRepository) UpdateFarmer(ctx context.Context, farmer *models.Farmer) error {
	farmer.UpdatedAt = r.now()
	return r.replace(ctx, farmersCollection, "farmer", farmer.ID, farmer)
}

// CountFarmers counts farmers.
func (r *MongoDBRepository) CountFarmers(ctx context.Context, activeOnly bool) (int64, error) {
	n, err := r.collection(farmersCollection).CountDocuments(ctx, activeFilter(activeOnly))
	if err != nil {
		return 0, fmt.Errorf("count farmers: %w", err)
	}
	return n, nil
}
