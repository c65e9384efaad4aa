package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// InsertUser stores a new user; duplicate usernames yield models.ErrConflict.
func (r *MongoDBRepository) InsertUser(ctx context.Context, user *models.User) error {
	user.CreatedAt = r.now()
	id, err := r.insert(ctx, usersCollection, "user", user)
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUser loads a user by ID.
func (r *MongoDBRepository) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.findByID(ctx, usersCollection, "user", id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByUsername loads a user by username.
func (r *MongoDBRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.collection(usersCollection).FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &user, nil
}
