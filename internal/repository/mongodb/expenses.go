package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// InsertExpense stores a new expense and assigns its ID.
func (r *MongoDBRepository) InsertExpense(ctx context.Context, expense *models.Expense) error {
	now := r.now()
	expense.CreatedAt, expense.UpdatedAt = now, now
	id, err := r.insert(ctx, expensesCollection, "expense", expense)
	if err != nil {
		return err
	}
	expense.ID = id
	return nil
}

// GetExpense loads an expense by ID.
func (r *MongoDBRepository) GetExpense(ctx context.Context, id primitive.ObjectID) (*models.Expense, error) {
	var expense models.Expense
	if err := r.findByID(ctx, expensesCollection, "expense", id, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// ListExpenses returns expenses matching filter, newest first.
func (r *MongoDBRepository) ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if !filter.CropID.IsZero() {
		query["crop"] = filter.CropID
	}
	if cond := dateRange(filter.From, filter.To); len(cond) > 0 {
		query["date"] = cond
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return findAll[models.Expense](ctx, r.collection(expensesCollection), query, opts)
}

// UpdateExpense overwrites a stored expense.
func (r *MongoDBRepository) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = r.now()
	return r.replace(ctx, expensesCollection, "expense", expense.ID, expense)
}

// DeleteExpense removes an expense.
func (r *MongoDBRepository) DeleteExpense(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, expensesCollection, "expense", id)
}
