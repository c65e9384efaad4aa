package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpenseCategory classifies operating expenses.
type ExpenseCategory string

const (
	ExpenseTransport ExpenseCategory = "Transport"
	ExpenseLoading   ExpenseCategory = "Loading"
	ExpenseLabor     ExpenseCategory = "Labor"
	ExpenseStorage   ExpenseCategory = "Storage"
	ExpenseOther     ExpenseCategory = "Other"
)

// Valid reports whether c is a known category.
func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseTransport, ExpenseLoading, ExpenseLabor, ExpenseStorage, ExpenseOther:
		return true
	}
	return false
}

// Expense captures operating costs, optionally attributed to a crop.
type Expense struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Date        time.Time           `bson:"date" json:"date"`
	Category    ExpenseCategory     `bson:"category" json:"category"`
	Description string              `bson:"description" json:"description"`
	Amount      float64             `bson:"amount" json:"amount"`
	CropID      *primitive.ObjectID `bson:"crop,omitempty" json:"crop,omitempty"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks required fields and bounds.
func (e Expense) Validate() error {
	switch {
	case !e.Category.Valid():
		return fmt.Errorf("%w: invalid expense category %q", ErrValidation, e.Category)
	case e.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case e.Amount < 0:
		return fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}
	return nil
}

// ExpenseFilter narrows expense listings. Zero values are ignored.
type ExpenseFilter struct {
	Category ExpenseCategory
	CropID   primitive.ObjectID
	From     time.Time
	To       time.Time
}
