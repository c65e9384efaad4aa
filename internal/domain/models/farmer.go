package models

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var contactPattern = regexp.MustCompile(`^[0-9]{10}$`)

// Farmer is a supplier contact purchases are made from.
type Farmer struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name             string             `bson:"name" json:"name"`
	Village          string             `bson:"village" json:"village"`
	Contact          string             `bson:"contact" json:"contact"`
	AlternateContact string             `bson:"alternateContact,omitempty" json:"alternateContact,omitempty"`
	Address          string             `bson:"address,omitempty" json:"address,omitempty"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FarmerRef is the trimmed farmer projection embedded in purchase responses.
type FarmerRef struct {
	ID      primitive.ObjectID `json:"_id"`
	Name    string             `json:"name"`
	Village string             `json:"village"`
	Contact string             `json:"contact"`
}

// Ref returns the response projection of the farmer.
func (f Farmer) Ref() FarmerRef {
	return FarmerRef{ID: f.ID, Name: f.Name, Village: f.Village, Contact: f.Contact}
}

// ValidContact reports whether value is a 10-digit contact number.
func ValidContact(value string) bool {
	return contactPattern.MatchString(value)
}

// Validate checks required farmer fields and contact formats.
func (f Farmer) Validate() error {
	switch {
	case f.Name == "":
		return fmt.Errorf("%w: farmer name is required", ErrValidation)
	case f.Village == "":
		return fmt.Errorf("%w: village is required", ErrValidation)
	case !ValidContact(f.Contact):
		return fmt.Errorf("%w: contact must be 10 digits", ErrValidation)
	case f.AlternateContact != "" && !ValidContact(f.AlternateContact):
		return fmt.Errorf("%w: alternate contact must be 10 digits", ErrValidation)
	}
	return nil
}
