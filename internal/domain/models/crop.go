package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Unit is the unit of measure a crop is traded in.
type Unit string

const (
	UnitKg      Unit = "kg"
	UnitQuintal Unit = "quintal"
	UnitTon     Unit = "ton"
	UnitBag     Unit = "bag"
)

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitQuintal, UnitTon, UnitBag:
		return true
	}
	return false
}

// Crop is a tracked commodity.
type Crop struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CropName    string             `bson:"cropName" json:"cropName"`
	Unit        Unit               `bson:"unit" json:"unit"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	MarketRate  float64            `bson:"marketRate" json:"marketRate"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CropRef is the trimmed crop projection embedded in transaction and stock responses.
type CropRef struct {
	ID       primitive.ObjectID `json:"_id"`
	CropName string             `json:"cropName"`
	Unit     Unit               `json:"unit"`
}

// Ref returns the response projection of the crop.
func (c Crop) Ref() CropRef {
	return CropRef{ID: c.ID, CropName: c.CropName, Unit: c.Unit}
}

// NormalizeCropName trims and upper-cases a crop name.
func NormalizeCropName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Validate checks the crop fields that the store does not enforce.
func (c Crop) Validate() error {
	if c.CropName == "" {
		return fmt.Errorf("%w: crop name is required", ErrValidation)
	}
	if !c.Unit.Valid() {
		return fmt.Errorf("%w: invalid unit %q", ErrValidation, c.Unit)
	}
	if c.MarketRate < 0 {
		return fmt.Errorf("%w: market rate cannot be negative", ErrValidation)
	}
	return nil
}
