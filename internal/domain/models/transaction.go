package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus tracks settlement of a purchase or sale.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentPartial:
		return true
	}
	return false
}

// TransactionKind distinguishes stock inflows from outflows.
type TransactionKind string

const (
	KindPurchase TransactionKind = "purchase"
	KindSale     TransactionKind = "sale"
)

// Purchase moves quantity of a crop into inventory from a farmer.
type Purchase struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CropID        primitive.ObjectID `bson:"crop" json:"crop"`
	FarmerID      primitive.ObjectID `bson:"farmer" json:"farmer"`
	Quantity      float64            `bson:"quantity" json:"quantity"`
	Rate          float64            `bson:"rate" json:"rate"`
	TotalCost     float64            `bson:"totalCost" json:"totalCost"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentDate   *time.Time         `bson:"paymentDate,omitempty" json:"paymentDate,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PurchaseDate  time.Time          `bson:"purchaseDate" json:"purchaseDate"`
	CreatedBy     primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Recalculate derives TotalCost from quantity and rate.
func (p *Purchase) Recalculate() {
	p.TotalCost = p.Quantity * p.Rate
}

// Validate checks numeric bounds and enum membership.
func (p Purchase) Validate() error {
	if err := validateAmounts(p.Quantity, p.Rate); err != nil {
		return err
	}
	if !p.PaymentStatus.Valid() {
		return fmt.Errorf("%w: invalid payment status %q", ErrValidation, p.PaymentStatus)
	}
	return nil
}

// Sale moves quantity of a crop out of inventory to a buyer.
type Sale struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CropID        primitive.ObjectID `bson:"crop" json:"crop"`
	BuyerName     string             `bson:"buyerName" json:"buyerName"`
	VehicleNumber string             `bson:"vehicleNumber,omitempty" json:"vehicleNumber,omitempty"`
	Quantity      float64            `bson:"quantity" json:"quantity"`
	Rate          float64            `bson:"rate" json:"rate"`
	TotalAmount   float64            `bson:"totalAmount" json:"totalAmount"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentDate   *time.Time         `bson:"paymentDate,omitempty" json:"paymentDate,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	SaleDate      time.Time          `bson:"saleDate" json:"saleDate"`
	CreatedBy     primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Recalculate derives TotalAmount from quantity and rate.
func (s *Sale) Recalculate() {
	s.TotalAmount = s.Quantity * s.Rate
}

// Validate checks required fields, numeric bounds and enum membership.
func (s Sale) Validate() error {
	if s.BuyerName == "" {
		return fmt.Errorf("%w: buyer name is required", ErrValidation)
	}
	if err := validateAmounts(s.Quantity, s.Rate); err != nil {
		return err
	}
	if !s.PaymentStatus.Valid() {
		return fmt.Errorf("%w: invalid payment status %q", ErrValidation, s.PaymentStatus)
	}
	return nil
}

func validateAmounts(quantity, rate float64) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	if rate < 0 {
		return fmt.Errorf("%w: rate cannot be negative", ErrValidation)
	}
	return nil
}

// PurchaseView is a purchase with its crop and farmer populated.
type PurchaseView struct {
	Purchase

	Crop   *CropRef   `json:"cropInfo,omitempty"`
	Farmer *FarmerRef `json:"farmerInfo,omitempty"`
}

// SaleView is a sale with its crop populated.
type SaleView struct {
	Sale

	Crop *CropRef `json:"cropInfo,omitempty"`
}

// TransactionFilter narrows purchase and sale listings. Zero values are ignored.
type TransactionFilter struct {
	CropID        primitive.ObjectID
	FarmerID      primitive.ObjectID
	BuyerName     string
	PaymentStatus PaymentStatus
	From          time.Time
	To            time.Time
}
