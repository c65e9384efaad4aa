package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockLog is the per-crop, per-day inventory and rate snapshot.
// ClosingStock always equals OpeningStock + Purchased - Sold.
type StockLog struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CropID         primitive.ObjectID `bson:"crop" json:"crop"`
	Date           time.Time          `bson:"date" json:"date"`
	OpeningStock   float64            `bson:"openingStock" json:"openingStock"`
	Purchased      float64            `bson:"purchased" json:"purchased"`
	Sold           float64            `bson:"sold" json:"sold"`
	ClosingStock   float64            `bson:"closingStock" json:"closingStock"`
	AvgBuyingRate  float64            `bson:"avgBuyingRate" json:"avgBuyingRate"`
	AvgSellingRate float64            `bson:"avgSellingRate" json:"avgSellingRate"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// StockStatus pairs a snapshot with its crop for the stock endpoints. The
// snapshot fields are flattened next to "crop", which carries the populated
// crop rather than the bare id.
type StockStatus struct {
	StockLog

	Crop CropRef `json:"crop"`
}

// StockHistory lists stored snapshots for one crop, newest first.
type StockHistory struct {
	Crop    CropRef    `json:"crop"`
	History []StockLog `json:"history"`
}

// StockLogFilter narrows snapshot listings. Zero values are ignored.
type StockLogFilter struct {
	CropID    primitive.ObjectID
	From      time.Time
	To        time.Time
	Limit     int64
	Ascending bool
}
