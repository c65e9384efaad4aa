package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionTotals aggregates quantity, money and mean rate over a set of transactions.
type TransactionTotals struct {
	Quantity float64 `bson:"quantity" json:"quantity"`
	Amount   float64 `bson:"amount" json:"amount"`
	AvgRate  float64 `bson:"avgRate" json:"avgRate"`
	Count    int64   `bson:"count" json:"count"`
}

// CropTotals is TransactionTotals grouped by crop.
type CropTotals struct {
	TransactionTotals `bson:",inline"`

	CropID   primitive.ObjectID `bson:"_id" json:"cropId"`
	CropName string             `bson:"cropName" json:"cropName"`
	Unit     Unit               `bson:"unit" json:"unit"`
}

// DailyTotals is TransactionTotals grouped by calendar day (YYYY-MM-DD).
type DailyTotals struct {
	TransactionTotals `bson:",inline"`

	Day string `bson:"_id" json:"date"`
}

// DateRange is an inclusive reporting window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overview is the headline block of the dashboard.
type Overview struct {
	TotalPurchased float64 `json:"totalPurchased"`
	TotalSold      float64 `json:"totalSold"`
	TotalCost      float64 `json:"totalCost"`
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalExpenses  float64 `json:"totalExpenses"`
	NetProfit      float64 `json:"netProfit"`
	FarmerCount    int64   `json:"farmerCount"`
	CropCount      int64   `json:"cropCount"`
}

// CropStat merges purchase and sale aggregates for one crop.
type CropStat struct {
	CropID         primitive.ObjectID `json:"_id"`
	CropName       string             `json:"cropName"`
	Unit           Unit               `json:"unit"`
	TotalPurchased float64            `json:"totalPurchased"`
	TotalCost      float64            `json:"totalCost"`
	AvgBuyingRate  float64            `json:"avgBuyingRate"`
	TotalSold      float64            `json:"totalSold"`
	TotalRevenue   float64            `json:"totalRevenue"`
	AvgSellingRate float64            `json:"avgSellingRate"`
	Profit         float64            `json:"profit"`
}

// DashboardStats is the payload of the dashboard stats endpoint.
type DashboardStats struct {
	Overview  Overview   `json:"overview"`
	CropStats []CropStat `json:"cropStats"`
	DateRange DateRange  `json:"dateRange"`
}

// DailyPoint is one row of the daily purchases-vs-sales chart.
type DailyPoint struct {
	Date      string  `json:"date"`
	Purchases float64 `json:"purchases"`
	Sales     float64 `json:"sales"`
	Cost      float64 `json:"cost"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
}

// CropChartPoint is one bar of the crop chart: purchases per crop.
type CropChartPoint struct {
	CropID         primitive.ObjectID `json:"_id"`
	CropName       string             `json:"cropName"`
	Unit           Unit               `json:"unit"`
	TotalPurchased float64            `json:"totalPurchased"`
	TotalCost      float64            `json:"totalCost"`
}

// ChartType selects the chart aggregation.
type ChartType string

const (
	ChartDaily ChartType = "daily"
	ChartCrop  ChartType = "crop"
)

// ChartData is the payload of the dashboard charts endpoint. Data holds
// []DailyPoint for daily charts and []CropChartPoint for crop charts.
type ChartData struct {
	ChartType ChartType `json:"chartType"`
	Data      any       `json:"data"`
	DateRange DateRange `json:"dateRange"`
}
