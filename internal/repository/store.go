package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

// Store is the full document-store surface the application runs on. The
// MongoDB repository is the production implementation; the memory package
// backs local runs and tests.
type Store interface {
	InsertCrop(ctx context.Context, crop *models.Crop) error
	GetCrop(ctx context.Context, id primitive.ObjectID) (*models.Crop, error)
	FindCropByName(ctx context.Context, name string) (*models.Crop, error)
	ListCrops(ctx context.Context, activeOnly bool) ([]models.Crop, error)
	UpdateCrop(ctx context.Context, crop *models.Crop) error
	CountCrops(ctx context.Context, activeOnly bool) (int64, error)

	InsertFarmer(ctx context.Context, farmer *models.Farmer) error
	GetFarmer(ctx context.Context, id primitive.ObjectID) (*models.Farmer, error)
	ListFarmers(ctx context.Context, activeOnly bool) ([]models.Farmer, error)
	UpdateFarmer(ctx context.Context, farmer *models.Farmer) error
	CountFarmers(ctx context.Context, activeOnly bool) (int64, error)

	InsertPurchase(ctx context.Context, purchase *models.Purchase) error
	GetPurchase(ctx context.Context, id primitive.ObjectID) (*models.Purchase, error)
	ListPurchases(ctx context.Context, filter models.TransactionFilter) ([]models.Purchase, error)
	UpdatePurchase(ctx context.Context, purchase *models.Purchase) error
	DeletePurchase(ctx context.Context, id primitive.ObjectID) error

	InsertSale(ctx context.Context, sale *models.Sale) error
	GetSale(ctx context.Context, id primitive.ObjectID) (*models.Sale, error)
	ListSales(ctx context.Context, filter models.TransactionFilter) ([]models.Sale, error)
	UpdateSale(ctx context.Context, sale *models.Sale) error
	DeleteSale(ctx context.Context, id primitive.ObjectID) error

	InsertExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id primitive.ObjectID) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id primitive.ObjectID) error

	LatestStockLogBefore(ctx context.Context, cropID primitive.ObjectID, before time.Time) (models.StockLog, bool, error)
	UpsertStockLog(ctx context.Context, day models.DateRange, log *models.StockLog) error
	SetStockLogRate(ctx context.Context, id primitive.ObjectID, kind models.TransactionKind, rate float64) error
	ListStockLogs(ctx context.Context, filter models.StockLogFilter) ([]models.StockLog, error)

	InsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	SumPurchases(ctx context.Context, window models.DateRange) (models.TransactionTotals, error)
	SumSales(ctx context.Context, window models.DateRange) (models.TransactionTotals, error)
	SumExpenses(ctx context.Context, window models.DateRange) (float64, error)
	PurchasesByCrop(ctx context.Context, window models.DateRange) ([]models.CropTotals, error)
	SalesByCrop(ctx context.Context, window models.DateRange) ([]models.CropTotals, error)
	PurchasesByDay(ctx context.Context, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error)
	SalesByDay(ctx context.Context, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error)

	Close(ctx context.Context) error
}

