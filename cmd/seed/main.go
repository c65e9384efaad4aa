package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository"
	"github.com/mamadbah2/agritrade/internal/repository/mongodb"
	"github.com/mamadbah2/agritrade/internal/service/auth"
	"github.com/mamadbah2/agritrade/internal/service/catalog"
	"github.com/mamadbah2/agritrade/internal/service/expenses"
	"github.com/mamadbah2/agritrade/internal/service/stock"
	"github.com/mamadbah2/agritrade/internal/service/transactions"
	"github.com/mamadbah2/agritrade/pkg/logger"
)

type depsKey struct{}

type deps struct {
	store  repository.Store
	logger *zap.Logger
}

// seedOptions controls what gets written.
type seedOptions struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	Start         time.Time
	Location      *time.Location
}

type seedSummary struct {
	Crops, Farmers, Purchases, Sales, Expenses int
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Load sample crops, farmers, transactions and an admin account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mongodb-uri",
				Usage:   "MongoDB connection string",
				Value:   "mongodb://localhost:27017",
				EnvVars: []string{"MONGODB_URI"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "MongoDB database name",
				Value:   "agritrade",
				EnvVars: []string{"MONGODB_DB_NAME"},
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "Timezone used for transaction dates",
				Value:   "Asia/Kolkata",
				EnvVars: []string{"TIMEZONE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: openStore,
		After:  closeStore,
		Commands: []*cli.Command{
			{
				Name:  "sample",
				Usage: "Seed the sample data set into an empty database",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "admin-username", Value: "admin", EnvVars: []string{"SEED_ADMIN_USERNAME"}},
					&cli.StringFlag{Name: "admin-email", Value: "admin@agritrade.com", EnvVars: []string{"SEED_ADMIN_EMAIL"}},
					&cli.StringFlag{Name: "admin-password", Value: "admin123", EnvVars: []string{"SEED_ADMIN_PASSWORD"}},
					&cli.TimestampFlag{
						Name:   "start",
						Usage:  "First transaction day (YYYY-MM-DD)",
						Layout: "2006-01-02",
						Value:  cli.NewTimestamp(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)),
					},
				},
				Action: runSample,
			},
			{
				Name:  "admin",
				Usage: "Create an admin account only",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"SEED_ADMIN_PASSWORD"}},
				},
				Action: runAdmin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openStore(c *cli.Context) error {
	lg, err := logger.New(c.String("log-level"))
	if err != nil {
		return err
	}

	store, err := mongodb.NewMongoDBRepository(c.Context, c.String("mongodb-uri"), c.String("db"), lg.Named("mongodb"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	c.Context = context.WithValue(c.Context, depsKey{}, &deps{store: store, logger: lg})
	return nil
}

func closeStore(c *cli.Context) error {
	if d, ok := c.Context.Value(depsKey{}).(*deps); ok && d != nil {
		_ = d.logger.Sync()
		return d.store.Close(context.Background())
	}
	return nil
}

func contextDeps(c *cli.Context) (repository.Store, *zap.Logger, error) {
	d, ok := c.Context.Value(depsKey{}).(*deps)
	if !ok || d == nil {
		return nil, nil, errors.New("store not initialised")
	}
	return d.store, d.logger, nil
}

func runSample(c *cli.Context) error {
	store, lg, err := contextDeps(c)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(c.String("timezone"))
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, loc)
	if ts := c.Timestamp("start"); ts != nil {
		start = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
	}

	summary, err := seedSample(c.Context, store, seedOptions{
		AdminUsername: c.String("admin-username"),
		AdminEmail:    c.String("admin-email"),
		AdminPassword: c.String("admin-password"),
		Start:         start,
		Location:      loc,
	}, lg)
	if err != nil {
		return err
	}

	lg.Info("seed data created",
		zap.Int("crops", summary.Crops),
		zap.Int("farmers", summary.Farmers),
		zap.Int("purchases", summary.Purchases),
		zap.Int("sales", summary.Sales),
		zap.Int("expenses", summary.Expenses),
		zap.String("admin", c.String("admin-username")))
	return nil
}

func runAdmin(c *cli.Context) error {
	store, lg, err := contextDeps(c)
	if err != nil {
		return err
	}
	accounts := auth.NewService(store, "", time.Hour, lg.Named("svc.auth"))
	user, err := accounts.CreateUser(c.Context, auth.RegisterInput{
		Username: c.String("username"),
		Email:    c.String("email"),
		Password: c.String("password"),
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	lg.Info("admin created", zap.String("username", user.Username))
	return nil
}

// seedSample writes the sample data set through the services so stock
// snapshots are computed the same way as for API writes. It refuses to run
// against a database that already holds crops.
func seedSample(ctx context.Context, store repository.Store, opts seedOptions, lg *zap.Logger) (seedSummary, error) {
	var summary seedSummary
	if lg == nil {
		lg = zap.NewNop()
	}

	existing, err := store.CountCrops(ctx, false)
	if err != nil {
		return summary, fmt.Errorf("count crops: %w", err)
	}
	if existing > 0 {
		return summary, fmt.Errorf("%w: database already holds %d crops", models.ErrConflict, existing)
	}

	accounts := auth.NewService(store, "", time.Hour, lg.Named("svc.auth"))
	admin, err := accounts.CreateUser(ctx, auth.RegisterInput{
		Username: opts.AdminUsername,
		Email:    opts.AdminEmail,
		Password: opts.AdminPassword,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return summary, fmt.Errorf("create admin: %w", err)
	}

	catalogSvc := catalog.NewService(store, nil, lg.Named("svc.catalog"))
	cropIDs := make([]primitive.ObjectID, 0, len(sampleCrops))
	for _, sc := range sampleCrops {
		crop, err := catalogSvc.CreateCrop(ctx, catalog.CropInput{
			CropName:    sc.name,
			Unit:        sc.unit,
			Description: sc.description,
			MarketRate:  sc.marketRate,
		})
		if err != nil {
			return summary, fmt.Errorf("create crop %s: %w", sc.name, err)
		}
		cropIDs = append(cropIDs, crop.ID)
		summary.Crops++
	}

	farmerIDs := make([]primitive.ObjectID, 0, len(sampleFarmers))
	for _, sf := range sampleFarmers {
		farmer, err := catalogSvc.CreateFarmer(ctx, sf)
		if err != nil {
			return summary, fmt.Errorf("create farmer %s: %w", sf.Name, err)
		}
		farmerIDs = append(farmerIDs, farmer.ID)
		summary.Farmers++
	}

	day := func(offset int) time.Time {
		return opts.Start.AddDate(0, 0, offset).Add(10 * time.Hour)
	}

	ledger := stock.NewLedger(store, opts.Location, lg.Named("svc.stock"))
	trades := transactions.NewService(store, ledger, nil, lg.Named("svc.transactions"))
	for _, sp := range samplePurchases {
		_, err := trades.CreatePurchase(ctx, transactions.PurchaseInput{
			CropID:        cropIDs[sp.crop],
			FarmerID:      farmerIDs[sp.farmer],
			Quantity:      sp.quantity,
			Rate:          sp.rate,
			PaymentStatus: sp.status,
			Notes:         sp.notes,
			PurchaseDate:  day(sp.day),
		}, admin.ID)
		if err != nil {
			return summary, fmt.Errorf("create purchase: %w", err)
		}
		summary.Purchases++
	}

	for _, ss := range sampleSales {
		_, err := trades.CreateSale(ctx, transactions.SaleInput{
			CropID:        cropIDs[ss.crop],
			BuyerName:     ss.buyer,
			VehicleNumber: ss.vehicleNumber,
			Quantity:      ss.quantity,
			Rate:          ss.rate,
			PaymentStatus: ss.status,
			Notes:         ss.notes,
			SaleDate:      day(ss.day),
		}, admin.ID)
		if err != nil {
			return summary, fmt.Errorf("create sale: %w", err)
		}
		summary.Sales++
	}

	costs := expenses.NewService(store, nil, lg.Named("svc.expenses"))
	for _, se := range sampleExpenses {
		expense := models.Expense{
			Date:        day(se.day),
			Category:    se.category,
			Description: se.description,
			Amount:      se.amount,
			Notes:       se.notes,
		}
		if se.crop >= 0 {
			id := cropIDs[se.crop]
			expense.CropID = &id
		}
		if _, err := costs.Create(ctx, expense, admin.ID); err != nil {
			return summary, fmt.Errorf("create expense: %w", err)
		}
		summary.Expenses++
	}

	return summary, nil
}
