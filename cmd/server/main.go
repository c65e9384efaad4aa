package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/cache"
	"github.com/mamadbah2/agritrade/internal/config"
	"github.com/mamadbah2/agritrade/internal/repository"
	"github.com/mamadbah2/agritrade/internal/repository/memory"
	"github.com/mamadbah2/agritrade/internal/repository/mongodb"
	"github.com/mamadbah2/agritrade/internal/repository/sheets"
	"github.com/mamadbah2/agritrade/internal/scheduler"
	"github.com/mamadbah2/agritrade/internal/server/handlers"
	"github.com/mamadbah2/agritrade/internal/server/router"
	authsvc "github.com/mamadbah2/agritrade/internal/service/auth"
	catalogsvc "github.com/mamadbah2/agritrade/internal/service/catalog"
	expensesvc "github.com/mamadbah2/agritrade/internal/service/expenses"
	reportingsvc "github.com/mamadbah2/agritrade/internal/service/reporting"
	stocksvc "github.com/mamadbah2/agritrade/internal/service/stock"
	transactionsvc "github.com/mamadbah2/agritrade/internal/service/transactions"
	whatsappsvc "github.com/mamadbah2/agritrade/internal/service/whatsapp"
	"github.com/mamadbah2/agritrade/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to init storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close storage", zap.Error(err))
		}
	}()

	dashboardCache, err := cache.NewDashboardCache(ctx, cfg.Cache)
	if err != nil {
		baseLogger.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		dashboardCache = cache.NewNoopDashboardCache()
	}
	defer func() { _ = dashboardCache.Close() }()

	loc := cfg.Reporting.Location
	ledger := stocksvc.NewLedger(store, loc, baseLogger.Named("svc.stock"))
	authService := authsvc.NewService(store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, baseLogger.Named("svc.auth"))
	catalogService := catalogsvc.NewService(store, dashboardCache, baseLogger.Named("svc.catalog"))
	transactionService := transactionsvc.NewService(store, ledger, dashboardCache, baseLogger.Named("svc.transactions"))
	expenseService := expensesvc.NewService(store, dashboardCache, baseLogger.Named("svc.expenses"))
	reportingService := reportingsvc.NewService(store, dashboardCache, loc, baseLogger.Named("svc.reporting"))
	messagingService := whatsappsvc.New(cfg.WhatsApp, baseLogger.Named("svc.whatsapp"))
	if !cfg.WhatsApp.Enabled() {
		baseLogger.Warn("whatsapp credentials missing, notifications disabled")
	}

	var exporter sheets.StockExporter = sheets.NoopExporter{}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, loc, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = sheetsRepo
	}

	dates := handlers.NewDateParser(loc)
	engine := router.New(router.Handlers{
		Auth:         handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth")),
		Crops:        handlers.NewCropHandler(catalogService, baseLogger.Named("handlers.crops")),
		Farmers:      handlers.NewFarmerHandler(catalogService, baseLogger.Named("handlers.farmers")),
		Transactions: handlers.NewTransactionHandler(transactionService, dates, baseLogger.Named("handlers.transactions")),
		Expenses:     handlers.NewExpenseHandler(expenseService, dates, baseLogger.Named("handlers.expenses")),
		Stock:        handlers.NewStockHandler(ledger, dates, baseLogger.Named("handlers.stock")),
		Dashboard:    handlers.NewDashboardHandler(reportingService, dates, baseLogger.Named("handlers.dashboard")),
		Notify:       handlers.NewNotifyHandler(messagingService, baseLogger.Named("handlers.notify")),
	}, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Tokens:         authService,
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, ledger, reportingService, exporter, messagingService, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("timezone", cfg.Reporting.Timezone))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}
	return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("mongodb"))
}
