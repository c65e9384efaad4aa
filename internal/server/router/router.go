package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/server/handlers"
	"github.com/mamadbah2/agritrade/internal/server/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Crops        *handlers.CropHandler
	Farmers      *handlers.FarmerHandler
	Transactions *handlers.TransactionHandler
	Expenses     *handlers.ExpenseHandler
	Stock        *handlers.StockHandler
	Dashboard    *handlers.DashboardHandler
	Notify       *handlers.NotifyHandler
}

// Options tunes cross-cutting middleware.
type Options struct {
	AllowedOrigins []string
	Tokens         middleware.TokenParser
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(opts.AllowedOrigins))
	r.Use(middleware.RequestLogger(logger))

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)

	private := api.Group("")
	private.Use(middleware.Auth(opts.Tokens, logger))
	private.GET("/auth/me", h.Auth.Me)

	crops := private.Group("/crops")
	crops.GET("", h.Crops.List)
	crops.POST("", h.Crops.Create)
	crops.GET("/:id", h.Crops.Get)
	crops.PUT("/:id", h.Crops.Update)
	crops.DELETE("/:id", h.Crops.Delete)

	farmers := private.Group("/farmers")
	farmers.GET("", h.Farmers.List)
	farmers.POST("", h.Farmers.Create)
	farmers.GET("/:id", h.Farmers.Get)
	farmers.PUT("/:id", h.Farmers.Update)
	farmers.DELETE("/:id", h.Farmers.Delete)

	purchases := private.Group("/purchases")
	purchases.GET("", h.Transactions.ListPurchases)
	purchases.POST("", h.Transactions.CreatePurchase)
	purchases.GET("/:id", h.Transactions.GetPurchase)
	purchases.PUT("/:id", h.Transactions.UpdatePurchase)
	purchases.DELETE("/:id", h.Transactions.DeletePurchase)

	sales := private.Group("/sales")
	sales.GET("", h.Transactions.ListSales)
	sales.POST("", h.Transactions.CreateSale)
	sales.GET("/:id", h.Transactions.GetSale)
	sales.PUT("/:id", h.Transactions.UpdateSale)
	sales.DELETE("/:id", h.Transactions.DeleteSale)

	expenses := private.Group("/expenses")
	expenses.GET("", h.Expenses.List)
	expenses.POST("", h.Expenses.Create)
	expenses.GET("/:id", h.Expenses.Get)
	expenses.PUT("/:id", h.Expenses.Update)
	expenses.DELETE("/:id", h.Expenses.Delete)

	stock := private.Group("/stock")
	stock.GET("", h.Stock.All)
	stock.GET("/history/:cropId", h.Stock.History)
	stock.GET("/:cropId", h.Stock.Crop)

	dashboard := private.Group("/dashboard")
	dashboard.GET("/stats", h.Dashboard.Stats)
	dashboard.GET("/charts", h.Dashboard.Charts)

	private.POST("/notify", middleware.RequireRole(models.RoleAdmin), h.Notify.SendMessage)

	logger.Info("router initialized")
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
