// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/handlers"
	"github.com/javajoker/agrimarket-backend/internal/i18n"
	"github.com/javajoker/agrimarket-backend/internal/middleware"
	"github.com/javajoker/agrimarket-backend/internal/services"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

// Services is the wired service graph shared by the HTTP layer.
type Services struct {
	DB            *gorm.DB
	Inventory     *services.InventoryService
	Orders        *services.OrderService
	Products      *services.ProductService
	Farmers       *services.FarmerService
	Admin         *services.AdminService
	Users         *services.UserService
	Notifications *services.NotificationService
}

// NewServices builds the service graph on top of an already configured
// notification service.
func NewServices(db *gorm.DB, cfg *config.Config, notifications *services.NotificationService) *Services {
	inventory := services.NewInventoryService(db)
	return &Services{
		DB:            db,
		Inventory:     inventory,
		Orders:        services.NewOrderService(db, inventory, notifications, cfg.Orders),
		Products:      services.NewProductService(db),
		Farmers:       services.NewFarmerService(db),
		Admin:         services.NewAdminService(db),
		Users:         services.NewUserService(db),
		Notifications: notifications,
	}
}

// Initialize builds the gin engine. metricsHandler may be nil when metrics
// export is disabled.
func Initialize(cfg *config.Config, svc *Services, metricsHandler http.Handler) *gin.Engine {
	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	productHandler := handlers.NewProductHandler(svc.Products)
	farmerHandler := handlers.NewFarmerHandler(svc.Farmers)
	adminHandler := handlers.NewAdminHandler(svc.Admin, svc.Orders, svc.Notifications)
	userHandler := handlers.NewUserHandler(svc.Users)

	generalLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	ordersPerMinute := max(cfg.RateLimit.OrdersPerMinute, 1)
	orderLimiter := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(ordersPerMinute)), ordersPerMinute)

	// Initialize Gin router
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		database := "up"
		if sqlDB, err := svc.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			database = "down"
		}
		c.JSON(status, gin.H{
			"status":   i18n.T(utils.GetLangFromContext(c), i18n.KeyHealthOK),
			"database": database,
			"version":  cfg.Telemetry.ServiceVersion,
		})
	})

	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(generalLimiter.Middleware())
	{
		// Product catalog
		products := v1.Group("/products")
		products.Use(middleware.OptionalAuth())
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
		}

		// Farmer directory
		farmers := v1.Group("/farmers")
		farmers.Use(middleware.OptionalAuth())
		{
			farmers.GET("", farmerHandler.GetFarmers)
			farmers.GET("/:id", farmerHandler.GetFarmer)
		}

		// Buyer orders
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", orderLimiter.UserMiddleware(), orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/cancel", orderHandler.CancelOrder)
		}

		// Buyer account
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/profile", userHandler.GetProfile)
		}

		// Admin console
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/toggle-status", adminHandler.ToggleUserStatus)
			admin.GET("/farmers", adminHandler.GetFarmers)
			admin.POST("/sms/farmer", adminHandler.SendFarmerSMS)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		utils.NotFoundResponse(c, i18n.KeyRouteNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)
		utils.ErrorResponse(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", i18n.T(lang, i18n.KeyMethodNotAllowed), nil)
	})

	return r
}
