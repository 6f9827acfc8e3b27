package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/config"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/handlers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/legacy"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/middleware"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/moneris"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/notify"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/orders"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/railway"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/shiptime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	backend := railway.NewClient(cfg.RailwayBaseURL, cfg.RailwayEmail, cfg.RailwayPassword, cfg.RailwayTokenTTL, logger)
	gateway := moneris.NewClient(cfg.MonerisBaseURL, cfg.MonerisStoreID, cfg.MonerisAPIToken, cfg.MonerisCheckoutID, cfg.MonerisCheckoutURL, logger)
	shipping := shiptime.NewClient(cfg.ShiptimeBaseURL, cfg.ShiptimeUsername, cfg.ShiptimePassword, logger)
	mailer := notify.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailReplyTo, cfg.QRSecret, logger)
	coordinator := orders.NewCoordinator(backend, gateway, mailer, logger)
	importer := legacy.NewImporter(cfg.LegacyMSSQLDSN, backend, logger)

	r := gin.Default()

	setupRoutes(r, db, cfg, backend, coordinator, shipping, importer)

	return r.Run(":" + cfg.Port)
}

func setupRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	backend *railway.Client,
	coordinator *orders.Coordinator,
	shipping *shiptime.Client,
	importer *legacy.Importer,
) {
	r.Use(middleware.DatabaseMiddleware(db))

	authHandler := handlers.NewAuthHandler(backend, cfg.JWTSecret)
	eventHandler := handlers.NewEventHandler(backend)
	orderHandler := handlers.NewOrderHandler(coordinator, backend)
	staffHandler := handlers.NewStaffHandler(backend)
	shippingHandler := handlers.NewShippingHandler(shipping)
	productHandler := handlers.NewProductHandler(shipping)
	importHandler := handlers.NewImportHandler(importer)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	public := r.Group("/v1")
	{
		public.POST("/auth/login", authHandler.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", eventHandler.List)
			eventPublic.GET("/:id", eventHandler.Get)
		}

		orderPublic := public.Group("/orders")
		{
			orderPublic.POST("", orderHandler.Create)
			orderPublic.POST("/webhook", orderHandler.Webhook)
			orderPublic.POST("/:id/confirm", orderHandler.Confirm)
		}

		public.POST("/shipping/rates", shippingHandler.Rates)
		public.GET("/products", productHandler.List)

		merch := public.Group("/merch/orders")
		{
			merch.POST("", productHandler.CreateOrder)
			merch.GET("/:id", productHandler.GetOrder)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.StaffAuthMiddleware(cfg.JWTSecret))
	{
		orderProtected := protected.Group("/orders")
		{
			orderProtected.GET("", orderHandler.Search)
			orderProtected.GET("/:id", orderHandler.Get)
			orderProtected.POST("/:id/refund", orderHandler.Refund)
		}

		protected.PUT("/events/:id/pricing", eventHandler.UpdatePricing)
		protected.GET("/staff", staffHandler.List)
		protected.GET("/shifts", staffHandler.Shifts)
		protected.GET("/dashboard/stats", staffHandler.Dashboard)
		protected.POST("/import/legacy", importHandler.Run)
	}
}
