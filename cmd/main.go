package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"instaviz/internal/caching"
	"instaviz/internal/config"
	"instaviz/internal/handlers"
	"instaviz/internal/jobs"
	"instaviz/internal/jobs/background"
	"instaviz/internal/middleware"
	"instaviz/internal/repositories"
	"instaviz/internal/services"
	"instaviz/pkg/database"
)

const version = "1.0.0"

func main() {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT secret is required (set jwt.secret or JWT_SECRET)")
	}

	pool, err := database.NewPool(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	minioSvc, err := services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	planRepo := repositories.NewPlanRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)
	orderRepo := repositories.NewOrderRepo(pool)
	cardRepo := repositories.NewCardRepo(pool)
	profileRepo := repositories.NewProfileRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Notification queue: client side enqueues, server side delivers
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	var emailSender jobs.EmailSender
	if cfg.SMTP.Host != "" {
		emailSender = jobs.NewGomailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		emailSender = jobs.LogSender{}
	}

	notificationServer := jobs.NewNotificationServer(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 5)
	notificationMux := asynq.NewServeMux()
	jobs.RegisterNotificationHandlers(notificationMux, jobs.NewNotificationWorker(emailSender))
	go func() {
		if err := notificationServer.Run(notificationMux); err != nil {
			log.Fatalf("Notification worker failed: %v", err)
		}
	}()

	// Create services
	razorpaySvc := services.NewRazorpayService(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.BaseURL)
	notificationSvc := services.NewNotificationService(asynqClient, userRepo)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, planRepo, userRepo, razorpaySvc, cacheSvc)
	orderSvc := services.NewOrderService(orderRepo, userRepo, planRepo, subscriptionRepo, notificationSvc, cfg.Frontend.URL)
	renderSvc := services.NewCardRenderService(cfg.CardRender.URL, cfg.CardRender.APIKey, cfg.Minio.Bucket, minioSvc)
	cardSvc := services.NewCardService(cardRepo, profileRepo, userRepo, renderSvc, orderSvc, subscriptionSvc)
	planSvc := services.NewPlanService(planRepo, cacheSvc)
	profileSvc := services.NewProfileService(profileRepo, minioSvc, cfg.Minio.Bucket)
	invoiceSvc := services.NewInvoiceService(orderRepo, userRepo, minioSvc, cfg.Minio.Bucket)
	authSvc := services.NewAuthService(userRepo, cacheSvc, cfg.JWT.Secret, 3600, 30*24*3600)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	planHandlers := handlers.NewPlanHandlers(planSvc)
	profileHandlers := handlers.NewProfileHandlers(profileSvc)
	cardHandlers := handlers.NewCardHandlers(cardSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	orderHandlers := handlers.NewOrderHandlers(orderSvc, invoiceSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background scheduler: subscription expiry sweep + plan cache refresh
	scheduler := background.NewJobScheduler(subscriptionRepo, planSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	// API routes
	v1 := e.Group("/v1")

	// Authentication routes (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	// Public plan catalogue
	v1.GET("/plans", planHandlers.ListPlans)
	v1.GET("/plans/:id", planHandlers.GetPlan)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(cfg.JWT.Secret))

	// Profiles
	protected.GET("/profiles", profileHandlers.ListProfiles)
	protected.POST("/profiles", profileHandlers.CreateProfile)
	protected.GET("/profiles/:id", profileHandlers.GetProfile)
	protected.PUT("/profiles/:id", profileHandlers.UpdateProfile)
	protected.DELETE("/profiles/:id", profileHandlers.DeleteProfile)
	protected.POST("/profiles/:id/assets", profileHandlers.UploadAsset)

	// Cards
	protected.GET("/cards", cardHandlers.ListCards)
	protected.POST("/cards", cardHandlers.CreateCard)
	protected.GET("/cards/:id", cardHandlers.GetCard)
	protected.PUT("/cards/:id", cardHandlers.UpdateCard)

	// Subscriptions
	protected.GET("/subscriptions", subscriptionHandlers.ListMine)
	protected.POST("/subscriptions/purchase", subscriptionHandlers.Purchase)
	protected.GET("/subscriptions/active", subscriptionHandlers.GetActive)
	protected.POST("/subscriptions/verify", subscriptionHandlers.Verify)
	protected.POST("/subscriptions/:id/cancel", subscriptionHandlers.Cancel)

	// Orders
	protected.GET("/orders", orderHandlers.ListOrders)
	protected.POST("/orders", orderHandlers.CreateOrder)
	protected.GET("/orders/stats/summary", orderHandlers.GetOrderStats)
	protected.GET("/orders/:id", orderHandlers.GetOrder)
	protected.PUT("/orders/:id", orderHandlers.UpdateOrder)
	protected.DELETE("/orders/:id", orderHandlers.DeleteOrder)
	protected.POST("/orders/:id/invoice", orderHandlers.GetOrderInvoice)

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.POST("/plans", planHandlers.CreatePlan)
	admin.PUT("/plans/:id", planHandlers.UpdatePlan)
	admin.DELETE("/plans/:id", planHandlers.DeletePlan)
	admin.GET("/subscriptions", subscriptionHandlers.ListAll)
	admin.PATCH("/orders/:id/status", orderHandlers.UpdateOrderStatus)

	log.Printf("Instaviz server v%s starting on port %d", version, cfg.Server.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Server.Port)))
}
