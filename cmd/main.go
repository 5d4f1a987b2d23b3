package main

import (
	"time"

	"aidat-service/internal/handler"
	"aidat-service/internal/middleware"
	"aidat-service/internal/model"
	"aidat-service/pkg/config"
	"aidat-service/pkg/database"
	"aidat-service/pkg/jwtutil"
	"aidat-service/pkg/logger"
	"aidat-service/pkg/mailer"
	"aidat-service/pkg/ratelimit"
	"aidat-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting aidat service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.Initialize(database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	}); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire handlers to app settings and the outbound mailer
	handler.Initialize(&cfg.App, mailer.New(cfg.SMTP, log))

	// One shared limiter instance; middleware gets it injected
	limiter := ratelimit.New()

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes - these don't belong under /api since they're for getting access to the API
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register,
		middleware.RateLimit(limiter, "register", 100, time.Hour))
	auth.POST("/forgot-password", handler.ForgotPassword,
		middleware.RateLimit(limiter, "forgot_password", 5, time.Hour))
	auth.POST("/reset-password", handler.ResetPassword,
		middleware.RateLimit(limiter, "reset_password", 10, time.Hour))

	// Invite validation and acceptance are public: the invitee has no
	// account yet
	invite := e.Group("/invite")
	invite.GET("/validate", handler.ValidateInvite,
		middleware.RateLimit(limiter, "invite_validate", 100, time.Minute))
	invite.POST("/accept", handler.AcceptInvite,
		middleware.RateLimit(limiter, "invite_accept", 10, time.Hour))

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Profile - any authenticated role
	users := api.Group("/users")
	users.GET("/profile", handler.GetProfile)
	users.PATCH("/profile", handler.UpdateProfile)
	users.POST("/change-password", handler.ChangePassword)

	// Apartment management - admin only
	apartments := api.Group("/apartments")
	apartments.Use(middleware.RequireRole(model.RoleAdmin))
	apartments.GET("", handler.ListApartments)
	apartments.POST("", handler.CreateApartment)
	apartments.GET("/:id", handler.GetApartment)
	apartments.PATCH("/:id", handler.UpdateApartment)
	apartments.DELETE("/:id", handler.DeleteApartment)
	apartments.POST("/:id/units", handler.CreateUnit)
	apartments.PATCH("/:id/units/:unitId", handler.UpdateUnit)
	apartments.DELETE("/:id/units/:unitId", handler.DeleteUnit)
	apartments.POST("/:id/invites", handler.CreateInvites)
	apartments.GET("/:id/dues", handler.ListDues)
	apartments.POST("/:id/dues", handler.CreateDue)
	apartments.GET("/:id/dues/:dueId/summary", handler.DueSummary)
	apartments.GET("/:id/payments", handler.ListApartmentPayments)

	// Payment review - admin only
	api.PATCH("/payments/:id", handler.ReviewPayment, middleware.RequireRole(model.RoleAdmin))

	// Resident payment surface
	payments := api.Group("/payments")
	payments.Use(middleware.RequireRole(model.RoleResident))
	payments.GET("", handler.MyPayments)
	payments.POST("", handler.UploadReceipt)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
