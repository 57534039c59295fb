package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Eropik/analytics-e-store/internal/auth"
	"github.com/Eropik/analytics-e-store/internal/handler"
	"github.com/Eropik/analytics-e-store/internal/infrastructure"
	"github.com/Eropik/analytics-e-store/internal/metrics"
	"github.com/Eropik/analytics-e-store/internal/middleware"
	"github.com/Eropik/analytics-e-store/internal/model"
	"github.com/Eropik/analytics-e-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := infrastructure.LoadConfig(os.Getenv("APP_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := infrastructure.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := infrastructure.ConnectDatabase(cfg.DB)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := infrastructure.MigrateAllSchemas(db); err != nil {
		logger.Fatal("failed to migrate database schemas", zap.Error(err))
	}

	seedManager := infrastructure.NewSeedDataManager(db, logger)
	if err := seedManager.SeedAll(); err != nil {
		logger.Fatal("failed to setup seed data", zap.Error(err))
	}

	metrics.Register()

	// Services
	store := service.NewStore(db)
	authzService, err := service.NewAuthorizationService()
	if err != nil {
		logger.Fatal("failed to initialize authorization service", zap.Error(err))
	}
	routeService := service.NewRouteService(store)
	lifecycleEngine := service.NewLifecycleEngine(store, store, routeService, authzService, logger)
	analyticsEngine := service.NewAnalyticsEngine(store, authzService, logger)
	productService := service.NewProductService(db, authzService)
	userService := service.NewUserService(db, authzService, logger)
	authService := auth.NewService(db, cfg.JWT.Secret, cfg.JWT.TokenTTL, store, logger)

	cache := infrastructure.NewViewCache(cfg.Redis)
	defer cache.Close()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	orderHandler := handler.NewOrderHandler(lifecycleEngine, store, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsEngine, cache, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	userHandler := handler.NewUserHandler(userService, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestMetrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	r.POST("/api/auth/login", authHandler.Login)

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(authService))

	api.GET("/auth/me", authHandler.Me)

	api.GET("/orders",
		middleware.RequireCapability(authzService, model.CapOrderView),
		orderHandler.List)
	api.GET("/orders/pending",
		middleware.RequireCapability(authzService, model.CapOrderView),
		orderHandler.Pending)
	api.GET("/orders/status/:name",
		middleware.RequireCapability(authzService, model.CapOrderView),
		orderHandler.ListByStatus)
	api.GET("/orders/:id",
		middleware.RequireCapability(authzService, model.CapOrderView),
		orderHandler.Get)
	api.PUT("/orders/:id/status",
		middleware.RequireCapability(authzService, model.CapOrderUpdate),
		orderHandler.UpdateStatus)
	api.PUT("/orders/:id/logistics",
		middleware.RequireCapability(authzService, model.CapOrderUpdate),
		orderHandler.UpdateLogistics)

	api.GET("/analytics/dashboard",
		middleware.RequireCapability(authzService, model.CapAnalyticsView),
		analyticsHandler.Dashboard)
	api.GET("/analytics/analyze",
		middleware.RequireCapability(authzService, model.CapAnalyticsView),
		analyticsHandler.Analyze)
	api.GET("/analytics/:scope",
		middleware.RequireCapability(authzService, model.CapAnalyticsView),
		analyticsHandler.Aggregate)

	api.GET("/products",
		middleware.RequireCapability(authzService, model.CapProductView),
		productHandler.List)
	api.GET("/products/:id",
		middleware.RequireCapability(authzService, model.CapProductView),
		productHandler.Get)
	api.POST("/products",
		middleware.RequireCapability(authzService, model.CapProductCreate),
		productHandler.Create)

	api.GET("/users",
		middleware.RequireCapability(authzService, model.CapUserView),
		userHandler.List)
	api.GET("/users/:id",
		middleware.RequireCapability(authzService, model.CapUserView),
		userHandler.Get)
	api.PATCH("/users/:id/activation",
		middleware.RequireCapability(authzService, model.CapUserActivate),
		userHandler.SetActive)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
