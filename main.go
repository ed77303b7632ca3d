package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/VeritasForge/snowball/config"
	"github.com/VeritasForge/snowball/internal/database"
	"github.com/VeritasForge/snowball/internal/finance"
	"github.com/VeritasForge/snowball/internal/handlers"
	"github.com/VeritasForge/snowball/internal/middleware"
	"github.com/VeritasForge/snowball/internal/repository"
	"github.com/VeritasForge/snowball/internal/services"
)

func main() {
	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for initialization
	ctx := context.Background()

	// Initialize database connection
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize quote API client
	var quoteClient *finance.Client
	if cfg.QuoteAPIURL != "" {
		quoteClient = finance.NewClientWithBaseURL(cfg.QuoteAPIKey, cfg.QuoteAPIURL)
	} else {
		quoteClient = finance.NewClient(cfg.QuoteAPIKey)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.Pool)
	accountRepo := repository.NewAccountRepository(db.Pool)
	assetRepo := repository.NewAssetRepository(db.Pool)

	// Initialize services
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret)
	portfolioSvc := services.NewPortfolioService(db.Pool, accountRepo, assetRepo, quoteClient)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	accountHandler := handlers.NewAccountHandler(portfolioSvc)
	assetHandler := handlers.NewAssetHandler(portfolioSvc)
	financeHandler := handlers.NewFinanceHandler(portfolioSvc)

	// Setup Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.Authenticate(authSvc))

	// Auth routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Everything below requires a valid access token
	authed := api.Group("")
	authed.Use(middleware.RequireAuth())

	// Account routes
	authed.GET("/accounts", accountHandler.List)
	authed.POST("/accounts", accountHandler.Create)
	authed.PATCH("/accounts/:id", accountHandler.Update)
	authed.DELETE("/accounts/:id", accountHandler.Delete)
	authed.POST("/users/sync", accountHandler.Sync)

	// Asset routes
	authed.POST("/assets", assetHandler.Create)
	authed.PATCH("/assets/:id", assetHandler.Update)
	authed.DELETE("/assets/:id", assetHandler.Delete)
	authed.POST("/assets/execute", assetHandler.Execute)
	authed.POST("/assets/update-all-prices", assetHandler.UpdateAllPrices)

	// Finance routes
	authed.GET("/finance/lookup", financeHandler.Lookup)

	// Refresh every stored quote nightly after market close
	scheduler := cron.New()
	_, err = scheduler.AddFunc("0 3 * * *", func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		count, err := portfolioSvc.RefreshQuotes(refreshCtx)
		if err != nil {
			log.Errorf("Scheduled quote refresh failed: %v", err)
			return
		}
		log.Infof("Scheduled quote refresh updated %d assets", count)
	})
	if err != nil {
		log.Fatalf("Failed to schedule quote refresh: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
