// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"go-catalog-api/config"
	"go-catalog-api/db"
	"go-catalog-api/handler"
	"go-catalog-api/logger"
	"go-catalog-api/repository"
	"go-catalog-api/router"
	"go-catalog-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const upstreamTimeout = 30 * time.Second

// App is the wired application: every layer built on top of one database
// handle and one Redis client.
type App struct {
	DB     *sql.DB
	Redis  *redis.Client
	Router http.Handler
}

// New wires repositories, services and handlers together. It performs no I/O.
func New(cfg *config.Config, database *sql.DB, rdb *redis.Client, presigner service.ObjectPresigner) *App {
	// --- Repositories ---
	dbx := sqlx.NewDb(database, "postgres")
	userRepo := repository.NewUserRepository(database)
	storeRepo := repository.NewStoreRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	assetRepo := repository.NewAssetRepository(dbx)
	categoryRepo := repository.NewCategoryRepository(dbx)
	ondcRepo := repository.NewOndcRepository(dbx)

	// --- Services ---
	upstream := &http.Client{Timeout: upstreamTimeout}

	authService := service.NewAuthService(database, userRepo, storeRepo, tokenRepo, cfg.JWT)
	userService := service.NewUserService(database, userRepo, storeRepo, authService)
	assetService := service.NewAssetService(assetRepo, service.NewAssetURLResolver(presigner, cfg.S3.PresignTTL))
	categoryService := service.NewCategoryService(categoryRepo, rdb, cfg.Cache.CategoryTTL)
	schemaService := service.NewSchemaService(
		service.NewAmazonSchemaProvider(cfg.Amazon, service.NewRedisSecretStore(rdb), upstream),
		service.NewOndcProjector(ondcRepo),
		service.NewShopifyProjector(service.NewShopifyTaxonomyCache(rdb, upstream, cfg.Shopify.TaxonomyURL, cfg.Shopify.CacheTTL)),
	)

	// --- Handlers ---
	r := router.NewRouter(router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		User:          handler.NewUserHandler(userService),
		Asset:         handler.NewAssetHandler(assetService),
		Category:      handler.NewCategoryHandler(categoryService),
		Schema:        handler.NewSchemaHandler(schemaService),
		Authenticator: authService,
		Stores:        userService,
	})

	return &App{DB: database, Redis: rdb, Router: r}
}

func Run() {
	logger.Init()
	logger.Log.Info("Logger initialized")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Log.Info("Configuration loaded successfully")

	ctx := context.Background()

	database, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	rdb, err := db.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer rdb.Close()

	presigner, err := service.NewS3Presigner(ctx, cfg.S3)
	if err != nil {
		logger.Log.Fatalf("Error configuring object storage: %v", err)
	}

	application := New(cfg, database, rdb, presigner)

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
