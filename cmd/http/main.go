package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/marine-listing-service/config"
	"github.com/fekuna/marine-listing-service/internal/auth"
	"github.com/fekuna/marine-listing-service/internal/notification/dispatcher"
	"github.com/fekuna/marine-listing-service/internal/pkg/broker"
	"github.com/fekuna/marine-listing-service/internal/pkg/cache"
	"github.com/fekuna/marine-listing-service/internal/pkg/httpx"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/fekuna/marine-listing-service/internal/pkg/media"
	"github.com/fekuna/marine-listing-service/internal/pkg/postgres"
	"github.com/fekuna/marine-listing-service/internal/pkg/search"
	"github.com/fekuna/marine-listing-service/internal/vertical"

	catH "github.com/fekuna/marine-listing-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/marine-listing-service/internal/category/repository"
	catUCPkg "github.com/fekuna/marine-listing-service/internal/category/usecase"

	listingPkg "github.com/fekuna/marine-listing-service/internal/listing"
	listH "github.com/fekuna/marine-listing-service/internal/listing/handler"
	listIndexerPkg "github.com/fekuna/marine-listing-service/internal/listing/indexer"
	listRepoPkg "github.com/fekuna/marine-listing-service/internal/listing/repository"
	listUCPkg "github.com/fekuna/marine-listing-service/internal/listing/usecase"

	"github.com/fekuna/marine-listing-service/internal/moderation"
	modH "github.com/fekuna/marine-listing-service/internal/moderation/handler"
	modUCPkg "github.com/fekuna/marine-listing-service/internal/moderation/usecase"

	imagePkg "github.com/fekuna/marine-listing-service/internal/image"
	imageH "github.com/fekuna/marine-listing-service/internal/image/handler"
	imageRepoPkg "github.com/fekuna/marine-listing-service/internal/image/repository"
	imageUCPkg "github.com/fekuna/marine-listing-service/internal/image/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if err := postgres.Migrate(ctx, db); err != nil {
		appLogger.Fatal("Could not apply migrations", zap.Error(err))
	}

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Producer and the notification dispatcher
	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer kafkaProducer.Close()
	appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	notifier := dispatcher.NewDispatcher(kafkaProducer, dispatcher.Config{
		BufferSize:   cfg.Notification.BufferSize,
		MaxAttempts:  cfg.Notification.MaxAttempts,
		DrainTimeout: cfg.Notification.DrainTimeout,
	}, appLogger)
	go notifier.Start(ctx)

	// 6. Initialize Elasticsearch
	var indexer listingPkg.Indexer
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			// listings stay fully functional without the search index
			appLogger.Warn("Could not connect to Elasticsearch (Search features might be limited)", zap.Error(err))
		} else {
			esIndexer := listIndexerPkg.NewElasticIndexer(esClient, cfg.Elastic.Index)
			if err := esIndexer.EnsureIndex(ctx); err != nil {
				appLogger.Warn("Could not create listings index", zap.Error(err))
			}
			indexer = esIndexer
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Initialize Cloudinary
	var uploader *media.CloudinaryStore
	if cfg.Cloudinary.CloudName != "" {
		uploader, err = media.NewCloudinaryStore(&media.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
			Folder:    cfg.Cloudinary.Folder,
			Timeout:   cfg.Cloudinary.Timeout,
		})
		if err != nil {
			appLogger.Fatal("Could not configure Cloudinary", zap.Error(err))
		}
	}

	// 8. Initialize Repositories
	registry := vertical.New()
	attempts := cfg.Listing.ReadRetryAttempts
	catRepo := catRepoPkg.NewPGRepository(db, attempts)
	treeCache := catRepoPkg.NewRedisTreeCache(redisClient, cfg.Redis.TreeCacheTTL, appLogger)
	listRepo := listRepoPkg.NewPGRepository(db, registry, attempts)
	imageRepo := imageRepoPkg.NewPGRepository(db, attempts)

	// 9. Initialize UseCases
	transitioner := moderation.NewTransitioner(listRepo, redisClient, notifier, indexer, cfg.Redis.LockTTL, appLogger)

	catUC := catUCPkg.NewCategoryUseCase(catRepo, treeCache, appLogger)
	listUC := listUCPkg.NewListingUseCase(listRepo, catRepo, registry, transitioner, indexer,
		listUCPkg.Options{MaxImages: cfg.Listing.MaxImages}, appLogger)
	modUC := modUCPkg.NewModerationUseCase(listRepo, transitioner, registry, catUC, notifier, appLogger)

	var imageUploader imagePkg.Uploader
	if uploader != nil {
		imageUploader = uploader
	}
	imageUC := imageUCPkg.NewImageUseCase(imageRepo, listRepo, transitioner, imageUploader, cfg.Listing.MaxImages, appLogger)

	// 10. Initialize Handlers
	router := gin.New()
	router.Use(httpx.Recovery(appLogger), httpx.RequestLogger(appLogger), auth.Middleware())
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/api/v1")
	suggestLimit := httpx.RateLimiter(redisClient.Client, time.Minute, cfg.RateLimit.SuggestionsPerMinute,
		func(c *gin.Context) string { return auth.GetActor(c).UserID })

	catH.NewCategoryHandler(catUC, appLogger).Register(api, suggestLimit)
	listH.NewListingHandler(listUC, appLogger).Register(api)
	modH.NewModerationHandler(modUC, appLogger).Register(api)
	imageH.NewImageHandler(imageUC, appLogger).Register(api, uploader != nil)

	// 11. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown", zap.Error(err))
	}

	cancel()
	notifier.Wait()
	appLogger.Info("Server stopped")
}
