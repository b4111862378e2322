package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/codeserver"
	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/handlers"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/middleware"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/storage"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg"
	"github.com/SAP-F-2025/quiz-service/pkg/auth"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewDefaultLogger().LogError(err, "Failed to load configuration")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	var (
		cacheService cache.CacheService
		locker       cache.Locker
	)
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process cache and locks", "error", err)
		cacheService = cache.NewMemoryCache()
		locker = cache.NewLocalLocker()
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, "quiz:", slogger)
		locker = cache.NewRedisLocker(redisClient, "quiz:lock:")
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	store, err := storage.New(ctx, cfg.Storage, slogger)
	if err != nil {
		logger.LogError(err, "Failed to initialize storage")
		os.Exit(1)
	}

	var external services.IdentityVerifier
	if cfg.Auth.Provider == "casdoor" {
		external = auth.NewCasdoorVerifier(cfg.Auth)
		logger.Info("Using Casdoor identity provider", "endpoint", cfg.Auth.CasdoorEndpoint)
	}

	m := metrics.New()
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:        postgres.NewRepository(db),
		Cache:       cacheService,
		Locker:      locker,
		Storage:     store,
		CodeServer:  codeserver.NewHTTPClient(cfg.CodeServer.URL, cfg.CodeServer.Timeout, slogger),
		Events:      services.NewAttemptEventService(publisher, slogger),
		Metrics:     m,
		JWT:         auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL),
		External:    external,
		Logger:      slogger,
		Validator:   validator.New(),
		LockTTL:     cfg.AttemptLockTTL,
		UserDirRoot: cfg.CodeServer.UserDirRoot,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	handlers.NewHandlerManager(serviceManager, logger, m, rateLimiter).SetupRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server exited")
}
