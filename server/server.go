package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipstream/config"
	"clipstream/db"
	"clipstream/logger"
	"clipstream/metrics"
	"clipstream/repository"
	"clipstream/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	// GORM connection handles schema migration only
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.MigrateSchema(); err != nil {
		logger.Fatal("Failed to migrate schema", logger.ErrorField(err))
	}

	// Rate limiting degrades to fail-open without Redis, so a missing
	// Redis is not fatal.
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
		logger.Info("Successfully connected to Redis")
	}

	// MinIO is only needed for clips with object-store audio sources.
	if err := storage.InitMinio(cfg); err != nil {
		logger.Warn("MinIO unavailable, object-store clips cannot be streamed", logger.ErrorField(err))
	}

	clipRepo := repository.NewMySQLClipRepository(db.DB)
	metrics.RegisterPlayCountCollector(clipRepo)

	apiHandler := NewAPIHandler(clipRepo, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)
	router.Use(rateLimitMiddleware(cfg))

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	apiHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
