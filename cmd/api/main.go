// main.go - The entry point and server setup.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stajtakip/dekont_verifier/configs"
	"github.com/stajtakip/dekont_verifier/internal/api"
	"github.com/stajtakip/dekont_verifier/internal/common"
	"github.com/stajtakip/dekont_verifier/internal/processor"
	"github.com/stajtakip/dekont_verifier/internal/ratelimit"
	"github.com/stajtakip/dekont_verifier/internal/storage"
)

func main() {
	// Step 0: Load configuration from environment variables
	if err := configs.LoadConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := common.NewLogger(configs.LOG_LEVEL)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	common.SetLogger(logger)

	if !configs.ENV_FILE_LOADED {
		logger.Info("no .env file, using environment variables only")
	}

	// Step 0.5: Set production mode
	if configs.GIN_MODE == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Step 1: Build the analysis engine
	analyzer, err := processor.NewAnalyzer(processor.DefaultScoringConfig())
	if err != nil {
		logger.Fatal("invalid scoring configuration", zap.Error(err))
	}

	opts := api.Options{
		Timeout:      configs.ANALYSIS_TIMEOUT,
		MaxBatchSize: configs.MAX_BATCH_SIZE,
		Workers:      configs.BATCH_WORKERS,
		AllowDebug:   configs.ALLOW_DEBUG_QUERY,
	}

	// Step 1.5: Initialize MongoDB connection (optional payment lookup)
	if configs.PaymentLookupEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := storage.NewMongoStore(ctx, configs.MONGO_URI, configs.MONGO_DB_NAME, configs.PAYMENTS_COLLECTION, logger)
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer store.Close()

		opts.Payments = storage.NewPaymentCache(store, configs.PAYMENT_CACHE_TTL)
		opts.Health = store
	} else {
		logger.Info("MONGO_URI not set, payment_id lookups disabled")
	}

	// Step 2: Initialize the Gin router
	limiter := ratelimit.NewRateLimiter(configs.RATE_LIMIT_TOKENS, configs.RATE_LIMIT_REFILL)
	router := api.NewRouter(api.NewHandler(analyzer, opts), limiter, configs.ALLOWED_ORIGINS, logger)

	// Step 3: Setup HTTP server with timeouts
	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   configs.ANALYSIS_TIMEOUT + 10*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server",
			zap.String("port", configs.PORT),
			zap.Strings("endpoints", []string{
				"POST /api/v1/analyze-dekont",
				"POST /api/v1/analyze-dekont/batch",
				"GET /health",
			}),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server exited")
}
