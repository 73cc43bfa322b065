// cmd/mock-backend/main.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/observability"
	"shopping-assistant/internal/mockserver"
	"shopping-assistant/pkg/catalog"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("MOCK_BACKEND_CONFIG"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadCatalog(path)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	cfg, err := loadConfig()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}
	gin.SetMode(cfg.Server.GinMode)

	obs := observability.New("mock-backend")
	defer obs.Shutdown()

	ctx := context.Background()

	seed, err := loadCatalog(cfg.Server.CatalogPath)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err), zap.String("path", cfg.Server.CatalogPath))
	}
	zapLog.Info("Catalog loaded", zap.Int("products", len(seed.Products)), zap.String("version", seed.Version))

	// --- Store ---
	var store mockserver.Store = mockserver.NewMemoryStore()
	if cfg.Server.Store == "postgres" {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		if err := pg.Migrate(ctx); err != nil {
			zapLog.Fatal("postgres migration failed", zap.Error(err))
		}
		store = mockserver.NewPostgresStore(pg)
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Catalog ---
	var products mockserver.Catalog = mockserver.NewMemoryCatalog(seed)
	if cfg.Server.Catalog == "elasticsearch" {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		esCatalog := mockserver.NewElasticsearchCatalog(esClient)
		if err := esCatalog.Seed(ctx, seed.Products); err != nil {
			zapLog.Fatal("elasticsearch seeding failed", zap.Error(err))
		}
		products = esCatalog
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", esClient.Index))
	}

	server := mockserver.NewServer(mockserver.Dependencies{
		Store:         store,
		Catalog:       products,
		Logger:        log,
		Observability: obs,
		RateLimit:     cfg.Server.RateLimit,
		RateBurst:     cfg.Server.RateBurst,
	})
	defer server.Close()

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.Handler(),
		ReadHeaderTimeout: config.GetDuration(cfg.Server.ReadTimeout),
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
	}

	go func() {
		zapLog.Info("Mock backend listening",
			zap.String("address", cfg.Server.Address),
			zap.String("store", cfg.Server.Store),
			zap.String("catalog", cfg.Server.Catalog),
		)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Mock backend stopped")
}
