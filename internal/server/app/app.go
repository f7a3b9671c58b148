package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/server/config"
	"github.com/utafrali/StorefrontGo/internal/server/event"
	handler "github.com/utafrali/StorefrontGo/internal/server/handler/http"
	redisrepo "github.com/utafrali/StorefrontGo/internal/server/repository/redis"
	"github.com/utafrali/StorefrontGo/internal/server/service"
	"github.com/utafrali/StorefrontGo/pkg/health"
	pkgkafka "github.com/utafrali/StorefrontGo/pkg/kafka"
)

// App wires together all dependencies and runs the storefront backend.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize Redis client.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	recordTTL := time.Duration(cfg.RecordTTL) * time.Hour
	cartRepo := redisrepo.NewCartRepository(rdb, recordTTL)
	wishlistRepo := redisrepo.NewWishlistRepository(rdb, recordTTL)
	catalog := redisrepo.NewProductCatalog(rdb)

	if cfg.CatalogSeedFile != "" {
		if err := seedCatalog(ctx, catalog, cfg.CatalogSeedFile, logger); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}

	eventProducer := event.NewProducer(producer, logger)
	cartService := service.NewCartService(cartRepo, catalog, eventProducer, logger, recordTTL)
	wishlistService := service.NewWishlistService(wishlistRepo, catalog, cartService, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(cartService, wishlistService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	// Close Redis client.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// seedCatalog loads a JSON array of products from the given file into the
// catalog. Used in development and integration environments where no
// upstream product service feeds the catalog.
func seedCatalog(ctx context.Context, catalog *redisrepo.ProductCatalog, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for i := range products {
		if products[i].ID == "" {
			return fmt.Errorf("seed product at index %d has no id", i)
		}
		if err := catalog.Put(ctx, &products[i]); err != nil {
			return fmt.Errorf("seed product %s: %w", products[i].ID, err)
		}
	}

	logger.Info("catalog seeded",
		slog.String("file", path),
		slog.Int("products", len(products)),
	)

	return nil
}
