package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/codenexus/storefront/internal/auth"
	"github.com/codenexus/storefront/internal/catalog"
	"github.com/codenexus/storefront/internal/config"
	"github.com/codenexus/storefront/internal/event"
	handler "github.com/codenexus/storefront/internal/handler/http"
	"github.com/codenexus/storefront/internal/repository"
	"github.com/codenexus/storefront/internal/repository/memory"
	redisrepo "github.com/codenexus/storefront/internal/repository/redis"
	"github.com/codenexus/storefront/internal/storefront"
	"github.com/codenexus/storefront/pkg/clock"
	"github.com/codenexus/storefront/pkg/database"
	"github.com/codenexus/storefront/pkg/health"
	"github.com/codenexus/storefront/pkg/httpclient"
	pkgkafka "github.com/codenexus/storefront/pkg/kafka"
	"github.com/codenexus/storefront/pkg/middleware"
	"github.com/codenexus/storefront/pkg/tracing"
)

const (
	startupTimeout   = 30 * time.Second
	shutdownTimeout  = 10 * time.Second
	readinessTimeout = 3 * time.Second
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	catalog   *catalog.Catalog
	registry  *storefront.Registry
	pool      *pgxpool.Pool
	rdb       *redis.Client
	producer  *pkgkafka.Producer
	forwarder *event.Forwarder
	traces    tracing.ShutdownFunc

	handler    http.Handler
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	traces, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.traces = traces

	healthHandler := health.NewHandler()
	healthHandler.SetTimeout(readinessTimeout)

	// Catalog.
	src, err := a.catalogSource(ctx, healthHandler)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(ctx, src)
	if err != nil {
		return err
	}
	a.catalog = cat
	logger.Info("catalog loaded",
		slog.String("source", cfg.CatalogSource),
		slog.Int("products", cat.Len()),
		slog.Int("categories", len(cat.Categories())),
	)

	// Cart snapshots.
	snapshots, err := a.snapshotRepository(ctx, healthHandler)
	if err != nil {
		return err
	}

	// Visitor stores.
	clk := clock.New()
	a.registry = storefront.NewRegistry(storefront.RegistryConfig{
		Catalog:         cat,
		Snapshots:       snapshots,
		Payments:        storefront.NewPaymentSwitch(cfg.PaymentsEnabled),
		Clock:           clk,
		Logger:          logger,
		DefaultLanguage: cfg.Language(),
		HistoryLimit:    cfg.HistoryLimit,
	})
	a.registry.Observe(event.RecordMetrics)

	// Kafka event forwarding.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.forwarder = event.NewForwarder(a.producer, cfg.EventQueueSize, logger)
		a.registry.Observe(a.forwarder.Listen)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Auth.
	authSvc := auth.NewService(
		auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry),
		clk,
		auth.Config{
			Delay:       time.Duration(cfg.AuthDelayMs) * time.Millisecond,
			AdminEmails: cfg.AdminEmails,
		},
		logger,
	)

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.Environment = cfg.Environment
	if len(cfg.CORSAllowedOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORSAllowedOrigins
	}

	a.handler = handler.NewRouter(handler.RouterConfig{
		Catalog:         cat,
		Registry:        a.registry,
		Auth:            authSvc,
		Health:          healthHandler,
		Logger:          logger,
		DefaultLanguage: cfg.Language(),
		CORS:            cors,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
		CatalogMaxAge:   time.Duration(cfg.CatalogCacheSecs) * time.Second,
		RequestTimeout:  time.Duration(cfg.RequestTimeoutSecs) * time.Second,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

func (a *App) catalogSource(ctx context.Context, hh *health.Handler) (catalog.Source, error) {
	cfg, logger := a.cfg, a.logger

	switch cfg.CatalogSource {
	case config.CatalogPostgres:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.String("database", cfg.PostgresDB),
		)

		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, "storefront"); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

		if err := database.RunMigrations(ctx, pool, catalog.Migrations(), logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		hh.Register("postgres", pool.Ping)
		return catalog.NewPostgresSource(pool), nil

	case config.CatalogRemote:
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			cfg.CircuitBreaker(),
			logger,
		)
		logger.Info("using remote catalog", slog.String("url", cfg.CatalogAPIURL))
		return catalog.NewRemoteSource(client, cfg.CatalogAPIURL), nil

	default:
		return catalog.FixtureSource{}, nil
	}
}

func (a *App) snapshotRepository(ctx context.Context, hh *health.Handler) (repository.CartSnapshotRepository, error) {
	cfg, logger := a.cfg, a.logger

	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, cart snapshots kept in memory")
		return memory.NewCartSnapshotRepository(), nil
	}

	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	hh.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	return redisrepo.NewCartSnapshotRepository(rdb, time.Duration(cfg.CartTTL)*time.Hour), nil
}

// Handler returns the HTTP handler serving the storefront API.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Registry returns the visitor store registry.
func (a *App) Registry() *storefront.Registry {
	return a.registry
}

// Run starts the HTTP server and background workers and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	if a.forwarder != nil {
		// Publishing outlives ctx so queued events can drain during shutdown.
		go a.forwarder.Run(context.WithoutCancel(ctx))
	}

	idle := time.Duration(a.cfg.StoreIdleMins) * time.Minute
	if idle > 0 {
		go sweepLoop(ctx, a.registry, idle, a.logger)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}
	}
	a.close(ctx)

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases everything init acquired. It tolerates a partial init.
func (a *App) close(ctx context.Context) {
	if a.registry != nil {
		a.registry.Close()
	}

	if a.forwarder != nil {
		if err := a.forwarder.Close(ctx); err != nil {
			a.logger.Error("event forwarder drain error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.traces != nil {
		if err := a.traces(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}

// sweepLoop evicts idle visitor stores until ctx ends.
func sweepLoop(ctx context.Context, registry *storefront.Registry, idle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval(idle))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Sweep(idle); n > 0 {
				logger.Debug("evicted idle visitor stores",
					slog.Int("evicted", n),
					slog.Int("remaining", registry.Len()),
				)
			}
		}
	}
}

func sweepInterval(idle time.Duration) time.Duration {
	if d := idle / 2; d > time.Second {
		return d
	}
	return time.Second
}
