package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/folio/pkg/api"
	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/config"
	"github.com/platinummonkey/folio/pkg/httputil"
	"github.com/platinummonkey/folio/pkg/middleware"
	"github.com/platinummonkey/folio/pkg/observability"
	"github.com/platinummonkey/folio/pkg/storage"
	"github.com/platinummonkey/folio/pkg/storage/postgres"
	"github.com/platinummonkey/folio/pkg/translations"
	"github.com/platinummonkey/folio/pkg/users"
	"github.com/platinummonkey/folio/pkg/works"
)

const rateLimitPrefix = "folio:ratelimit:auth"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLoggerWithFormat(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Folio API exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	tp, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if tp != nil {
		shutdown.RegisterShutdownFunc("otel", func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, tp, logger)
		})
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	shutdown.RegisterShutdownFunc("postgres", func(context.Context) error { return db.Close() })
	logger.WithField("database", cfg.Database.Name).Info("Connected to PostgreSQL")

	if err := postgres.Migrate(ctx, db, logger); err != nil {
		return err
	}

	userStore := postgres.NewUserStore(db)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	if cfg.SeedFile != "" {
		sf, err := postgres.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		n, err := postgres.Seed(ctx, userStore, hasher, sf, logger)
		if err != nil {
			return err
		}
		logger.WithField("created", n).Info("Seed file applied")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var redisClient *redis.Client
	rlCfg := middleware.NewRateLimitConfig(cfg.RateLimit)
	var limiter middleware.Limiter
	memLimiter := middleware.NewRateLimiter(rlCfg)
	if cfg.RateLimit.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(ctx, cfg.RateLimit.RedisURL, storage.RedisOptions{})
		if err != nil {
			return err
		}
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error { return redisClient.Close() })
		limiter = middleware.NewDistributedRateLimiter(redisClient, rlCfg, rateLimitPrefix)
		logger.Info("Using Redis-backed login throttle")
	} else {
		limiter = memLimiter
	}

	clientIPs, err := httputil.NewClientIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenService(&cfg.Auth)
	audit := auth.NewAuditLogger(logger, metrics)
	guardOpts := []middleware.AuthOption{middleware.WithAuditLogger(audit)}
	if cfg.Auth.VerifyAccountStatus {
		guardOpts = append(guardOpts, middleware.WithStatusChecker(userStore))
	}
	guard := middleware.NewAuthMiddleware(tokens, guardOpts...)

	srv := api.NewServer(api.Options{
		Auth:        auth.NewService(userStore, tokens, hasher, audit, logger),
		Guard:       guard,
		Throttle:    middleware.NewRateLimitMiddleware(limiter, rlCfg, metrics, logger).WithClientIPResolver(clientIPs),
		DB:          db,
		Metrics:     metrics,
		Logger:      logger,
		CORSOrigins: cfg.Server.AllowedOrigins,
		Routes: []api.RouteRegistrar{
			works.NewHandlers(works.NewService(postgres.NewWorkStore(db), logger), guard),
			users.NewHandlers(users.NewService(userStore, logger), guard),
			translations.NewHandlers(translations.NewService(postgres.NewTranslationStore(db), logger), guard),
		},
	})

	var handler http.Handler = srv
	if tp != nil {
		handler = otelhttp.NewHandler(srv, "folio-api")
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(api.Version).
		AddCheck("database", true, observability.DatabaseCheck(db)).
		AddCheck("schema", true, postgres.SchemaCheck(db))
	if redisClient != nil {
		// the throttle fails open, so Redis only degrades readiness
		checker.AddCheck("redis", false, observability.RedisCheck(redisClient))
	}
	observability.RegisterHealthRoutes(healthMux, checker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:        cfg.Server.HealthAddr(),
		Handler:     healthMux,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	shutdown.AddServer(apiServer)
	shutdown.AddServer(healthServer)

	scheduler := observability.NewScheduler(logger)
	if err := scheduler.Add("@every 5m", "ratelimit-cleanup", func() {
		if n := memLimiter.Cleanup(); n > 0 {
			logger.WithField("removed", n).Debug("Removed idle rate limit buckets")
		}
	}); err != nil {
		return err
	}
	if err := scheduler.Add("@every 15s", "db-pool-stats", func() {
		metrics.RecordDBStats(db.Stats())
	}); err != nil {
		return err
	}
	scheduler.Start()
	shutdown.RegisterShutdownFunc("scheduler", scheduler.Stop)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Folio API listening on %s", apiServer.Addr)
		return serve(apiServer)
	})
	g.Go(func() error {
		logger.Infof("Health and metrics listening on %s", healthServer.Addr)
		return serve(healthServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		return shutdown.Shutdown()
	})

	return g.Wait()
}

// serve treats the close caused by Shutdown as a clean exit
func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s: %w", srv.Addr, err)
	}
	return nil
}
