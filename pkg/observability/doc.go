// Package observability provides structured logging, Prometheus metrics,
// health checks, scheduled jobs and OpenTelemetry tracing.
//
// # Structured Logging
//
// Logger wraps logrus:
//
//	logger := observability.NewLoggerWithFormat(observability.InfoLevel, "json", os.Stdout)
//	logger.WithField("user_id", id).Info("Profile updated")
//
// Request handlers use FromContext, which adds the request id and user id
// attached by the HTTP middleware:
//
//	observability.FromContextOr(r.Context(), fallback).WithError(err).Warn("Best-effort step failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	metrics.RecordAuthEvent("login", "success")
//	metrics.RecordDBStats(db.Stats())
//
// Route labels use the mux path template, so /api/works/{workId} is one
// series regardless of the id.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker("1.0.0").
//		AddCheck("database", true, observability.DatabaseCheck(db)).
//		AddCheck("redis", false, observability.RedisCheck(redisClient))
//	observability.RegisterHealthRoutes(mux, checker)
//
// registers /health, /health/live and /health/ready. A failing critical
// check answers 503; a failing optional check reports degraded with 200.
//
// # Scheduled Jobs
//
//	scheduler := observability.NewScheduler(logger)
//	scheduler.Add("@every 15s", "db-pool-stats", func() { metrics.RecordDBStats(db.Stats()) })
//	scheduler.Start()
//
// # OpenTelemetry
//
//	tp, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "folio-api",
//		Insecure:    true,
//	}, logger)
//	defer observability.ShutdownOTel(ctx, tp, logger)
//
// # Shutdown
//
// ShutdownManager drains HTTP servers and then runs cleanup functions in
// reverse registration order under one deadline.
package observability
