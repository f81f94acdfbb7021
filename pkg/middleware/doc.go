// Package middleware provides HTTP middleware for authentication, role
// gating and login throttling.
//
// # Middleware Components
//
// AuthMiddleware: bearer token authentication
//
//	guard := middleware.NewAuthMiddleware(tokens, middleware.WithAuditLogger(al))
//	router.Handle("/api/auth/me", guard.Handler(meHandler))
//	// Verifies the token, attaches *auth.Identity to the request context
//
// RequireRole: session role gate, mounted behind AuthMiddleware
//
//	router.Handle("/api/works", guard.Handler(guard.RequireRole(auth.RoleAuthor)(create)))
//
// RateLimitMiddleware: per-client throttle over a Limiter
//
//	limiter := middleware.NewRateLimiter(middleware.NewRateLimitConfig(cfg.RateLimit))
//	throttle := middleware.NewRateLimitMiddleware(limiter, rc, metrics, logger)
//
// Buckets are keyed on the connecting peer. Behind a load balancer, pass a
// resolver so forwarding headers from trusted proxies are honoured:
//
//	ips, err := httputil.NewClientIPResolver(cfg.Server.TrustedProxies)
//	throttle = throttle.WithClientIPResolver(ips)
//
// DistributedRateLimiter: Redis fixed-window Limiter shared across replicas
//
//	limiter := middleware.NewDistributedRateLimiter(redisClient, rc, "")
//
// # Response Bodies
//
// Failures are rendered through httputil.WriteAppError, so the guard answers
// with the same {error, message} bodies as the handlers: 401 for a missing,
// invalid or expired token, 403 for a role mismatch or inactive account.
//
// # Related Packages
//
//   - pkg/auth: Token verification and error taxonomy
//   - pkg/httputil: Client IP extraction and error rendering
package middleware
