// Package api assembles the Folio HTTP API.
//
// # Overview
//
// Server owns a gorilla/mux router and wraps it in the shared middleware
// chain: request id, access logging, panic recovery, CORS and a body size
// limit. Recovery sits inside logging so a recovered panic still gets the
// request-scoped logger and an access log line. Prometheus instrumentation is installed with router.Use so the
// matched route template becomes the metric label.
//
// Routes:
//
//	GET  /                        API index
//	GET  /api/health              liveness with database reachability
//	POST /api/auth/register       create an account, returns a session token
//	POST /api/auth/login          authenticate, returns a session token
//	GET  /api/auth/me             profile of the bearer
//
// The works, users and translations packages register their own routes
// through RouteRegistrar. Unknown routes answer
// {"error": "Not Found", "message": "Cannot GET /path"}.
//
// # Usage
//
//	srv := api.NewServer(api.Options{
//		Auth:     authService,
//		Guard:    guard,
//		Throttle: throttle,
//		DB:       db,
//		Logger:   logger,
//		Routes:   []api.RouteRegistrar{worksHandlers, usersHandlers, translationHandlers},
//	})
//	http.ListenAndServe(":3000", srv)
//
// Register and login sit behind the login throttle when one is configured.
package api
