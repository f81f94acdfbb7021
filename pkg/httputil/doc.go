// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error
// responses, path and query parsing, and the middleware chain every request
// passes through.
//
// # Response Helpers
//
// Every error body has the shape {"error": ..., "message": ..., "details"?: {...}}:
//
//	httputil.WriteErrorBody(w, http.StatusUnauthorized, "Invalid token", "The provided token is invalid")
//	httputil.WriteAppError(w, r, err, "Login failed")
//
// WriteAppError renders any error implementing APIError with its own status
// and falls back to a logged 500 otherwise.
//
// # Request Parsing
//
//	if !httputil.ParseJSONOrError(w, r, &req) { return }
//	workID, ok := httputil.ParsePathUUIDOrError(w, r, "workId")
//	page, err := httputil.ParsePage(r, 20, 100)
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.CORSMiddleware(origins),
//		httputil.MaxBytesMiddleware(1<<20),
//	)(router)
package httputil
