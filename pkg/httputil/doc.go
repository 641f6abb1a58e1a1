// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers JSON response helpers, query parsing, and the middleware
// chain shared by the API server.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteBadRequest(w, "missing section")
//	httputil.WriteNotFoundError(w, "route not found")
//
// # Request Parsing
//
//	// GET /api/v1/history?sections=a,b&sections=c
//	ids := httputil.ParseQueryList(r, "sections") // [a b c]
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.LoggingMiddleware,
//		httputil.CORSMiddleware(cfg.Server.CORSOrigins),
//	)(router)
//
// RequestIDMiddleware must come first: it stores the request id and a request
// scoped logger in the context, and the later middleware log through
// observability.FromContext.
//
// # Related Packages
//
//   - pkg/observability: Logger and context helpers used by the middleware
//   - pkg/api: Handlers built on these helpers
package httputil
