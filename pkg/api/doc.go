// Package api provides the HTTP API for documentation section history.
//
// # Overview
//
// The API exposes section history to the documentation site. Every request
// goes through history.Resolver and therefore the configured source (the
// table or GitHub). It observes the same simulated latency as in-process
// callers, and a client that disconnects cancels its pending resolution.
// The table still decides which sections the list endpoint enumerates.
//
// # API Endpoints
//
//	GET /api/v1/history                     every section in the table
//	GET /api/v1/history?sections=a,b        the named sections, in request order
//	GET /api/v1/history/{section}           one section after the latency
//
// Section responses are always 200. An unknown or empty section id is not an
// error; it resolves to a null record:
//
//	{"section": "getting-started", "record": {"section_id": "getting-started", ...}}
//	{"section": "nope", "record": null}
//
// The health router, served on a separate port, carries:
//
//	GET /health, /health/live, /health/ready
//	GET /metrics
//
// # Middleware
//
// Handler wraps the router with otelhttp, request ids, panic recovery,
// request logging and CORS. Prometheus request metrics are attached with
// router.Use so they can label by route template.
//
// # Usage
//
//	server := api.NewServer(table, resolver,
//		api.WithLogger(logger),
//		api.WithMetrics(metrics),
//		api.WithCORSOrigins(cfg.Server.CORSOrigins),
//	)
//	http.ListenAndServe(":8080", server.Handler())
//
// # Related Packages
//
//   - pkg/history: Table and Resolver
//   - pkg/httputil: Response helpers and middleware
//   - pkg/observability: Logging, metrics and health checks
package api
