package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/noahsabaj/hearth-docs/pkg/history"
	"github.com/noahsabaj/hearth-docs/pkg/httputil"
	"github.com/noahsabaj/hearth-docs/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server represents the history API server
type Server struct {
	router      *mux.Router
	table       *history.Table
	resolver    *history.Resolver
	logger      *observability.Logger
	metrics     *observability.Metrics
	corsOrigins []string
	serviceName string
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *observability.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables Prometheus request metrics
func WithMetrics(metrics *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithCORSOrigins sets the origins allowed to call the API from a browser
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithServiceName sets the otelhttp operation name
func WithServiceName(name string) ServerOption {
	return func(s *Server) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// NewServer creates a new API server over table. resolver performs the
// delayed single-section lookups.
func NewServer(table *history.Table, resolver *history.Resolver, opts ...ServerOption) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		table:       table,
		resolver:    resolver,
		logger:      observability.NewLogger(observability.InfoLevel, io.Discard),
		serviceName: "hearth-docs",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, "route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteMethodNotAllowed(w, "method not allowed")
	})

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	handlers := NewHistoryHandlers(s.table, s.resolver)
	handlers.RegisterRoutes(s.router)
}

// ServeHTTP implements http.Handler without the middleware chain
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the router wrapped in the full middleware chain
func (s *Server) Handler() http.Handler {
	chain := httputil.Chain(
		httputil.RequestIDMiddleware(s.logger),
		httputil.RecoveryMiddleware,
		httputil.LoggingMiddleware,
		httputil.CORSMiddleware(s.corsOrigins),
	)
	return otelhttp.NewHandler(chain(s.router), s.serviceName)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}

// NewHealthRouter builds the router for the health/metrics port
func NewHealthRouter(checker *observability.HealthChecker, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()
	observability.RegisterHealthRoutes(router, checker)
	if gatherer != nil {
		router.Handle("/metrics", observability.MetricsHandler(gatherer)).Methods(http.MethodGet)
	}
	return router
}
