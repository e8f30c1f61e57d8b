package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wu-history-viewer/internal/observability"
	"github.com/couchcryptid/wu-history-viewer/internal/pipeline"
	"github.com/couchcryptid/wu-history-viewer/internal/report"
)

// HistoryService serves raw and normalized station history.
// *pipeline.Service implements it.
type HistoryService interface {
	History(ctx context.Context, stationID, date string) ([]byte, error)
	Observations(ctx context.Context, stationID, date string) (pipeline.Result, error)
}

// DashboardLoader drives the dashboard's load lifecycle.
// *pipeline.Loader implements it.
type DashboardLoader interface {
	Load(ctx context.Context, stationID, isoDate string) (pipeline.Snapshot, error)
	Snapshot() pipeline.Snapshot
}

// Deps are the collaborators the HTTP routes need.
type Deps struct {
	Service     HistoryService
	Loader      DashboardLoader
	Formatter   *report.Formatter
	DisplayZone string
	Ready       sharedobs.ReadinessChecker
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

// Server exposes the provider proxy, the normalized API, the dashboard,
// and the health, readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      requestLogger(deps.Logger, deps.Metrics, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: deps.Logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/wu/history", s.handleHistory)
	mux.HandleFunc("GET /api/observations", s.handleObservations)
	mux.HandleFunc("GET /{$}", s.handleDashboard)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
