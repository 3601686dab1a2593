// Package api provides the HTTP host for MoodPipe.
//
// Hosts that own conversation state call the stateless step and turn
// endpoints; simple clients use the session endpoints, which keep state in
// memory and serialise turns per conversation.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BTreeMap/MoodPipe/internal/flow"
	"github.com/BTreeMap/MoodPipe/internal/metrics"
	"github.com/BTreeMap/MoodPipe/internal/responses"
	"github.com/BTreeMap/MoodPipe/internal/store"
)

// Server configuration constants
const (
	// DefaultServerAddress is the default address for the API server
	DefaultServerAddress = ":8080"
	// DefaultReadHeaderTimeout bounds reading request headers
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second
	// maxRequestBodyBytes limits JSON request bodies
	maxRequestBodyBytes = 64 << 10
	// defaultDiagnosticsLimit is used when ?limit is absent
	defaultDiagnosticsLimit = 50
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr        string
	Metrics     *metrics.Collector
	Diagnostics store.DiagnosticReader
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Opts) { o.Metrics = c }
}

// WithDiagnostics exposes recent diagnostic entries at /v1/diagnostics.
func WithDiagnostics(r store.DiagnosticReader) Option {
	return func(o *Opts) { o.Diagnostics = r }
}

// Server is the MoodPipe HTTP host.
type Server struct {
	addr        string
	orch        *flow.Orchestrator
	renderer    *responses.Renderer
	sessions    *store.InMemorySessionStore
	metrics     *metrics.Collector
	diagnostics store.DiagnosticReader
}

// NewServer creates a Server over the orchestrator and renderer.
func NewServer(orch *flow.Orchestrator, renderer *responses.Renderer, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultServerAddress}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewServer created", "addr", cfg.Addr, "metrics", cfg.Metrics != nil, "diagnostics", cfg.Diagnostics != nil)
	return &Server{
		addr:        cfg.Addr,
		orch:        orch,
		renderer:    renderer,
		sessions:    store.NewInMemorySessionStore(),
		metrics:     cfg.Metrics,
		diagnostics: cfg.Diagnostics,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /v1/reasons", s.reasonsHandler)
	mux.HandleFunc("POST /v1/steps/{step}", s.stepHandler)
	mux.HandleFunc("POST /v1/turns", s.turnHandler)
	mux.HandleFunc("POST /v1/conversations", s.createConversationHandler)
	mux.HandleFunc("POST /v1/conversations/{id}/messages", s.conversationMessageHandler)
	mux.HandleFunc("GET /v1/conversations/{id}/state", s.conversationStateHandler)
	mux.HandleFunc("DELETE /v1/conversations/{id}", s.deleteConversationHandler)
	if s.diagnostics != nil {
		mux.HandleFunc("GET /v1/diagnostics", s.diagnosticsHandler)
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
		return s.instrument(mux)
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("MoodPipe API server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown failed: %w", err)
	}
	return nil
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		s.metrics.RecordHTTPRequest(r.Method, pattern, rec.status, time.Since(start))
	})
}
