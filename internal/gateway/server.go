// Package gateway exposes the analysis pipeline over a small REST surface
// so that a remote protocol proxy can drive it.
package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jarscope/jarscope/internal/pipeline"
)

// Service is the pipeline surface the gateway exposes.
type Service interface {
	Analyze(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.AnalysisResult, error)
	DecompileOne(ctx context.Context, req pipeline.DecompileRequest) (*pipeline.DecompiledUnit, error)
	FindAndDecompile(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.CombinedResult, error)
}

// Server is the HTTP server fronting the pipeline.
type Server struct {
	svc      Service
	workRoot string
	version  string
	log      *slog.Logger
	http     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithWorkRoot restricts the cleanup endpoint to directories under root.
// Empty disables cleanup entirely.
func WithWorkRoot(root string) Option {
	return func(s *Server) { s.workRoot = root }
}

// WithVersion sets the version reported by the service-info endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a gateway server over the given pipeline service.
func NewServer(svc Service, log *slog.Logger, opts ...Option) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		svc:     svc,
		version: "dev",
		log:     log.With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the gateway's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /decompile", s.handleDecompile)
	mux.HandleFunc("POST /find_and_decompile", s.handleFindAndDecompile)
	mux.HandleFunc("DELETE /cleanup", s.handleCleanup)

	return s.logRequests(mux)
}

// Start creates an HTTP server, registers routes, and begins serving.
// It returns immediately after starting the server in a background goroutine.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go s.http.ListenAndServe()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// logRequests wraps h with per-request logging.
func (s *Server) logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("request", "method", r.Method, "path", r.URL.Path)
		h.ServeHTTP(w, r)
	})
}
