// Package api serves cached environments and the assembled vehicle fleet
// over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/auth"
	"github.com/WilliamArmst/testTwoStageRocket/internal/design"
	"github.com/WilliamArmst/testTwoStageRocket/internal/health"
	"github.com/WilliamArmst/testTwoStageRocket/internal/httputil"
	"github.com/WilliamArmst/testTwoStageRocket/internal/metrics"
)

// Options are the serve-mode dependencies.
type Options struct {
	Environments Environments
	Fleet        *design.Fleet
	Ready        map[string]health.Check
	Auth         auth.Config
	TrustProxy   bool // honor X-Forwarded-For / X-Real-IP
	MaxPerClient int  // concurrent environment resolutions per client (default 2)
	MaxTotal     int  // concurrent environment resolutions overall (default 16)
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, opts Options) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           newHandler(logger, opts),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			// A cache miss waits on the forecast fetch.
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

func newHandler(logger *slog.Logger, opts Options) http.Handler {
	if opts.MaxPerClient < 1 {
		opts.MaxPerClient = 2
	}
	if opts.MaxTotal < 1 {
		opts.MaxTotal = 16
	}

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(opts.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /api/v1/environment/{date}", &environmentHandler{
		envs:       opts.Environments,
		limiter:    newFetchLimiter(opts.MaxPerClient, opts.MaxTotal),
		trustProxy: opts.TrustProxy,
		logger:     logger,
		now:        time.Now,
	})
	mux.HandleFunc("GET /api/v1/vehicles", listVehiclesHandler(opts.Fleet))
	mux.HandleFunc("GET /api/v1/vehicles/{name}", vehicleHandler(opts.Fleet))
	mux.HandleFunc("GET /api/v1/motors", listMotorsHandler(opts.Fleet))

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(opts.Auth)(handler)
	handler = loggingMiddleware(logger, opts.TrustProxy)(handler)
	handler = metrics.Middleware(handler)
	return handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
