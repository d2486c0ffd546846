// Package httpadapter is the service's HTTP surface: liveness, readiness
// gated on the first successful leaderboard refresh, Prometheus metrics, and
// read-only access to the published snapshot files for the dashboard.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /healthz, /readyz and /metrics, and serves the leaderboard
// and history snapshots read-only under /data/ (for example
// /data/season_current.json).
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server. ready reports whether a refresh has
// completed; dataDir is the snapshot output directory and may be empty to
// disable /data/.
func NewServer(addr string, ready sharedobs.ReadinessChecker, dataDir string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if dataDir != "" {
		mux.Handle("GET /data/", http.StripPrefix("/data/", snapshotHeaders(http.FileServer(http.Dir(dataDir)))))
	}

	return s
}

// snapshotHeaders serves only published snapshot files: no directory
// listings and no in-progress temp files. Responses are JSON that must be
// revalidated, since each refresh replaces the files.
func snapshotHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		if path.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
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
