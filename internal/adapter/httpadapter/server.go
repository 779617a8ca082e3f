// Package httpadapter serves the processor over HTTP: script runs, health, readiness
// and metrics.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/processor"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxScriptBytes bounds a POST /v1/run body.
const maxScriptBytes = 1 << 20

// ScriptRunner runs one command script. *processor.Runner satisfies it.
type ScriptRunner interface {
	RunScript(ctx context.Context, script string, phase command.Phase) (*processor.Summary, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes script runs plus health, readiness, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	runner     ScriptRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/run, /healthz, /readyz, and /metrics
// routes. runTimeout bounds a single script run and the response write.
func NewServer(addr string, runner ScriptRunner, runTimeout time.Duration, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: runTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		logger: logger,
	}

	mux.HandleFunc("POST /v1/run", s.handleRun(runTimeout))
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(runner))
	mux.Handle("GET /metrics", promhttp.Handler())

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

// handleRun runs the request body as a script. ?mode=discovery selects the DISCOVERY
// phase. The summary is returned even when commands fail; a run stopped by the
// failure threshold answers 422.
func (s *Server) handleRun(timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phase := command.PhaseRun
		switch mode := strings.ToLower(r.URL.Query().Get("mode")); mode {
		case "", "run":
		case "discovery":
			phase = command.PhaseDiscovery
		default:
			writeError(w, http.StatusBadRequest, "unknown mode "+mode)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScriptBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "script exceeds 1 MiB")
				return
			}
			writeError(w, http.StatusBadRequest, "read script: "+err.Error())
			return
		}
		if strings.TrimSpace(string(body)) == "" {
			writeError(w, http.StatusBadRequest, "script is empty")
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		summary, err := s.runner.RunScript(ctx, string(body), phase)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, summary)
		case errors.Is(err, processor.ErrFailureThreshold):
			writeJSON(w, http.StatusUnprocessableEntity, summary)
		case errors.Is(err, context.DeadlineExceeded):
			s.logger.Warn("script run timed out", "timeout", timeout)
			writeError(w, http.StatusGatewayTimeout, err.Error())
		case summary == nil:
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("script run failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
