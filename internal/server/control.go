package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/inboxtriage/internal/agent"
	"github.com/teemow/inboxtriage/internal/instrumentation"
	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/rate"
)

// ControlConfig holds the control API's listen address and access policy.
type ControlConfig struct {
	// Addr is the address to bind the control server to (e.g., ":8080").
	Addr string

	// Token is the single bearer token accepted by the agent endpoints.
	Token string

	// Limiter gates the agent endpoints. May be nil to disable limiting.
	Limiter rate.Limiter
}

// ControlServer is the HTTP control surface for the agent lifecycle:
// POST /agent/start, POST /agent/stop, GET /agent/status, plus the health
// endpoints. It carries no state of its own; every operation goes through
// the controller.
type ControlServer struct {
	controller *agent.Controller
	health     *HealthChecker
	config     ControlConfig
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	httpServer *http.Server
}

// NewControlServer creates the control server. metrics may be nil.
func NewControlServer(controller *agent.Controller, health *HealthChecker, config ControlConfig, logger *slog.Logger, metrics *instrumentation.Metrics) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = NewHealthChecker()
	}
	return &ControlServer{
		controller: controller,
		health:     health,
		config:     config,
		logger:     logging.WithComponent(logger, "server"),
		metrics:    metrics,
	}
}

type controlResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type startRequest struct {
	Mode string `json:"mode,omitempty"`
}

// Handler returns the full control API handler, including health endpoints.
func (s *ControlServer) Handler() http.Handler {
	mux := http.NewServeMux()

	s.health.RegisterHealthEndpoints(mux)

	mux.Handle("POST /agent/start", s.guard(http.HandlerFunc(s.handleStart)))
	mux.Handle("POST /agent/stop", s.guard(http.HandlerFunc(s.handleStop)))
	mux.Handle("GET /agent/status", s.guard(http.HandlerFunc(s.handleStatus)))

	return s.instrument(mux)
}

// Start starts the control server in a blocking manner.
func (s *ControlServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("starting control server", slog.String("addr", s.config.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the control server.
func (s *ControlServer) Shutdown(ctx context.Context) error {
	s.health.SetShuttingDown()
	if s.httpServer != nil {
		s.logger.Info("shutting down control server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// guard enforces bearer-token auth and rate limiting on agent endpoints.
func (s *ControlServer) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.logger.Warn("unauthorized request",
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr))
			writeJSON(w, http.StatusUnauthorized, controlResponse{Status: "error", Message: "unauthorized"})
			return
		}

		if s.config.Limiter != nil && !s.config.Limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, controlResponse{Status: "error", Message: "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *ControlServer) authorized(r *http.Request) bool {
	if s.config.Token == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.config.Token)) == 1
}

func (s *ControlServer) handleStart(w http.ResponseWriter, r *http.Request) {
	mode := agent.ModeMonitor

	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err == nil && len(body) > 0 {
		var req startRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, controlResponse{Status: "error", Message: "invalid request body"})
			return
		}
		if req.Mode != "" {
			mode = agent.Mode(req.Mode)
		}
	}

	if err := s.controller.Start(mode); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, agent.ErrAlreadyRunning) {
			status = http.StatusConflict
		}
		writeJSON(w, status, controlResponse{Status: "error", Message: err.Error()})
		return
	}

	s.logger.Info("agent start requested", logging.Mode(string(mode)))
	writeJSON(w, http.StatusOK, controlResponse{Status: "success", Message: "agent started"})
}

func (s *ControlServer) handleStop(w http.ResponseWriter, _ *http.Request) {
	if err := s.controller.Stop(); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, agent.ErrNotRunning) {
			status = http.StatusConflict
		}
		writeJSON(w, status, controlResponse{Status: "error", Message: err.Error()})
		return
	}

	s.logger.Info("agent stop requested")
	writeJSON(w, http.StatusOK, controlResponse{Status: "success", Message: "agent stopping"})
}

func (s *ControlServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records per-request metrics around the whole mux.
func (s *ControlServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
