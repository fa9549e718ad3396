// Package control exposes the operator HTTP surface: health checks, the
// circuit breaker resume endpoint, metrics and the live progress feed.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/metrics"
	"github.com/yourusername/set-point/internal/runner"
)

// DatabasePinger defines the interface for checking database connectivity
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the JSON body for the health and liveness endpoints
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ReadyResponse is the JSON body for the readiness endpoint
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// BreakerStatusResponse reports the circuit breaker state
type BreakerStatusResponse struct {
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

// Server is the operator control server
type Server struct {
	serviceName string
	cfg         *config.ControlConfig
	metricsPath string
	breaker     *runner.NetworkCircuitBreaker
	db          DatabasePinger
	hub         *ProgressHub
	logger      *logrus.Logger
	server      *http.Server

	mu    sync.RWMutex
	ready bool
}

// ServerConfig holds the dependencies of the control server. DB may be
// nil when persistence is disabled.
type ServerConfig struct {
	ServiceName string
	Control     *config.ControlConfig
	MetricsPath string
	Breaker     *runner.NetworkCircuitBreaker
	DB          DatabasePinger
	Logger      *logrus.Logger
}

// NewServer creates a control server
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		serviceName: cfg.ServiceName,
		cfg:         cfg.Control,
		metricsPath: cfg.MetricsPath,
		breaker:     cfg.Breaker,
		db:          cfg.DB,
		hub:         NewProgressHub(cfg.Logger),
		logger:      cfg.Logger,
	}
}

// Hub returns the progress hub for wiring into the batch runner
func (s *Server) Hub() *ProgressHub {
	return s.hub
}

// SetReady marks the server as ready to accept traffic
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start starts the control server in the background and shuts it down
// when the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/breaker", s.handleBreakerStatus)
	mux.HandleFunc("/breaker/resume", s.handleBreakerResume)
	mux.HandleFunc("/ws/progress", s.hub.HandleWebSocket)
	if s.metricsPath != "" {
		mux.Handle(s.metricsPath, metrics.Handler())
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithFields(logrus.Fields{
			"port":    s.cfg.Port,
			"service": s.serviceName,
		}).Info("Control server starting")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Control server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the control server
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("Control server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.hub.Close()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: s.serviceName})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !s.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			allHealthy = false
			checks["database"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["database"] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  s.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}

	if allHealthy {
		response.Status = "ok"
		writeJSON(w, http.StatusOK, response)
		return
	}
	response.Status = "not_ready"
	writeJSON(w, http.StatusServiceUnavailable, response)
}

func (s *Server) handleBreakerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BreakerStatusResponse{
		State:               s.breaker.State().String(),
		ConsecutiveFailures: s.breaker.ConsecutiveFailures(),
	})
}

// handleBreakerResume is the operator's resume switch for a tripped
// breaker. Resuming a closed breaker is a no-op and still returns 200.
func (s *Server) handleBreakerResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resumedBy := r.Header.Get("X-Operator")
	if resumedBy == "" {
		resumedBy = r.RemoteAddr
	}

	wasPaused := s.breaker.IsPaused()
	s.breaker.Resume(resumedBy)

	s.logger.WithFields(logrus.Fields{
		"resumed_by": resumedBy,
		"was_paused": wasPaused,
	}).Info("Breaker resume requested")

	writeJSON(w, http.StatusOK, BreakerStatusResponse{
		State:               s.breaker.State().String(),
		ConsecutiveFailures: s.breaker.ConsecutiveFailures(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
