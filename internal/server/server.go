// Package server provides the HTTP server for the calculator service.
//
// The server exposes three surfaces:
//
//   - POST {soapPath} - the secured SOAP endpoint. Authentication is via
//     WS-Security message-level security, not HTTP
//   - GET /health - liveness probe
//   - GET {metricsPath} - Prometheus metrics (if enabled)
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sirosfoundation/go-wscalc/internal/config"
	"github.com/sirosfoundation/go-wscalc/pkg/dispatch"
	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
)

const maxRequestBytes = 1 << 20 // 1MB is generous for a calculator request

// Server is the calculator HTTP server
type Server struct {
	cfg     *config.Config
	router  *dispatch.Router
	logger  *slog.Logger
	httpSrv *http.Server
	metrics *metrics
}

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	faults   *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wscalc_requests_total",
			Help: "SOAP requests processed, by operation",
		}, []string{"operation"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wscalc_faults_total",
			Help: "SOAP fault responses produced, by fault kind",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.requests, m.faults)
	return m
}

// New creates a new server around a configured dispatch router
func New(cfg *config.Config, router *dispatch.Router, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		router:  router,
		logger:  logger,
		metrics: newMetrics(),
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)

	mux.Post(cfg.Server.SOAPPath, s.handleSOAP)
	mux.Get("/health", s.handleHealth)
	if cfg.Server.Metrics.Enabled {
		mux.Get(cfg.Server.Metrics.Path, promhttp.HandlerFor(
			s.metrics.registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the HTTP handler for tests
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpSrv.Addr, "soapPath", s.cfg.Server.SOAPPath)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleSOAP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Warn("failed to read request body", "error", err)
		s.writeFault(w, envelope.NewFault(envelope.FaultCodeClient, "unable to read request", "", ""))
		return
	}

	env, err := envelope.Parse(data)
	if err != nil {
		s.logger.Warn("malformed SOAP request", "error", err, "remote", r.RemoteAddr)
		s.writeFault(w, envelope.NewFault(envelope.FaultCodeClient, "malformed SOAP request", "", ""))
		return
	}

	resp, outcome := s.router.Route(env)

	if outcome.Operation != "" {
		s.metrics.requests.WithLabelValues(outcome.Operation).Inc()
	}
	if outcome.Fault != nil {
		s.metrics.faults.WithLabelValues(string(outcome.Fault.Kind)).Inc()
		s.writeFault(w, resp)
		return
	}

	s.writeEnvelope(w, http.StatusOK, resp)
}

// writeFault sends a fault envelope with the HTTP 500 status SOAP 1.1
// prescribes for faults
func (s *Server) writeFault(w http.ResponseWriter, env *envelope.Envelope) {
	s.writeEnvelope(w, http.StatusInternalServerError, env)
}

func (s *Server) writeEnvelope(w http.ResponseWriter, status int, env *envelope.Envelope) {
	data, err := env.Bytes()
	if err != nil {
		s.logger.Error("failed to serialize response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}
