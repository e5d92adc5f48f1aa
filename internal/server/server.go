// Package server exposes lag analyses over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/pairwise-alpha/internal/logger"
	"github.com/rxtech-lab/pairwise-alpha/internal/metrics"
	"github.com/rxtech-lab/pairwise-alpha/internal/version"
)

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics records analyses in m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithDefaults sets the configuration query parameters are applied on top of.
func WithDefaults(cfg enginev1.BacktestEngineV1Config) Option {
	return func(s *Server) {
		s.defaults = cfg
	}
}

// WithRunTimeout bounds the duration of one analysis.
func WithRunTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.runTimeout = timeout
	}
}

// Server answers analysis requests. Each request runs on its own engine instance.
type Server struct {
	source     engine.PriceSource
	log        *logger.Logger
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	defaults   enginev1.BacktestEngineV1Config
	runTimeout time.Duration
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates a server that fetches prices from source.
func NewServer(source engine.PriceSource, opts ...Option) *Server {
	s := &Server{
		source:     source,
		log:        logger.NewNopLogger(),
		defaults:   enginev1.DefaultConfig(),
		runTimeout: 2 * time.Minute,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()

	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/analysis/charts/{chart}", s.handleChart).Methods(http.MethodGet)
	api.HandleFunc("/schema", s.handleSchema).Methods(http.MethodGet)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return router
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", listener.Addr().String()))

		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	schema, err := enginev1.NewBacktestEngineV1WithLogger(s.log).GetConfigSchema()
	if err != nil {
		writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(schema))
}

// writeJSON encodes v before writing the header, so an unencodable value becomes a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: fmt.Sprintf("failed to encode response: %v", err)})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
