package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultPort = 9090

	shutdownTimeout = 5 * time.Second
)

// Server exposes decode metrics over HTTP:
//   - GET /metrics: Prometheus scrape endpoint
//   - GET /stats: JSON snapshot from ServerConfig.Stats, 404 when unset
//   - GET /: plain-text list of endpoints
type Server struct {
	server   *http.Server
	port     int
	stopOnce sync.Once
}

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Port to listen on. Default: 9090
	Port int

	// Stats returns the value served at /stats. It is called once per
	// request and must be safe to call from the HTTP goroutine.
	Stats func() any
}

func (c *ServerConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
}

// NewServer creates a metrics server. Nothing listens until Start.
func NewServer(config ServerConfig) *Server {
	config.applyDefaults()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if config.Stats == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(config.Stats()); err != nil {
			logger.Warn("Failed to encode stats: %v", err)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "nfsinspect on port %d\n\n/metrics  Prometheus metrics\n/stats    decode session totals\n", config.Port)
	})

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		port: config.Port,
	}
}

func metricsHandler() http.Handler {
	if reg := GetRegistry(); IsEnabled() && reg != nil {
		return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Metrics collection is disabled", http.StatusServiceUnavailable)
	})
}

// Start listens on the configured port and serves until ctx is cancelled,
// then shuts down gracefully. A bind failure is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server failed to listen: %w", err)
	}
	logger.Info("Metrics server listening on port %d", s.port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		if err = s.server.Shutdown(ctx); err != nil {
			err = fmt.Errorf("metrics server shutdown error: %w", err)
			return
		}
		logger.Debug("Metrics server stopped")
	})
	return err
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.port
}
