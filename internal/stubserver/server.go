// Package stubserver is a local stand-in for the simulation backend.
//
// It speaks the same HTTP contract as the real service: /health and a multipart
// /simulate that answers with one base64 PNG per implant. The percepts are mock
// renderings, good enough to exercise clients end to end without the model.
package stubserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	DefaultAddr = "127.0.0.1:8000"

	// maxUpload caps the multipart body held in memory before spilling to disk
	maxUpload = 32 << 20
)

// DefaultOrigins are the browser origins the web frontend is served from
var DefaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"https://aixiera.github.io",
}

type Server struct {
	logger   *zap.Logger
	origins  map[string]bool
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	handler  http.Handler
}

type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithOrigins replaces the CORS allow list
func WithOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = make(map[string]bool, len(origins))
		for _, o := range origins {
			s.origins[o] = true
		}
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		logger:   zap.NewNop(),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosphene_stub_requests_total",
			Help: "Requests handled by the stub backend, by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phosphene_stub_simulate_seconds",
			Help:    "Time spent rendering the three percepts for one upload",
			Buckets: prometheus.DefBuckets,
		}),
	}
	WithOrigins(DefaultOrigins...)(s)

	for _, opt := range opts {
		opt(s)
	}

	s.registry.MustRegister(s.requests, s.duration)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /simulate", s.handleSimulate)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.handler = s.withRequestID(s.withCORS(mux))
	return s
}

// Handler returns the root handler, for mounting or httptest
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry exposes the metrics the server records
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Stub backend listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Stub backend shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		s.logger.Debug("Request handled",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.origins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if origin == "" || !s.origins[origin] {
				http.Error(w, "Disallowed CORS origin", http.StatusBadRequest)
				return
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if h := r.Header.Get("Access-Control-Request-Headers"); h != "" {
				w.Header().Set("Access-Control-Allow-Headers", h)
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
