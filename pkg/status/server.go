// Package status serves the HTTP surface used to check a running ingest:
// liveness, the packet kinds seen so far and the prometheus scrape endpoint.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Wesleyxl/pitcrew-ai/pkg/diag"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

const DefaultAddr = "127.0.0.1:9102"

// Snapshotter is the read side of diag.Tracker.
type Snapshotter interface {
	Snapshot() []diag.KindStats
}

type Server struct {
	addr     string
	kinds    Snapshotter
	gatherer prometheus.Gatherer
	log      *zap.Logger
	started  time.Time

	addrMu sync.Mutex
	bound  net.Addr
	ready  chan struct{}
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithGatherer selects the registry served on /metrics
// (default prometheus.DefaultGatherer).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

func NewServer(addr string, kinds Snapshotter, opts ...Option) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		addr:     addr,
		kinds:    kinds,
		gatherer: prometheus.DefaultGatherer,
		log:      zap.NewNop(),
		started:  time.Now(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router. It is usable without Run.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/kinds", s.handleKinds)
	r.Get("/kinds/{kind}", s.handleKind)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) Addr() net.Addr {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.bound
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("status listen %s: %w", s.addr, err)
	}
	s.addrMu.Lock()
	s.bound = ln.Addr()
	s.addrMu.Unlock()
	close(s.ready)

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("status server listening", zap.Stringer("addr", ln.Addr()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Uptime", time.Since(s.started).Truncate(time.Second).String())
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleKinds(w http.ResponseWriter, _ *http.Request) {
	stats := []diag.KindStats{}
	if s.kinds != nil {
		stats = append(stats, s.kinds.Snapshot()...)
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleKind accepts a kind name ("lap") or numeric id ("2").
func (s *Server) handleKind(w http.ResponseWriter, r *http.Request) {
	id, err := protocol.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if s.kinds != nil {
		for _, st := range s.kinds.Snapshot() {
			if st.ID == id {
				writeJSON(w, http.StatusOK, st)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("kind %s not seen", id)})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("status request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
