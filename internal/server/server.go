// Package server is harbord, the back-office HTTP API the console polls.
//
// Routes mirror what api.Client calls: the sync feeds under /api/sync, the
// profile, dashboard counters and marina overview. The status route pings
// the repository so a console sees isOnline=false while the database is
// down even though the HTTP server itself answers.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/harborline/harbormaster/internal/metrics"
	"github.com/harborline/harbormaster/internal/store"
)

const (
	// Source identifies this server in status payloads.
	Source = "harbord"

	pingTimeout     = 2 * time.Second
	shutdownTimeout = 5 * time.Second
	maxPatchBody    = 16 << 10
	// pollHint is the nextSync offset reported to consoles.
	pollHint = 30 * time.Second
)

// Server serves the back-office API from a repository.
type Server struct {
	repo    store.Repository
	metrics *metrics.Metrics
	log     zerolog.Logger
	router  *mux.Router
	now     func() time.Time

	pings singleflight.Group

	mu       sync.Mutex
	lastSync time.Time
	failures int
}

// New builds a Server. A nil metrics disables request counting.
func New(repo store.Repository, m *metrics.Metrics, log zerolog.Logger) *Server {
	s := &Server{
		repo:    repo,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.observe, noStore)

	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sync/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/sync/operations", s.handleOperations).Methods("GET")
	api.HandleFunc("/sync/notifications", s.handleNotifications).Methods("GET")
	api.HandleFunc("/profile", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/profile", s.handlePatchProfile).Methods("PATCH")
	api.HandleFunc("/dashboard/stats", s.handleDashboardStats).Methods("GET")
	api.HandleFunc("/marina/overview", s.handleMarinaOverview).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return router
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.ServeOn(ctx, ln)
}

// ServeOn is Serve on an existing listener.
func (s *Server) ServeOn(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("back office listening")

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down back office")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

type pingResult struct {
	latency time.Duration
	err     error
}

// ping checks the repository once, sharing the result with concurrent
// callers, and updates the failure streak.
func (s *Server) ping(ctx context.Context) pingResult {
	v, _, _ := s.pings.Do("ping", func() (any, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pingTimeout)
		defer cancel()
		start := s.now()
		err := s.repo.Ping(pctx)
		res := pingResult{latency: s.now().Sub(start), err: err}

		s.mu.Lock()
		if err != nil {
			s.failures++
		} else {
			s.failures = 0
			s.lastSync = s.now()
		}
		s.mu.Unlock()
		return res, nil
	})
	return v.(pingResult)
}
