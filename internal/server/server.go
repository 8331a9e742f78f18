// Package server exposes plushie simulations over HTTP.
//
// Live sessions run over a websocket at /ws: the server creates one
// coordinator per connection, which streams snapshots of the plushie and
// accepts control commands. A few JSON endpoints complement it:
//
//	GET  /healthz        liveness probe
//	GET  /sessions       live sessions
//	POST /compile        pattern text to stitch graph
//	GET  /results        stored relaxed results
//	GET  /results/{id}   one stored result
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/plushie/pkg/pipeline"
	"github.com/matzehuels/plushie/pkg/plushie"
	"github.com/matzehuels/plushie/pkg/session"
	"github.com/matzehuels/plushie/pkg/storage"
)

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = ":8080"

const shutdownTimeout = 5 * time.Second

// Config configures a Server.
type Config struct {
	Addr string
	// Params seed every new session and every /compile request.
	Params plushie.Params
	// Store persists relaxed results. Nil disables the /results endpoints.
	Store storage.Store
	// Sessions registers live sessions. Defaults to a memory store.
	Sessions session.Store
	// Runner compiles patterns for /compile. Defaults to an uncached runner.
	Runner     *pipeline.Runner
	AutoStop   bool
	SessionTTL time.Duration
	Logger     *log.Logger
}

// Server is an http.Handler serving the routes listed in the package
// documentation.
type Server struct {
	addr       string
	params     plushie.Params
	store      storage.Store
	sessions   session.Store
	runner     *pipeline.Runner
	autoStop   bool
	sessionTTL time.Duration
	logger     *log.Logger

	upgrader websocket.Upgrader
	router   chi.Router
}

// New builds a server. Zero Params are replaced by plushie.DefaultParams.
func New(cfg Config) *Server {
	s := &Server{
		addr:       cfg.Addr,
		params:     cfg.Params,
		store:      cfg.Store,
		sessions:   cfg.Sessions,
		runner:     cfg.Runner,
		autoStop:   cfg.AutoStop,
		sessionTTL: cfg.SessionTTL,
		logger:     cfg.Logger,
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.params.Timestep == 0 {
		s.params = plushie.DefaultParams()
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = session.DefaultTTL
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 16384,
		// Viewers are served from their own origins.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/sessions", s.handleSessions)
	r.Post("/compile", s.handleCompile)
	r.Route("/results", func(r chi.Router) {
		r.Get("/", s.handleListResults)
		r.Get("/{id}", s.handleGetResult)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// Expired sessions are swept every session.DefaultCleanupInterval.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go s.sweep(ctx, session.DefaultCleanupInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
			} else if n > 0 {
				s.logger.Info("expired sessions stopped", "count", n)
			}
		}
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
