package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/interaction-feed/internal/config"
	"github.com/rickgao/interaction-feed/internal/fanout"
	"github.com/rickgao/interaction-feed/internal/feed"
	"github.com/rickgao/interaction-feed/internal/metrics"
	"github.com/rickgao/interaction-feed/internal/model"
	"github.com/rickgao/interaction-feed/internal/source"
)

// Deps holds the collaborators of a Server. Only Source is required.
type Deps struct {
	Source      source.Source
	Metrics     *metrics.Server
	Gatherer    prometheus.Gatherer // Served on MetricsPath when set
	MetricsPath string
	Logger      *slog.Logger
}

// Server broadcasts source events to WebSocket clients.
type Server struct {
	cfg      config.ServerConfig
	deps     Deps
	logger   *slog.Logger
	hub      *fanout.Hub[[]byte]
	upgrader websocket.Upgrader
}

// New creates a Server.
func New(cfg config.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewServer(nil)
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = config.DefaultMetricsPath
	}

	return &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "server"),
		hub:    fanout.NewHub[[]byte](cfg.ClientBuffer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// No authentication; any origin may watch the feed.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get(s.cfg.WSPath, s.handleWS)
	r.Get("/health", s.handleHealth)
	if s.deps.Gatherer != nil {
		r.Handle(s.deps.MetricsPath, metrics.Handler(s.deps.Gatherer))
	}

	return r
}

// Publish encodes evt and queues it for every connected client.
func (s *Server) Publish(evt model.InteractionEvent) {
	frame, err := feed.Encode(evt)
	if err != nil {
		s.deps.Metrics.EncodeFailures.Inc()
		s.logger.Error("encode event", "identifier", evt.Identifier, "error", err)
		return
	}

	n := s.hub.Publish(frame)
	s.deps.Metrics.Published.Inc()
	s.logger.Debug("event published",
		"identifier", evt.Identifier,
		"interaction_type", evt.InteractionType,
		"clients", n,
	)
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	return s.hub.Len()
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the source and the HTTP server on ln until ctx is done or
// either fails. The source finishing on its own does not stop the server.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.deps.Source.Run(gctx, s.Publish); err != nil {
			return fmt.Errorf("source: %w", err)
		}
		s.logger.Info("source finished")
		return nil
	})

	g.Go(func() error {
		s.logger.Info("feed server listening", "addr", ln.Addr().String(), "ws_path", s.cfg.WSPath)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down feed server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by Shutdown;
		// closing the hub ends their writers.
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
