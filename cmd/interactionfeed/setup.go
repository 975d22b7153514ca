package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/interaction-feed/internal/config"
	"github.com/rickgao/interaction-feed/internal/connection"
	"github.com/rickgao/interaction-feed/internal/feed"
	"github.com/rickgao/interaction-feed/internal/metrics"
)

// loadConfig reads path, or returns validated defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadAndValidate(path)
}

// newLogger builds the process logger from the log section.
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

// newRegistry returns a registry carrying the Go runtime and process collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// startMetrics serves g's metrics on cfg.Port inside eg until ctx is done.
// Port 0 disables the listener.
func startMetrics(ctx context.Context, eg *errgroup.Group, cfg config.MetricsConfig, g prometheus.Gatherer, logger *slog.Logger) {
	if cfg.Port <= 0 {
		return
	}
	r := chi.NewRouter()
	r.Handle(cfg.Path, metrics.Handler(g))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg.Go(func() error {
		logger.Info("metrics listening", "addr", srv.Addr, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// feedConfig maps the feed section onto the manager config.
func feedConfig(cfg config.FeedConfig) feed.Config {
	return feed.Config{
		Client: connection.ClientConfig{
			URL:              cfg.URL,
			HandshakeTimeout: cfg.HandshakeTimeout,
			PingInterval:     cfg.PingInterval,
			PingTimeout:      cfg.PingTimeout,
			WriteTimeout:     cfg.WriteTimeout,
			BufferSize:       cfg.BufferSize,
		},
		Reconnect: feed.ReconnectConfig{
			Enabled:   cfg.Reconnect.Enabled,
			BaseDelay: cfg.Reconnect.BaseDelay,
			MaxDelay:  cfg.Reconnect.MaxDelay,
		},
		UpdateBuffer: cfg.UpdateBuffer,
	}
}
