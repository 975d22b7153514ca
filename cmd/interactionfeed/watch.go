package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/interaction-feed/internal/config"
	"github.com/rickgao/interaction-feed/internal/display"
	"github.com/rickgao/interaction-feed/internal/feed"
	"github.com/rickgao/interaction-feed/internal/metrics"
	"github.com/rickgao/interaction-feed/internal/version"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect to a feed and print events as they arrive",
	Long: `Connect to a feed endpoint and print the connection status followed by
every interaction event in arrival order.

Examples:
  interactionfeed watch --url ws://localhost:8000/ws
  interactionfeed watch --config configs/feed.example.yaml --no-color`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if url, _ := cmd.Flags().GetString("url"); url != "" {
			cfg.Feed.URL = config.NormalizeFeedURL(url)
		}
		if cfg.Feed.URL == "" {
			return errors.New("feed url is required (--url or feed.url)")
		}
		color := *cfg.Feed.Color
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color = false
		}

		// Logs go to stderr; stdout carries the feed.
		logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		logger.Info("starting watch",
			"version", version.Version,
			"commit", version.Commit,
			"url", cfg.Feed.URL,
			"reconnect", cfg.Feed.Reconnect.Enabled,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := newRegistry()
		manager := feed.NewManager(feedConfig(cfg.Feed), logger, feed.WithMetrics(metrics.NewFeed(reg)))
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			manager.Close(closeCtx)
		}()

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return display.Watch(gctx, manager, cmd.OutOrStdout(), display.Renderer{Color: color})
		})

		startMetrics(gctx, g, cfg.Metrics, reg, logger)

		if err := manager.Initialize(gctx, cfg.Feed.URL); err != nil {
			stop()
			g.Wait()
			return fmt.Errorf("initialize feed: %w", err)
		}

		err = g.Wait()
		stats := manager.Stats()
		logger.Info("watch stopped",
			"events", stats.EventsAppended,
			"decode_failures", stats.DecodeFailures,
			"connection_failures", stats.ConnectionFailures,
		)
		return err
	},
}

func init() {
	watchCmd.Flags().String("url", "", "feed WebSocket URL (overrides feed.url)")
	watchCmd.Flags().Bool("no-color", false, "disable ANSI colors")
}
