package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickgao/interaction-feed/internal/config"
	"github.com/rickgao/interaction-feed/internal/database"
	"github.com/rickgao/interaction-feed/internal/metrics"
	"github.com/rickgao/interaction-feed/internal/server"
	"github.com/rickgao/interaction-feed/internal/source"
	"github.com/rickgao/interaction-feed/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the feed server",
	Long: `Run the feed server. Events come from the configured source (the device
simulator by default, or a PostgreSQL notification channel) and are broadcast
to every connected WebSocket client.

Examples:
  interactionfeed serve
  interactionfeed serve --sessions 5 --iterations 3
  interactionfeed serve --config configs/feed.example.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if configPath != "" {
			loaded, err := config.LoadWithDefaults(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if cmd.Flags().Changed("sessions") {
			cfg.Source.Simulator.Sessions, _ = cmd.Flags().GetInt("sessions")
		}
		if cmd.Flags().Changed("iterations") {
			cfg.Source.Simulator.Iterations, _ = cmd.Flags().GetInt("iterations")
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}

		logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		logger.Info("starting feed server",
			"version", version.Version,
			"commit", version.Commit,
			"addr", cfg.Server.Addr,
			"source", cfg.Source.Kind,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := newRegistry()
		sm := metrics.NewServer(reg)

		var src source.Source
		switch cfg.Source.Kind {
		case config.SourcePostgres:
			db := cfg.Source.Postgres.Database
			logger.Info("connecting to database",
				"host", db.Host,
				"port", db.Port,
				"database", db.Name,
			)
			pool, err := database.Connect(ctx, db)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			src = source.NewPGNotify(pool, cfg.Source.Postgres.Channel, logger, sm.SourceDropped.Inc)
		default:
			src = source.NewSimulator(cfg.Source.Simulator, logger)
		}

		srv := server.New(cfg.Server, server.Deps{
			Source:      src,
			Metrics:     sm,
			Gatherer:    reg,
			MetricsPath: cfg.Metrics.Path,
			Logger:      logger,
		})
		if err := srv.Run(ctx); err != nil {
			return err
		}

		logger.Info("feed server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntP("sessions", "S", config.DefaultSessions, "number of device sessions to run in parallel (simulator)")
	serveCmd.Flags().IntP("iterations", "I", config.DefaultIterations, "number of simulation rounds (simulator)")
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}
