package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/interaction-feed/internal/aggregate"
	"github.com/rickgao/interaction-feed/internal/config"
	"github.com/rickgao/interaction-feed/internal/database"
	"github.com/rickgao/interaction-feed/internal/metrics"
	"github.com/rickgao/interaction-feed/internal/source"
	"github.com/rickgao/interaction-feed/internal/version"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Publish simulated events to PostgreSQL",
	Long: `Run the device simulator and publish every event with pg_notify on
source.postgres.channel. A feed server started with source.kind postgres
relays them to its clients. Events are published by a pool of workers.

Examples:
  interactionfeed aggregate --config configs/feed.example.yaml
  interactionfeed aggregate -c feed.yaml -S 5 -I 3 -W 4`,
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
		if cmd.Flags().Changed("threads") {
			cfg.Aggregate.Workers, _ = cmd.Flags().GetInt("threads")
		}
		if err := cfg.ValidateAggregate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}

		logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		db := cfg.Source.Postgres.Database
		logger.Info("starting aggregate",
			"version", version.Version,
			"workers", cfg.Aggregate.Workers,
			"sessions", cfg.Source.Simulator.Sessions,
			"iterations", cfg.Source.Simulator.Iterations,
			"channel", cfg.Source.Postgres.Channel,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("connecting to database",
			"host", db.Host,
			"port", db.Port,
			"database", db.Name,
		)
		// One connection per worker so publishes do not queue on the pool.
		db.MaxConns = max(db.MaxConns, cfg.Aggregate.Workers)
		pool, err := database.Connect(ctx, db)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		reg := newRegistry()
		agg := aggregate.New(
			cfg.Aggregate,
			database.NewNotifier(pool, cfg.Source.Postgres.Channel),
			metrics.NewAggregate(reg),
			logger,
		)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		g, gctx := errgroup.WithContext(runCtx)
		startMetrics(gctx, g, cfg.Metrics, reg, logger)
		g.Go(func() error {
			// The metrics listener stops once the simulator has run out.
			defer cancel()
			return agg.Run(gctx, source.NewSimulator(cfg.Source.Simulator, logger))
		})
		if err := g.Wait(); err != nil {
			return err
		}

		stats := agg.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "published %d events (%d failed)\n", stats.Published, stats.Failed)
		return nil
	},
}

func init() {
	aggregateCmd.Flags().IntP("sessions", "S", config.DefaultSessions, "number of device sessions to run in parallel")
	aggregateCmd.Flags().IntP("iterations", "I", config.DefaultIterations, "number of simulation rounds")
	aggregateCmd.Flags().IntP("threads", "W", config.DefaultAggregateWorkers, fmt.Sprintf("number of publishing workers (1-%d)", config.MaxWorkers))
}
