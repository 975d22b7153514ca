// Package aggregate publishes events from a source through a pool of
// workers, each handing encoded events to a Publisher. The aggregate command
// uses it to push simulator output into a PostgreSQL notification channel
// that a serve instance with the postgres source relays to clients.
package aggregate

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/interaction-feed/internal/config"
	"github.com/rickgao/interaction-feed/internal/feed"
	"github.com/rickgao/interaction-feed/internal/metrics"
	"github.com/rickgao/interaction-feed/internal/model"
	"github.com/rickgao/interaction-feed/internal/source"
)

// Publisher delivers one encoded event. It must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Stats is a point-in-time snapshot of aggregator counters.
type Stats struct {
	Published int64
	Failed    int64
}

// Aggregator fans source events out to a fixed number of publishing workers.
type Aggregator struct {
	workers int
	queue   int
	pub     Publisher
	metrics *metrics.Aggregate
	logger  *slog.Logger

	published atomic.Int64
	failed    atomic.Int64
}

// New creates an Aggregator. A nil m leaves the counters unregistered.
func New(cfg config.AggregateConfig, pub Publisher, m *metrics.Aggregate, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewAggregate(nil)
	}
	workers := max(cfg.Workers, 1)
	queue := max(cfg.Queue, 1)
	return &Aggregator{
		workers: workers,
		queue:   queue,
		pub:     pub,
		metrics: m,
		logger:  logger.With("component", "aggregate"),
	}
}

// Run drives src and publishes every event it emits. It returns when src
// has finished and the queue is drained, or when ctx is done. Publish
// failures are logged and counted but do not stop the run; a source error
// does.
func (a *Aggregator) Run(ctx context.Context, src source.Source) error {
	queue := make(chan model.InteractionEvent, a.queue)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		return src.Run(gctx, func(evt model.InteractionEvent) {
			select {
			case queue <- evt:
			case <-gctx.Done():
			}
		})
	})

	for id := range a.workers {
		g.Go(func() error {
			a.work(gctx, id, queue)
			return nil
		})
	}

	a.logger.Info("aggregate started", "workers", a.workers)
	err := g.Wait()
	a.logger.Info("aggregate finished",
		"published", a.published.Load(),
		"failed", a.failed.Load(),
	)
	return err
}

func (a *Aggregator) work(ctx context.Context, id int, queue <-chan model.InteractionEvent) {
	logger := a.logger.With("worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-queue:
			if !ok {
				return
			}
			a.publish(ctx, logger, evt)
		}
	}
}

func (a *Aggregator) publish(ctx context.Context, logger *slog.Logger, evt model.InteractionEvent) {
	payload, err := feed.Encode(evt)
	if err == nil {
		err = a.pub.Publish(ctx, payload)
	}
	if err != nil {
		a.failed.Add(1)
		a.metrics.Failed.Inc()
		logger.Warn("publish failed", "identifier", evt.Identifier, "error", err)
		return
	}
	a.published.Add(1)
	a.metrics.Published.Inc()
	logger.Debug("event published",
		"identifier", evt.Identifier,
		"product", evt.ProductName,
		"type", evt.InteractionType,
	)
}

// Stats returns the current counters.
func (a *Aggregator) Stats() Stats {
	return Stats{
		Published: a.published.Load(),
		Failed:    a.failed.Load(),
	}
}
