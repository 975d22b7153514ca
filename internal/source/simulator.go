package source

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/interaction-feed/internal/config"
	"github.com/rickgao/interaction-feed/internal/model"
)

// Products is the catalogue simulated devices pick from.
var Products = []string{
	"Aurora Headphones",
	"Breeze Fan",
	"Cobalt Smartwatch",
	"Drift Sneakers",
	"Ember Kettle",
	"Fjord Backpack",
	"Glint Sunglasses",
	"Harbor Speaker",
}

// Simulator runs concurrent device sessions. Each session emits one event
// per tick until its random lifetime ends.
type Simulator struct {
	cfg    config.SimulatorConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSimulator creates a simulator.
func NewSimulator(cfg config.SimulatorConfig, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		cfg:    cfg,
		logger: logger.With("source", "simulator"),
		now:    time.Now,
	}
}

// Run plays Iterations rounds of Sessions concurrent sessions. A round ends
// when its longest session ends.
func (s *Simulator) Run(ctx context.Context, emit EmitFunc) error {
	for round := 1; round <= s.cfg.Iterations; round++ {
		s.logger.Info("starting session round",
			"round", round,
			"iterations", s.cfg.Iterations,
			"sessions", s.cfg.Sessions,
		)

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < s.cfg.Sessions; i++ {
			g.Go(func() error {
				s.session(gctx, emit)
				return nil
			})
		}
		g.Wait()

		if ctx.Err() != nil {
			return nil
		}
	}

	s.logger.Info("simulation complete")
	return nil
}

func (s *Simulator) session(ctx context.Context, emit EmitFunc) {
	device := uuid.NewString()
	tick := between(s.cfg.MinTick, s.cfg.MaxTick)
	lifetime := between(s.cfg.MinSession, s.cfg.MaxSession)

	logger := s.logger.With("device", device)
	logger.Debug("session started", "tick", tick, "lifetime", lifetime)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	timeout := time.NewTimer(lifetime)
	defer timeout.Stop()

	emitted := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-timeout.C:
			logger.Debug("session ended", "events", emitted)
			return
		case <-ticker.C:
			emit(s.Event())
			emitted++
		}
	}
}

// Event returns one random interaction event stamped with the current time.
func (s *Simulator) Event() model.InteractionEvent {
	return model.InteractionEvent{
		Identifier:      uuid.NewString(),
		ProductName:     Products[rand.IntN(len(Products))],
		InteractionType: model.InteractionTypes[rand.IntN(len(model.InteractionTypes))],
		Timestamp:       model.FormatTimestamp(s.now()),
	}
}

// between returns a random duration in [lo, hi), or lo when the range is empty.
func between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}
