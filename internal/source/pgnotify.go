package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/interaction-feed/internal/database"
	"github.com/rickgao/interaction-feed/internal/feed"
)

// notifier is the part of database.Listener PGNotify uses.
type notifier interface {
	Next(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context)
}

// PGNotify relays JSON payloads published with pg_notify on one channel.
// Payloads are decoded with the same schema the feed client enforces;
// payloads that fail are logged, counted and dropped.
type PGNotify struct {
	channel string
	logger  *slog.Logger
	listen  func(ctx context.Context) (notifier, error)
	onDrop  func()

	dropped atomic.Int64
	relayed atomic.Int64
}

// NewPGNotify creates a source listening on channel through pool.
// onDrop, if not nil, is called for each dropped payload.
func NewPGNotify(pool *pgxpool.Pool, channel string, logger *slog.Logger, onDrop func()) *PGNotify {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGNotify{
		channel: channel,
		logger:  logger.With("source", "postgres", "channel", channel),
		listen: func(ctx context.Context) (notifier, error) {
			return database.Listen(ctx, pool, channel)
		},
		onDrop: onDrop,
	}
}

// Run listens until ctx is done.
func (p *PGNotify) Run(ctx context.Context, emit EmitFunc) error {
	l, err := p.listen(ctx)
	if err != nil {
		return fmt.Errorf("postgres source: %w", err)
	}
	defer l.Close(context.WithoutCancel(ctx))

	p.logger.Info("listening for notifications")

	for {
		n, err := l.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("postgres source: %w", err)
		}
		p.handle(n.Payload, emit)
	}
}

func (p *PGNotify) handle(payload string, emit EmitFunc) {
	evt, err := feed.Decode([]byte(payload))
	if err != nil {
		p.dropped.Add(1)
		if p.onDrop != nil {
			p.onDrop()
		}
		var de *feed.DecodeError
		field := ""
		if errors.As(err, &de) {
			field = de.Field
		}
		p.logger.Warn("dropping malformed notification",
			"error", err,
			"field", field,
			"bytes", len(payload),
		)
		return
	}

	p.relayed.Add(1)
	emit(evt)
}

// Dropped returns how many payloads failed to decode.
func (p *PGNotify) Dropped() int64 {
	return p.dropped.Load()
}

// Relayed returns how many payloads were emitted.
func (p *PGNotify) Relayed() int64 {
	return p.relayed.Load()
}
