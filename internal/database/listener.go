package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrListenerClosed is returned by Next after Close.
var ErrListenerClosed = errors.New("listener closed")

// Listener holds one pooled connection subscribed to a notification channel.
// A Listener is used by a single goroutine.
type Listener struct {
	conn    *pgxpool.Conn
	channel string
}

// Listen acquires a connection from pool and issues LISTEN on channel.
func Listen(ctx context.Context, pool *pgxpool.Pool, channel string) (*Listener, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	ident := pgx.Identifier{channel}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+ident); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	return &Listener{conn: conn, channel: channel}, nil
}

// Next blocks until a notification arrives or ctx is done.
func (l *Listener) Next(ctx context.Context) (*pgconn.Notification, error) {
	if l.conn == nil {
		return nil, ErrListenerClosed
	}
	n, err := l.conn.Conn().WaitForNotification(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for notification: %w", err)
	}
	return n, nil
}

// Close unlistens and returns the connection to the pool. A connection
// interrupted by a cancelled wait is destroyed instead of reused.
func (l *Listener) Close(ctx context.Context) {
	if l.conn == nil {
		return
	}
	conn := l.conn
	l.conn = nil

	if conn.Conn().IsClosed() {
		conn.Release()
		return
	}
	if _, err := conn.Exec(ctx, "UNLISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		conn.Conn().Close(ctx)
	}
	conn.Release()
}

// Notify publishes payload on channel.
func Notify(ctx context.Context, pool *pgxpool.Pool, channel, payload string) error {
	if _, err := pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload); err != nil {
		return fmt.Errorf("notify %s: %w", channel, err)
	}
	return nil
}

// Notifier publishes payloads on a fixed channel. It is safe for concurrent
// use; each call borrows its own pooled connection.
type Notifier struct {
	pool    *pgxpool.Pool
	channel string
}

// NewNotifier returns a Notifier for channel.
func NewNotifier(pool *pgxpool.Pool, channel string) *Notifier {
	return &Notifier{pool: pool, channel: channel}
}

// Publish sends payload with pg_notify.
func (n *Notifier) Publish(ctx context.Context, payload []byte) error {
	return Notify(ctx, n.pool, n.channel, string(payload))
}
