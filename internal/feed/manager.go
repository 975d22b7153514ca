package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/interaction-feed/internal/connection"
	"github.com/rickgao/interaction-feed/internal/fanout"
	"github.com/rickgao/interaction-feed/internal/metrics"
	"github.com/rickgao/interaction-feed/internal/model"
)

// Dialer creates the transport client for one connection attempt.
type Dialer func(cfg connection.ClientConfig, logger *slog.Logger) connection.Client

// Option customizes a Manager.
type Option func(*Manager)

// WithDialer replaces the WebSocket client factory.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		m.dial = d
	}
}

// WithMetrics reports manager activity to Prometheus collectors.
func WithMetrics(f *metrics.Feed) Option {
	return func(m *Manager) {
		m.metrics = f
	}
}

// Manager owns one feed connection and the events received on it.
type Manager struct {
	cfg     Config
	logger  *slog.Logger
	dial    Dialer
	metrics *metrics.Feed

	state   *State
	updates *fanout.Hub[Update]

	// mu guards status transitions, appends and the client handle so that
	// subscribers observe updates in the same order as the feed.
	mu          sync.Mutex
	status      atomic.Int32
	addr        string
	client      connection.Client
	initialized bool
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	received    atomic.Int64
	appended    atomic.Int64
	decodeFails atomic.Int64
	connFails   atomic.Int64
	reconnects  atomic.Int64
	ignored     atomic.Int64
}

// NewManager creates a Manager in the disconnected state.
func NewManager(cfg Config, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg:     cfg,
		logger:  logger,
		dial:    connection.NewClient,
		state:   NewState(),
		updates: fanout.NewHub[Update](cfg.UpdateBuffer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize opens the connection to addr and returns without waiting for
// it. Only well-formedness of addr is checked here; an unreachable endpoint
// surfaces later as a transition to disconnected.
func (m *Manager) Initialize(ctx context.Context, addr string) error {
	if err := validateAddress(addr); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.initialized {
		return ErrAlreadyInitialized
	}
	m.initialized = true
	m.addr = addr
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.setStatusLocked(StatusConnecting)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("feed initializing", "url", addr)
	return nil
}

// OnConnected records that the transport is open. It is ignored before
// Initialize and after Close.
func (m *Manager) OnConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}
	m.setStatusLocked(StatusConnected)
	m.logger.Info("feed connected", "url", m.addr)
}

// OnMessage decodes one inbound payload and appends it to the feed.
// Payloads that do not match the schema are logged, counted and dropped.
// Payloads arriving before Initialize or after Close are counted as ignored.
func (m *Manager) OnMessage(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		m.ignored.Add(1)
		m.logger.Debug("ignoring feed message on inactive manager", "bytes", len(raw))
		return
	}

	m.received.Add(1)
	if m.metrics != nil {
		m.metrics.MessagesReceived.Inc()
	}

	evt, err := Decode(raw)
	if err != nil {
		m.decodeFails.Add(1)
		if m.metrics != nil {
			m.metrics.DecodeFailures.Inc()
		}
		m.logger.Warn("dropping malformed feed message",
			"error", err,
			"bytes", len(raw),
		)
		return
	}

	idx := m.state.Append(evt)
	m.appended.Add(1)
	if m.metrics != nil {
		m.metrics.EventsAppended.Inc()
	}
	m.updates.Publish(Update{Kind: UpdateEvent, Event: evt, Index: idx})

	m.logger.Debug("feed event",
		"identifier", evt.Identifier,
		"product_name", evt.ProductName,
		"interaction_type", evt.InteractionType,
	)
}

// OnDisconnected records that the transport closed. Clean closes and
// failures both end in disconnected; a non-nil err that is not a clean close
// handshake is logged and counted as a connection failure. Like OnConnected
// it is ignored before Initialize and after Close.
func (m *Manager) OnDisconnected(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}

	if err != nil && !connection.IsCleanClose(err) {
		m.connFails.Add(1)
		if m.metrics != nil {
			m.metrics.ConnectionFailures.Inc()
		}
		m.logger.Warn("feed connection lost", "url", m.addr, "error", err)
	} else {
		m.logger.Info("feed connection closed", "url", m.addr)
	}
	m.setStatusLocked(StatusDisconnected)
}

// activeLocked reports whether lifecycle events are accepted.
// Must be called with mu held.
func (m *Manager) activeLocked() bool {
	return m.initialized && !m.closed
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	return Status(m.status.Load())
}

// Events returns a copy of the feed in arrival order.
func (m *Manager) Events() []model.InteractionEvent {
	return m.state.Snapshot()
}

// Subscribe returns a subscriber that receives every later Update.
func (m *Manager) Subscribe() *fanout.Subscriber[Update] {
	return m.updates.Subscribe()
}

// Unsubscribe releases a subscriber returned by Subscribe.
func (m *Manager) Unsubscribe(id uuid.UUID) {
	m.updates.Unsubscribe(id)
}

// Stats returns current counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Status:             m.Status(),
		MessagesReceived:   m.received.Load(),
		EventsAppended:     m.appended.Load(),
		DecodeFailures:     m.decodeFails.Load(),
		ConnectionFailures: m.connFails.Load(),
		ReconnectAttempts:  m.reconnects.Load(),
		MessagesIgnored:    m.ignored.Load(),
		Subscribers:        m.updates.Len(),
	}
}

// Close tears down the connection. No updates are delivered afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	client := m.client
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("feed shutdown timeout")
	}

	m.mu.Lock()
	m.setStatusLocked(StatusDisconnected)
	m.updates.Close()
	m.mu.Unlock()

	m.logger.Info("feed closed", "events", m.state.Len())
	return nil
}

// setStatusLocked must be called with mu held.
func (m *Manager) setStatusLocked(s Status) {
	if Status(m.status.Load()) == s {
		return
	}
	m.status.Store(int32(s))
	if m.metrics != nil {
		m.metrics.Status.Set(float64(s))
	}
	m.updates.Publish(Update{Kind: UpdateStatus, Status: s})
}

// run drives the connection lifecycle until Close or, with reconnect off,
// until the first disconnect.
func (m *Manager) run() {
	defer m.wg.Done()

	wait := m.cfg.Reconnect.BaseDelay
	for {
		connected, err := m.session()
		if m.ctx.Err() != nil {
			return
		}
		m.OnDisconnected(err)

		if !m.cfg.Reconnect.Enabled {
			return
		}
		if connected {
			wait = m.cfg.Reconnect.BaseDelay
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(wait):
		}

		wait *= 2
		if wait > m.cfg.Reconnect.MaxDelay {
			wait = m.cfg.Reconnect.MaxDelay
		}

		m.reconnects.Add(1)
		if m.metrics != nil {
			m.metrics.ReconnectAttempts.Inc()
		}
		m.logger.Info("attempting reconnection", "url", m.addr, "attempt", m.reconnects.Load())

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		m.setStatusLocked(StatusConnecting)
		m.mu.Unlock()
	}
}

// session dials once and pumps frames until the connection ends.
func (m *Manager) session() (connected bool, err error) {
	cfg := m.cfg.Client
	cfg.URL = m.addr
	client := m.dial(cfg, m.logger.With("url", m.addr))

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false, ErrClosed
	}
	m.client = client
	m.mu.Unlock()

	if err := client.Connect(m.ctx); err != nil {
		client.Close()
		return false, fmt.Errorf("%w: dial: %w", ErrConnectionFailure, err)
	}
	m.OnConnected()

	for msg := range client.Messages() {
		m.OnMessage(msg.Data)
	}

	if err := client.Err(); err != nil {
		if connection.IsCleanClose(err) {
			return true, err
		}
		return true, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
	}
	if m.ctx.Err() == nil {
		// Loop ended without a reported cause; treat as a drop.
		return true, fmt.Errorf("%w: %w", ErrConnectionFailure, errors.New("read loop stopped"))
	}
	return true, nil
}

// validateAddress checks that addr is a ws:// or wss:// URL with a host.
func validateAddress(addr string) error {
	u, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: scheme must be ws or wss, got %q", ErrInvalidAddress, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidAddress)
	}
	return nil
}
