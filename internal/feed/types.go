package feed

import (
	"errors"
	"time"

	"github.com/rickgao/interaction-feed/internal/connection"
	"github.com/rickgao/interaction-feed/internal/model"
)

// Errors
var (
	ErrInvalidAddress     = errors.New("invalid endpoint address")
	ErrAlreadyInitialized = errors.New("manager already initialized")
	ErrClosed             = errors.New("manager closed")
	ErrConnectionFailure  = errors.New("connection failure")
)

// ReconnectConfig is the opt-in reconnect policy.
type ReconnectConfig struct {
	Enabled   bool          // Re-dial after a drop (off keeps the connection dead)
	BaseDelay time.Duration // First wait before re-dialling
	MaxDelay  time.Duration // Cap for exponential backoff
}

// Config configures the feed Manager.
type Config struct {
	Client       connection.ClientConfig // URL is set by Initialize
	Reconnect    ReconnectConfig
	UpdateBuffer int // Initial capacity of each subscriber buffer
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Client: connection.DefaultClientConfig(),
		Reconnect: ReconnectConfig{
			Enabled:   false,
			BaseDelay: 1 * time.Second,
			MaxDelay:  60 * time.Second,
		},
		UpdateBuffer: 64,
	}
}

// UpdateKind says which field of an Update is meaningful.
type UpdateKind int

const (
	UpdateStatus UpdateKind = iota + 1
	UpdateEvent
)

// Update is delivered to subscribers for every status transition and every
// appended event, in the order they happened.
type Update struct {
	Kind   UpdateKind
	Status Status                 // Status after the transition (UpdateStatus)
	Event  model.InteractionEvent // Appended event (UpdateEvent)
	Index  int                    // Position of Event in the feed (UpdateEvent)
}

// Stats provides counters about the manager.
type Stats struct {
	Status             Status
	MessagesReceived   int64
	EventsAppended     int64
	DecodeFailures     int64
	ConnectionFailures int64
	ReconnectAttempts  int64
	MessagesIgnored    int64 // Delivered before Initialize or after Close
	Subscribers        int
}
