package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultPingInterval       = 15 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultBufferSize         = 1000
	DefaultUpdateBuffer       = 64
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultServerAddr         = ":8000"
	DefaultWSPath             = "/ws"
	DefaultClientBuffer       = 256
	DefaultShutdownTimeout    = 10 * time.Second
	DefaultSourceKind         = SourceSimulator
	DefaultSessions           = 2
	DefaultIterations         = 1
	DefaultMinTick            = 5 * time.Second
	DefaultMaxTick            = 30 * time.Second
	DefaultMinSession         = 5 * time.Second
	DefaultMaxSession         = 180 * time.Second
	DefaultChannel            = "interaction_events"
	DefaultAggregateWorkers   = 1
	DefaultAggregateQueue     = 64
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultMetricsPath        = "/metrics"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

func (c *Config) applyDefaults() {
	// Feed defaults
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultPingInterval
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultBufferSize
	}
	if c.Feed.UpdateBuffer == 0 {
		c.Feed.UpdateBuffer = DefaultUpdateBuffer
	}
	if c.Feed.Reconnect.BaseDelay == 0 {
		c.Feed.Reconnect.BaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.Reconnect.MaxDelay == 0 {
		c.Feed.Reconnect.MaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.Color == nil {
		color := true
		c.Feed.Color = &color
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ClientBuffer == 0 {
		c.Server.ClientBuffer = DefaultClientBuffer
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Source defaults
	if c.Source.Kind == "" {
		c.Source.Kind = DefaultSourceKind
	}
	sim := &c.Source.Simulator
	if sim.Sessions == 0 {
		sim.Sessions = DefaultSessions
	}
	if sim.Iterations == 0 {
		sim.Iterations = DefaultIterations
	}
	if sim.MinTick == 0 {
		sim.MinTick = DefaultMinTick
	}
	if sim.MaxTick == 0 {
		sim.MaxTick = DefaultMaxTick
	}
	if sim.MinSession == 0 {
		sim.MinSession = DefaultMinSession
	}
	if sim.MaxSession == 0 {
		sim.MaxSession = DefaultMaxSession
	}
	if c.Source.Postgres.Channel == "" {
		c.Source.Postgres.Channel = DefaultChannel
	}
	applyDBDefaults(&c.Source.Postgres.Database)

	// Aggregate defaults
	if c.Aggregate.Workers == 0 {
		c.Aggregate.Workers = DefaultAggregateWorkers
	}
	if c.Aggregate.Queue == 0 {
		c.Aggregate.Queue = DefaultAggregateQueue
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
