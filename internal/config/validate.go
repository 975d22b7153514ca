package config

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Simulator limits carried over from the device simulator CLI.
const (
	MaxSessions   = 5
	MaxIterations = 20
	MaxWorkers    = 5
)

var channelName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Feed.HandshakeTimeout <= 0 {
		return errors.New("feed.handshake_timeout must be > 0")
	}
	if c.Feed.PingInterval <= 0 {
		return errors.New("feed.ping_interval must be > 0")
	}
	if c.Feed.PingTimeout < c.Feed.PingInterval {
		return fmt.Errorf("feed.ping_timeout (%s) must be >= feed.ping_interval (%s)", c.Feed.PingTimeout, c.Feed.PingInterval)
	}
	if c.Feed.BufferSize < 1 {
		return errors.New("feed.buffer_size must be >= 1")
	}
	if c.Feed.UpdateBuffer < 1 {
		return errors.New("feed.update_buffer must be >= 1")
	}
	if c.Feed.Reconnect.BaseDelay > c.Feed.Reconnect.MaxDelay {
		return fmt.Errorf("feed.reconnect.base_delay (%s) cannot exceed max_delay (%s)", c.Feed.Reconnect.BaseDelay, c.Feed.Reconnect.MaxDelay)
	}

	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("server.ws_path must start with /, got %q", c.Server.WSPath)
	}
	if c.Server.ClientBuffer < 1 {
		return errors.New("server.client_buffer must be >= 1")
	}

	switch c.Source.Kind {
	case SourceSimulator:
		if err := c.Source.Simulator.validate("source.simulator"); err != nil {
			return err
		}
	case SourcePostgres:
		if err := c.Source.Postgres.validate("source.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourceSimulator, SourcePostgres, c.Source.Kind)
	}

	if c.Aggregate.Workers < 1 || c.Aggregate.Workers > MaxWorkers {
		return fmt.Errorf("aggregate.workers must be between 1 and %d, got %d", MaxWorkers, c.Aggregate.Workers)
	}
	if c.Aggregate.Queue < 1 {
		return errors.New("aggregate.queue must be >= 1")
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 0 and 65535, got %d", c.Metrics.Port)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// ValidateAggregate checks the parts of the config the aggregate command
// needs beyond Validate: the simulator it drives and the database it
// publishes to, whatever source.kind says.
func (c *Config) ValidateAggregate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.Source.Simulator.validate("source.simulator"); err != nil {
		return err
	}
	return c.Source.Postgres.validate("source.postgres")
}

func (p *PostgresConfig) validate(prefix string) error {
	if err := p.Database.validate(prefix + ".database"); err != nil {
		return err
	}
	if !channelName.MatchString(p.Channel) {
		return fmt.Errorf("%s.channel %q is not a valid identifier", prefix, p.Channel)
	}
	return nil
}

func (s *SimulatorConfig) validate(prefix string) error {
	if s.Sessions < 1 || s.Sessions > MaxSessions {
		return fmt.Errorf("%s.sessions must be between 1 and %d, got %d", prefix, MaxSessions, s.Sessions)
	}
	if s.Iterations < 1 || s.Iterations > MaxIterations {
		return fmt.Errorf("%s.iterations must be between 1 and %d, got %d", prefix, MaxIterations, s.Iterations)
	}
	if s.MinTick <= 0 || s.MinTick > s.MaxTick {
		return fmt.Errorf("%s.min_tick (%s) must be > 0 and <= max_tick (%s)", prefix, s.MinTick, s.MaxTick)
	}
	if s.MinSession <= 0 || s.MinSession > s.MaxSession {
		return fmt.Errorf("%s.min_session (%s) must be > 0 and <= max_session (%s)", prefix, s.MinSession, s.MaxSession)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
