package config

import "time"

// Config is the root configuration shared by every command.
type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Server    ServerConfig    `yaml:"server"`
	Source    SourceConfig    `yaml:"source"`
	Aggregate AggregateConfig `yaml:"aggregate"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// FeedConfig holds the feed client settings used by watch.
type FeedConfig struct {
	URL              string          `yaml:"url"`
	HandshakeTimeout time.Duration   `yaml:"handshake_timeout"`
	PingInterval     time.Duration   `yaml:"ping_interval"`
	PingTimeout      time.Duration   `yaml:"ping_timeout"`
	WriteTimeout     time.Duration   `yaml:"write_timeout"`
	BufferSize       int             `yaml:"buffer_size"`
	UpdateBuffer     int             `yaml:"update_buffer"`
	Reconnect        ReconnectConfig `yaml:"reconnect"`
	Color            *bool           `yaml:"color"`
}

// ReconnectConfig controls re-dialling after a dropped connection.
// Disabled unless set.
type ReconnectConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// ServerConfig holds feed server settings used by serve.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	WSPath          string        `yaml:"ws_path"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ClientBuffer    int           `yaml:"client_buffer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Source kinds.
const (
	SourceSimulator = "simulator"
	SourcePostgres  = "postgres"
)

// SourceConfig selects and configures where served events come from.
type SourceConfig struct {
	Kind      string          `yaml:"kind"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Postgres  PostgresConfig  `yaml:"postgres"`
}

// SimulatorConfig holds device session simulator settings.
type SimulatorConfig struct {
	Sessions   int           `yaml:"sessions"`
	Iterations int           `yaml:"iterations"`
	MinTick    time.Duration `yaml:"min_tick"`
	MaxTick    time.Duration `yaml:"max_tick"`
	MinSession time.Duration `yaml:"min_session"`
	MaxSession time.Duration `yaml:"max_session"`
}

// PostgresConfig holds the LISTEN/NOTIFY source settings.
type PostgresConfig struct {
	Database DBConfig `yaml:"database"`
	Channel  string   `yaml:"channel"`
}

// AggregateConfig holds the settings of the aggregate command, which
// publishes simulator events to source.postgres.channel.
type AggregateConfig struct {
	Workers int `yaml:"workers"`
	Queue   int `yaml:"queue"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
// Port 0 disables the standalone metrics listener of watch.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LogConfig holds slog settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
