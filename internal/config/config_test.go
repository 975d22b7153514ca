package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
feed:
  url: ws://localhost:8000/ws
  ping_interval: 5s
  reconnect:
    enabled: true
    base_delay: 500ms
server:
  addr: ":9000"
source:
  kind: postgres
  postgres:
    channel: store_events
    database:
      host: localhost
      name: store
      user: feed
      password: feedpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Feed.URL != "ws://localhost:8000/ws" {
		t.Errorf("Feed.URL = %q, want %q", cfg.Feed.URL, "ws://localhost:8000/ws")
	}
	if cfg.Feed.PingInterval != 5*time.Second {
		t.Errorf("Feed.PingInterval = %v, want %v", cfg.Feed.PingInterval, 5*time.Second)
	}
	if !cfg.Feed.Reconnect.Enabled {
		t.Error("Feed.Reconnect.Enabled = false, want true")
	}
	if cfg.Feed.Reconnect.BaseDelay != 500*time.Millisecond {
		t.Errorf("Feed.Reconnect.BaseDelay = %v, want %v", cfg.Feed.Reconnect.BaseDelay, 500*time.Millisecond)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9000")
	}
	if cfg.Source.Postgres.Database.Host != "localhost" {
		t.Errorf("Source.Postgres.Database.Host = %q, want %q", cfg.Source.Postgres.Database.Host, "localhost")
	}
	// Load alone leaves defaults unset
	if cfg.Feed.HandshakeTimeout != 0 {
		t.Errorf("Feed.HandshakeTimeout = %v, want 0 before defaults", cfg.Feed.HandshakeTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Fatalf("Load() error = %v, want read config file error", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTempFile(t, "feed: [unterminated")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config yaml") {
		t.Fatalf("Load() error = %v, want parse config yaml error", err)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_FEED_URL", "wss://feed.example.com/ws")
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
feed:
  url: ${TEST_FEED_URL}
source:
  kind: postgres
  postgres:
    database:
      host: localhost
      name: store
      user: feed
      password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Feed.URL != "wss://feed.example.com/ws" {
		t.Errorf("Feed.URL = %q, want %q", cfg.Feed.URL, "wss://feed.example.com/ws")
	}
	if cfg.Source.Postgres.Database.Password != "secret123" {
		t.Errorf("Source.Postgres.Database.Password = %q, want %q", cfg.Source.Postgres.Database.Password, "secret123")
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("TEST_FEED_HOST", "")

	yaml := `
feed:
  url: ws://${TEST_FEED_HOST:-localhost:8000}/ws
source:
  postgres:
    channel: ${TEST_UNSET_CHANNEL:-store_events}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Feed.URL != "ws://localhost:8000/ws" {
		t.Errorf("Feed.URL = %q, want fallback host", cfg.Feed.URL)
	}
	if cfg.Source.Postgres.Channel != "store_events" {
		t.Errorf("Source.Postgres.Channel = %q, want %q", cfg.Source.Postgres.Channel, "store_events")
	}

	t.Setenv("TEST_FEED_HOST", "feed.internal:9000")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Feed.URL != "ws://feed.internal:9000/ws" {
		t.Errorf("Feed.URL = %q, want env host", cfg.Feed.URL)
	}
}

func TestLoadNormalizesFeedURL(t *testing.T) {
	path := writeTempFile(t, "feed:\n  url: \"  https://feed.example.com/ws \"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Feed.URL != "wss://feed.example.com/ws" {
		t.Errorf("Feed.URL = %q, want %q", cfg.Feed.URL, "wss://feed.example.com/ws")
	}
}

func TestNormalizeFeedURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ws://localhost:8000/ws", "ws://localhost:8000/ws"},
		{"http://localhost:8000/ws", "ws://localhost:8000/ws"},
		{"https://feed.example.com/ws", "wss://feed.example.com/ws"},
		{"  wss://feed.example.com/ws\n", "wss://feed.example.com/ws"},
		{"ftp://feed.example.com", "ftp://feed.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeFeedURL(tt.in); got != tt.want {
			t.Errorf("NormalizeFeedURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "feed:\n  url: ws://localhost:8000/ws\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Feed.HandshakeTimeout != DefaultHandshakeTimeout {
		t.Errorf("Feed.HandshakeTimeout = %v, want default %v", cfg.Feed.HandshakeTimeout, DefaultHandshakeTimeout)
	}
	if cfg.Feed.Reconnect.Enabled {
		t.Error("Feed.Reconnect.Enabled = true, want disabled by default")
	}
	if cfg.Feed.Color == nil || !*cfg.Feed.Color {
		t.Error("Feed.Color should default to true")
	}
	if cfg.Server.WSPath != DefaultWSPath {
		t.Errorf("Server.WSPath = %q, want default %q", cfg.Server.WSPath, DefaultWSPath)
	}
	if cfg.Source.Kind != SourceSimulator {
		t.Errorf("Source.Kind = %q, want default %q", cfg.Source.Kind, SourceSimulator)
	}
	if cfg.Source.Simulator.Sessions != DefaultSessions {
		t.Errorf("Source.Simulator.Sessions = %d, want default %d", cfg.Source.Simulator.Sessions, DefaultSessions)
	}
	if cfg.Source.Postgres.Database.Port != DefaultDBPort {
		t.Errorf("Source.Postgres.Database.Port = %d, want default %d", cfg.Source.Postgres.Database.Port, DefaultDBPort)
	}
	if cfg.Metrics.Port != 0 {
		t.Errorf("Metrics.Port = %d, want 0 (disabled)", cfg.Metrics.Port)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want default %q", cfg.Log.Level, DefaultLogLevel)
	}
}

func TestLoadWithDefaultsKeepsExplicitColor(t *testing.T) {
	path := writeTempFile(t, "feed:\n  color: false\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}
	if cfg.Feed.Color == nil || *cfg.Feed.Color {
		t.Error("Feed.Color should stay false when set explicitly")
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, "source:\n  kind: kafka\n")

	_, err := LoadAndValidate(path)
	if err == nil {
		t.Fatal("LoadAndValidate() expected error for unknown source kind")
	}
	if !strings.HasPrefix(err.Error(), "validate config: ") {
		t.Errorf("LoadAndValidate() error = %q, want validate config prefix", err.Error())
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "ping timeout below interval",
			mutate:  func(c *Config) { c.Feed.PingTimeout = time.Second },
			wantErr: "feed.ping_timeout (1s) must be >= feed.ping_interval (15s)",
		},
		{
			name: "reconnect base exceeds max",
			mutate: func(c *Config) {
				c.Feed.Reconnect.BaseDelay = time.Minute
				c.Feed.Reconnect.MaxDelay = time.Second
			},
			wantErr: "feed.reconnect.base_delay (1m0s) cannot exceed max_delay (1s)",
		},
		{
			name:    "ws path without slash",
			mutate:  func(c *Config) { c.Server.WSPath = "ws" },
			wantErr: `server.ws_path must start with /, got "ws"`,
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Source.Kind = "kafka" },
			wantErr: `source.kind must be "simulator" or "postgres", got "kafka"`,
		},
		{
			name:    "too many sessions",
			mutate:  func(c *Config) { c.Source.Simulator.Sessions = 6 },
			wantErr: "source.simulator.sessions must be between 1 and 5, got 6",
		},
		{
			name:    "too many iterations",
			mutate:  func(c *Config) { c.Source.Simulator.Iterations = 21 },
			wantErr: "source.simulator.iterations must be between 1 and 20, got 21",
		},
		{
			name:    "tick range inverted",
			mutate:  func(c *Config) { c.Source.Simulator.MinTick = time.Minute },
			wantErr: "source.simulator.min_tick (1m0s) must be > 0 and <= max_tick (30s)",
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Source.Kind = SourcePostgres },
			wantErr: "source.postgres.database.host is required",
		},
		{
			name: "missing postgres password",
			mutate: func(c *Config) {
				c.Source.Kind = SourcePostgres
				c.Source.Postgres.Database = DBConfig{Host: "localhost", Name: "db", User: "user", MaxConns: 4}
			},
			wantErr: "source.postgres.database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Source.Kind = SourcePostgres
				c.Source.Postgres.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "source.postgres.database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "bad channel",
			mutate: func(c *Config) {
				c.Source.Kind = SourcePostgres
				c.Source.Postgres.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5}
				c.Source.Postgres.Channel = "events; DROP TABLE x"
			},
			wantErr: `source.postgres.channel "events; DROP TABLE x" is not a valid identifier`,
		},
		{
			name:    "too many aggregate workers",
			mutate:  func(c *Config) { c.Aggregate.Workers = 6 },
			wantErr: "aggregate.workers must be between 1 and 5, got 6",
		},
		{
			name:    "aggregate queue negative",
			mutate:  func(c *Config) { c.Aggregate.Queue = -1 },
			wantErr: "aggregate.queue must be >= 1",
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "metrics.port must be between 0 and 65535, got 70000",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: `log.format must be text or json, got "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestValidateAggregate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	err := cfg.ValidateAggregate()
	if err == nil || err.Error() != "source.postgres.database.host is required" {
		t.Fatalf("ValidateAggregate() error = %v, want missing host", err)
	}

	cfg.Source.Postgres.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 4}
	if err := cfg.ValidateAggregate(); err != nil {
		t.Fatalf("ValidateAggregate() = %v", err)
	}

	// The simulator is checked even when serve would use postgres.
	cfg.Source.Kind = SourcePostgres
	cfg.Source.Simulator.Sessions = 0
	err = cfg.ValidateAggregate()
	if err == nil || err.Error() != "source.simulator.sessions must be between 1 and 5, got 0" {
		t.Fatalf("ValidateAggregate() error = %v, want sessions range", err)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := LogConfig{Level: tt.level}.SlogLevel()
		if err != nil {
			t.Errorf("SlogLevel(%q) error: %v", tt.level, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}

	if _, err := (LogConfig{Level: "loud"}).SlogLevel(); err == nil {
		t.Error("SlogLevel(loud) expected error")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
