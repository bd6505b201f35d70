// Package config loads settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/werewolf/go/internal/benchmark/poller"
	"github.com/mcdev12/werewolf/go/internal/realtime/archive"
	"github.com/mcdev12/werewolf/go/internal/realtime/relay"
	"github.com/mcdev12/werewolf/go/internal/realtime/transport"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrMissingGameID is returned by Validate when a watch has no game.
var ErrMissingGameID = errors.New("game id is required")

type Config struct {
	LogLevel string `yaml:"log_level"`

	Server struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"server"`

	Watch struct {
		GameID     string `yaml:"game_id"`
		PlayerID   *int   `yaml:"player_id"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"watch"`

	Transport struct {
		ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
		PingInterval     time.Duration `yaml:"ping_interval"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
		MaxMessageSize   int64         `yaml:"max_message_size"`
	} `yaml:"transport"`

	Poller struct {
		Interval               time.Duration `yaml:"interval"`
		MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
	} `yaml:"poller"`

	Relay struct {
		Enabled       bool          `yaml:"enabled"`
		URL           string        `yaml:"url"`
		SubjectPrefix string        `yaml:"subject_prefix"`
		ReconnectWait time.Duration `yaml:"reconnect_wait"`
	} `yaml:"relay"`

	Archive struct {
		Enabled      bool             `yaml:"enabled"`
		QueueSize    int              `yaml:"queue_size"`
		WriteTimeout time.Duration    `yaml:"write_timeout"`
		Database     archive.DBConfig `yaml:"database"`
	} `yaml:"archive"`
}

// Default returns the built-in settings.
func Default() *Config {
	var c Config
	c.LogLevel = "info"
	c.Server.BaseURL = "http://localhost:8000"
	c.Server.Timeout = 30 * time.Second
	c.Watch.ListenAddr = ":8081"

	t := transport.DefaultConfig()
	c.Transport.ReconnectDelay = t.ReconnectDelay
	c.Transport.PingInterval = t.PingInterval
	c.Transport.ReadTimeout = t.ReadTimeout
	c.Transport.WriteTimeout = t.WriteTimeout
	c.Transport.HandshakeTimeout = t.HandshakeTimeout
	c.Transport.MaxMessageSize = t.MaxMessageSize

	p := poller.DefaultConfig()
	c.Poller.Interval = p.Interval
	c.Poller.MaxConsecutiveFailures = p.MaxConsecutiveFailures

	r := relay.DefaultConfig()
	c.Relay.URL = r.URL
	c.Relay.SubjectPrefix = r.SubjectPrefix
	c.Relay.ReconnectWait = r.ReconnectWait

	a := archive.DefaultConfig()
	c.Archive.QueueSize = a.QueueSize
	c.Archive.WriteTimeout = a.WriteTimeout
	return &c
}

// Load reads path (if not empty) over the defaults, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Server.BaseURL = getEnv("WEREWOLF_URL", c.Server.BaseURL)
	c.Server.Timeout = getEnvAsDuration("WEREWOLF_TIMEOUT", c.Server.Timeout)

	c.Watch.GameID = getEnv("GAME_ID", c.Watch.GameID)
	if v := os.Getenv("PLAYER_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.Watch.PlayerID = &id
		}
	}
	c.Watch.ListenAddr = getEnv("VIEW_ADDR", c.Watch.ListenAddr)

	c.Transport.ReconnectDelay = getEnvAsDuration("RECONNECT_DELAY", c.Transport.ReconnectDelay)
	c.Transport.PingInterval = getEnvAsDuration("PING_INTERVAL", c.Transport.PingInterval)
	c.Poller.Interval = getEnvAsDuration("POLL_INTERVAL", c.Poller.Interval)
	c.Poller.MaxConsecutiveFailures = getEnvAsInt("POLL_MAX_FAILURES", c.Poller.MaxConsecutiveFailures)

	c.Relay.Enabled = getEnvAsBool("RELAY_ENABLED", c.Relay.Enabled)
	c.Relay.URL = getEnv("NATS_URL", c.Relay.URL)

	c.Archive.Enabled = getEnvAsBool("ARCHIVE_ENABLED", c.Archive.Enabled)
	c.Archive.Database = archive.DBConfigFromEnv(c.Archive.Database)
}

// Validate checks the settings a watch needs.
func (c *Config) Validate() error {
	if c.Watch.GameID == "" {
		return ErrMissingGameID
	}
	if c.Server.BaseURL == "" {
		return errors.New("server base url is required")
	}
	return nil
}

// Level returns the configured zerolog level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func (c *Config) TransportConfig() transport.Config {
	t := transport.DefaultConfig()
	t.ReconnectDelay = c.Transport.ReconnectDelay
	t.PingInterval = c.Transport.PingInterval
	t.ReadTimeout = c.Transport.ReadTimeout
	// the server only speaks when pinged or when the game moves
	if t.ReadTimeout > 0 && t.ReadTimeout < 2*t.PingInterval {
		t.ReadTimeout = 2 * t.PingInterval
	}
	t.WriteTimeout = c.Transport.WriteTimeout
	t.HandshakeTimeout = c.Transport.HandshakeTimeout
	t.MaxMessageSize = c.Transport.MaxMessageSize
	return t
}

func (c *Config) PollerConfig() poller.Config {
	return poller.Config{
		Interval:               c.Poller.Interval,
		MaxConsecutiveFailures: c.Poller.MaxConsecutiveFailures,
	}
}

func (c *Config) RelayConfig() relay.Config {
	r := relay.DefaultConfig()
	r.URL = c.Relay.URL
	r.SubjectPrefix = c.Relay.SubjectPrefix
	r.ReconnectWait = c.Relay.ReconnectWait
	return r
}

func (c *Config) ArchiveConfig() archive.Config {
	return archive.Config{
		QueueSize:    c.Archive.QueueSize,
		WriteTimeout: c.Archive.WriteTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
