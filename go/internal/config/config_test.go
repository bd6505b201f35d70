package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "werewolf.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected base url %q", c.Server.BaseURL)
	}
	tc := c.TransportConfig()
	if tc.ReconnectDelay != 3*time.Second || tc.PingInterval != 30*time.Second {
		t.Fatalf("unexpected transport defaults %+v", tc)
	}
	if pc := c.PollerConfig(); pc.Interval != time.Second || pc.MaxConsecutiveFailures != 3 {
		t.Fatalf("unexpected poller defaults %+v", pc)
	}
	if err := c.Validate(); !errors.Is(err, ErrMissingGameID) {
		t.Fatalf("expected ErrMissingGameID, got %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
log_level: debug
server:
  base_url: http://games.local:9000
watch:
  game_id: g1
  player_id: 2
transport:
  reconnect_delay: 500ms
  ping_interval: 10s
poller:
  interval: 2s
relay:
  enabled: true
  subject_prefix: arena
archive:
  enabled: true
  database:
    host: pg.local
    database: games
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Watch.PlayerID == nil || *c.Watch.PlayerID != 2 {
		t.Fatalf("unexpected player id %v", c.Watch.PlayerID)
	}
	if c.Level() != zerolog.DebugLevel {
		t.Fatalf("unexpected level %v", c.Level())
	}
	tc := c.TransportConfig()
	if tc.ReconnectDelay != 500*time.Millisecond || tc.PingInterval != 10*time.Second {
		t.Fatalf("unexpected transport config %+v", tc)
	}
	if c.PollerConfig().Interval != 2*time.Second {
		t.Fatalf("unexpected poll interval %v", c.PollerConfig().Interval)
	}
	if !c.Relay.Enabled || c.RelayConfig().SubjectPrefix != "arena" {
		t.Fatalf("unexpected relay config %+v", c.RelayConfig())
	}
	if got := c.Archive.Database.Host; got != "pg.local" {
		t.Fatalf("unexpected db host %q", got)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "watch:\n  game_id: from-file\nserver:\n  base_url: http://file\n")
	t.Setenv("GAME_ID", "from-env")
	t.Setenv("PLAYER_ID", "5")
	t.Setenv("RECONNECT_DELAY", "1s")
	t.Setenv("RELAY_ENABLED", "true")
	t.Setenv("POLL_MAX_FAILURES", "7")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Watch.GameID != "from-env" {
		t.Fatalf("expected env game id, got %q", c.Watch.GameID)
	}
	if c.Server.BaseURL != "http://file" {
		t.Fatalf("expected file base url, got %q", c.Server.BaseURL)
	}
	if c.Watch.PlayerID == nil || *c.Watch.PlayerID != 5 {
		t.Fatalf("unexpected player id %v", c.Watch.PlayerID)
	}
	if c.Transport.ReconnectDelay != time.Second || !c.Relay.Enabled || c.Poller.MaxConsecutiveFailures != 7 {
		t.Fatalf("env overrides not applied: %+v", c)
	}
}

func TestReadTimeoutCoversPingInterval(t *testing.T) {
	c := Default()
	c.Transport.PingInterval = 45 * time.Second
	if got := c.TransportConfig().ReadTimeout; got != 90*time.Second {
		t.Fatalf("expected read timeout of two ping intervals, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeFile(t, "server: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
