package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zalando/go-keyring"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadJSON5(t *testing.T) {
	path := writeFile(t, "config.json5", `{
		// relay
		relay: { url: "https://relay.example/ws/", token: "abc" },
		sync: { tickMs: 500, autoVisible: true },
		logging: { level: "DEBUG" },
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.URL != "wss://relay.example/ws" {
		t.Errorf("relay.url = %q", cfg.Relay.URL)
	}
	if cfg.Sync.Tick() != 500*time.Millisecond || !cfg.Sync.AutoVisible {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if cfg.Sync.PollInterval() != 100*time.Millisecond {
		t.Errorf("default poll interval lost: %v", cfg.Sync.PollInterval())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
relay:
  url: ws://10.0.0.2:18790/ws
scheduler:
  lanes:
    - name: push
      concurrency: 2
journal:
  enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.URL != "ws://10.0.0.2:18790/ws" {
		t.Errorf("relay.url = %q", cfg.Relay.URL)
	}
	if len(cfg.Scheduler.Lanes) != 1 || cfg.Scheduler.Lanes[0].Concurrency != 2 {
		t.Errorf("lanes = %+v", cfg.Scheduler.Lanes)
	}
	if !cfg.Journal.Enabled {
		t.Error("journal.enabled = false")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GOPAIR_RELAY_URL", "wss://env.example")
	t.Setenv("GOPAIR_RELAY_TOKEN", "from-env")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.json5"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Relay.URL != "wss://env.example" || cfg.Relay.Token != "from-env" {
		t.Errorf("relay = %+v", cfg.Relay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.Relay.URL = "ftp://x" }},
		{"zero tick", func(c *Config) { c.Sync.TickMs = 0 }},
		{"poll above timeout", func(c *Config) { c.Sync.PollIntervalMs = c.Sync.ApplyTimeoutMs + 1 }},
		{"zero profiles", func(c *Config) { c.Profiles.Size = 0 }},
		{"bad lane", func(c *Config) { c.Scheduler.Lanes[0].Concurrency = 0 }},
		{"bad telemetry", func(c *Config) { c.Telemetry.Protocol = "udp" }},
		{"bridge without channel", func(c *Config) { c.Bridge.Enabled = true; c.Bridge.Channel = "" }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoadParseError(t *testing.T) {
	path := writeFile(t, "config.json5", `{ relay: `)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNormalizeRelayURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"  ws://a/ws  ", "ws://a/ws"},
		{"http://a:1/", "ws://a:1"},
		{"https://a/ws//", "wss://a/ws"},
		{"relay.example:18790", "ws://relay.example:18790"},
	}
	for _, tt := range tests {
		if got := NormalizeRelayURL(tt.in); got != tt.want {
			t.Errorf("NormalizeRelayURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveToken(t *testing.T) {
	keyring.MockInit()

	r := RelayConfig{URL: "wss://relay.example"}
	if _, err := r.ResolveToken(); !errors.Is(err, ErrNoToken) {
		t.Errorf("no token err = %v, want ErrNoToken", err)
	}

	r.UseKeyring = true
	if _, err := r.ResolveToken(); !errors.Is(err, ErrNoToken) {
		t.Errorf("empty keyring err = %v, want ErrNoToken", err)
	}
	if err := StoreToken("https://relay.example/", "kr-token"); err != nil {
		t.Fatal(err)
	}
	if tok, err := r.ResolveToken(); err != nil || tok != "kr-token" {
		t.Errorf("ResolveToken = %q, %v", tok, err)
	}

	r.Token = "inline"
	if tok, _ := r.ResolveToken(); tok != "inline" {
		t.Errorf("inline token not preferred, got %q", tok)
	}

	if err := DeleteToken("wss://relay.example"); err != nil {
		t.Fatal(err)
	}
	if err := DeleteToken("wss://relay.example"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Relay.Token = "0123456789abcdef"
	cfg.Bridge.Password = "pw"
	r := cfg.Redacted()
	if r.Relay.Token != "0123****cdef" || r.Bridge.Password != "****" {
		t.Errorf("redacted = %q / %q", r.Relay.Token, r.Bridge.Password)
	}
	if cfg.Relay.Token != "0123456789abcdef" {
		t.Error("Redacted modified the original")
	}
}

func TestWatcherReloads(t *testing.T) {
	path := writeFile(t, "config.json5", `{ sync: { tickMs: 1000 } }`)
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 20 * time.Millisecond
	got := make(chan *Config, 4)
	w.OnChange(func(c *Config) { got <- c })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`{ sync: { tickMs: 250 } }`), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-got:
		if c.Sync.TickMs != 250 {
			t.Errorf("reloaded tickMs = %d, want 250", c.Sync.TickMs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json5", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Relay.URL = "wss://relay.example.com/ws"
			cfg.Journal.Enabled = true
			cfg.Sync.TickMs = 500

			if err := Save(path, cfg); err != nil {
				t.Fatalf("Save: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Errorf("perm = %v, want 0600", perm)
			}

			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(cfg, got); diff != "" {
				t.Errorf("round trip (-want +got):\n%s", diff)
			}
		})
	}
}
