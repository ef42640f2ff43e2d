// Package config loads gopair's configuration from a json5 or YAML file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"

	"github.com/nextlevelbuilder/gopair/internal/scheduler"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "GOPAIR_CONFIG"

// Config is the root configuration.
type Config struct {
	Relay     RelayConfig     `json:"relay" yaml:"relay"`
	Sync      SyncConfig      `json:"sync" yaml:"sync"`
	Profiles  ProfilesConfig  `json:"profiles" yaml:"profiles"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Bridge    BridgeConfig    `json:"bridge" yaml:"bridge"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// RelayConfig is the connection to the relay server.
type RelayConfig struct {
	URL   string `json:"url" yaml:"url"`
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// UseKeyring reads the token from the OS keyring when Token is empty.
	UseKeyring     bool    `json:"useKeyring,omitempty" yaml:"useKeyring,omitempty"`
	CallsPerSecond float64 `json:"callsPerSecond,omitempty" yaml:"callsPerSecond,omitempty"`
	Burst          int     `json:"burst,omitempty" yaml:"burst,omitempty"`
	CallTimeoutMs  int     `json:"callTimeoutMs,omitempty" yaml:"callTimeoutMs,omitempty"`
	ReconnectMinMs int     `json:"reconnectMinMs,omitempty" yaml:"reconnectMinMs,omitempty"`
	ReconnectMaxMs int     `json:"reconnectMaxMs,omitempty" yaml:"reconnectMaxMs,omitempty"`
}

// SyncConfig tunes the pair engine.
type SyncConfig struct {
	TickMs          int `json:"tickMs,omitempty" yaml:"tickMs,omitempty"`
	PollIntervalMs  int `json:"pollIntervalMs,omitempty" yaml:"pollIntervalMs,omitempty"`
	ApplyTimeoutMs  int `json:"applyTimeoutMs,omitempty" yaml:"applyTimeoutMs,omitempty"`
	RefreshWindowMs int `json:"refreshWindowMs,omitempty" yaml:"refreshWindowMs,omitempty"`
	DedupeTTLMs     int `json:"dedupeTtlMs,omitempty" yaml:"dedupeTtlMs,omitempty"`
	// AutoVisible creates a handle as soon as a pair comes online. Headless
	// runs have no render layer to report range.
	AutoVisible bool `json:"autoVisible,omitempty" yaml:"autoVisible,omitempty"`
}

type ProfilesConfig struct {
	Size  int `json:"size,omitempty" yaml:"size,omitempty"`
	TTLMs int `json:"ttlMs,omitempty" yaml:"ttlMs,omitempty"`
}

type SchedulerConfig struct {
	Lanes []scheduler.LaneConfig `json:"lanes,omitempty" yaml:"lanes,omitempty"`
	Queue scheduler.QueueConfig  `json:"queue" yaml:"queue"`
}

// JournalConfig enables the local SQLite history of permission changes.
type JournalConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// BridgeConfig mirrors bus events to a Redis channel.
type BridgeConfig struct {
	Enabled  bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Channel  string `json:"channel,omitempty" yaml:"channel,omitempty"`
}

type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // text, json
}

type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty" yaml:"protocol,omitempty"` // grpc, http
	Insecure    bool              `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	ServiceName string            `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Default returns a config with every default applied.
func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			URL:            "ws://127.0.0.1:18790/ws",
			CallsPerSecond: 20,
			Burst:          40,
			CallTimeoutMs:  30_000,
			ReconnectMinMs: 1_000,
			ReconnectMaxMs: 60_000,
		},
		Sync: SyncConfig{
			TickMs:          1_000,
			PollIntervalMs:  100,
			ApplyTimeoutMs:  120_000,
			RefreshWindowMs: 250,
			DedupeTTLMs:     300_000,
		},
		Profiles: ProfilesConfig{Size: 256, TTLMs: 600_000},
		Scheduler: SchedulerConfig{
			Lanes: scheduler.DefaultLanes(),
			Queue: scheduler.DefaultQueueConfig(),
		},
		Journal: JournalConfig{Path: "~/.gopair/journal.db"},
		Bridge:  BridgeConfig{Addr: "127.0.0.1:6379", Channel: "gopair:events"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "gopair",
		},
	}
}

// Load reads the config at path on top of Default. A missing file is not
// an error. GOPAIR_RELAY_URL and GOPAIR_RELAY_TOKEN override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := cfg.decode(path, data); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json5.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return nil
}

// Save writes cfg to path, creating the directory. The encoding follows the
// file extension like Load. The write goes through a temp file and rename.
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GOPAIR_RELAY_URL"); v != "" {
		c.Relay.URL = v
	}
	if v := os.Getenv("GOPAIR_RELAY_TOKEN"); v != "" {
		c.Relay.Token = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Relay.URL == "" {
		return errors.New("config: relay.url is required")
	}
	if !strings.HasPrefix(c.Relay.URL, "ws://") && !strings.HasPrefix(c.Relay.URL, "wss://") {
		return fmt.Errorf("config: relay.url %q must use ws:// or wss://", c.Relay.URL)
	}
	if c.Sync.TickMs <= 0 || c.Sync.PollIntervalMs <= 0 || c.Sync.ApplyTimeoutMs <= 0 {
		return errors.New("config: sync intervals must be positive")
	}
	if c.Sync.PollIntervalMs > c.Sync.ApplyTimeoutMs {
		return errors.New("config: sync.pollIntervalMs exceeds sync.applyTimeoutMs")
	}
	if c.Profiles.Size <= 0 {
		return errors.New("config: profiles.size must be positive")
	}
	for _, l := range c.Scheduler.Lanes {
		if l.Name == "" || l.Concurrency <= 0 {
			return fmt.Errorf("config: invalid scheduler lane %+v", l)
		}
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("config: telemetry.protocol %q must be grpc or http", c.Telemetry.Protocol)
	}
	if c.Bridge.Enabled && c.Bridge.Channel == "" {
		return errors.New("config: bridge.channel is required when the bridge is enabled")
	}
	return nil
}

// ResolvePath returns $GOPAIR_CONFIG or ~/.gopair/config.json5.
func ResolvePath() string {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	return ExpandHome("~/.gopair/config.json5")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (s SyncConfig) Tick() time.Duration          { return ms(s.TickMs) }
func (s SyncConfig) PollInterval() time.Duration  { return ms(s.PollIntervalMs) }
func (s SyncConfig) ApplyTimeout() time.Duration  { return ms(s.ApplyTimeoutMs) }
func (s SyncConfig) RefreshWindow() time.Duration { return ms(s.RefreshWindowMs) }
func (s SyncConfig) DedupeTTL() time.Duration     { return ms(s.DedupeTTLMs) }

func (r RelayConfig) CallTimeout() time.Duration  { return ms(r.CallTimeoutMs) }
func (r RelayConfig) ReconnectMin() time.Duration { return ms(r.ReconnectMinMs) }
func (r RelayConfig) ReconnectMax() time.Duration { return ms(r.ReconnectMaxMs) }

func (p ProfilesConfig) TTL() time.Duration { return ms(p.TTLMs) }
