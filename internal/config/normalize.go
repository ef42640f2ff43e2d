package config

import (
	"log/slog"
	"strings"
)

// normalize canonicalizes free-form values after decoding.
func (c *Config) normalize() {
	c.Relay.URL = NormalizeRelayURL(c.Relay.URL)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Telemetry.Protocol = strings.ToLower(strings.TrimSpace(c.Telemetry.Protocol))
	if c.Relay.ReconnectMaxMs < c.Relay.ReconnectMinMs {
		c.Relay.ReconnectMaxMs = c.Relay.ReconnectMinMs
	}
}

// NormalizeRelayURL maps http(s) schemes to ws(s) and trims whitespace and
// trailing slashes:
//   - "https://relay.example/ws/" -> "wss://relay.example/ws"
//   - "relay.example:18790"       -> "ws://relay.example:18790"
func NormalizeRelayURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	case !strings.Contains(u, "://"):
		u = "ws://" + u
	}
	return strings.TrimRight(u, "/")
}

// SlogLevel maps the configured level to slog; unknown names mean info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
