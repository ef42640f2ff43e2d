package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "gopair"

// ErrNoToken means neither the config nor the keyring holds a relay token.
var ErrNoToken = errors.New("config: no relay token configured")

// ResolveToken returns the relay token: the configured value first, then
// the OS keyring entry for the relay URL when UseKeyring is set.
func (r RelayConfig) ResolveToken() (string, error) {
	if r.Token != "" {
		return r.Token, nil
	}
	if !r.UseKeyring {
		return "", ErrNoToken
	}
	tok, err := keyring.Get(keyringService, r.URL)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("config: keyring: %w", err)
	}
	return tok, nil
}

// StoreToken saves the token for relayURL in the OS keyring.
func StoreToken(relayURL, token string) error {
	if err := keyring.Set(keyringService, NormalizeRelayURL(relayURL), token); err != nil {
		return fmt.Errorf("config: keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the keyring entry for relayURL. Missing entries are
// not an error.
func DeleteToken(relayURL string) error {
	err := keyring.Delete(keyringService, NormalizeRelayURL(relayURL))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("config: keyring: %w", err)
	}
	return nil
}

// Redacted returns a copy with secrets masked for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Relay.Token = mask(c.Relay.Token)
	out.Bridge.Password = mask(c.Bridge.Password)
	if len(c.Telemetry.Headers) > 0 {
		out.Telemetry.Headers = make(map[string]string, len(c.Telemetry.Headers))
		for k, v := range c.Telemetry.Headers {
			out.Telemetry.Headers[k] = mask(v)
		}
	}
	return &out
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	default:
		return "****"
	}
}
