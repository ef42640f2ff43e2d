package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gopair/internal/config"
)

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Interactive setup wizard: relay, credentials, journal, bridge",
		Run: func(cmd *cobra.Command, args []string) {
			runOnboard()
		},
	}
}

// canAutoOnboard reports whether the environment carries enough to write a
// config without prompting.
func canAutoOnboard() bool {
	return os.Getenv("GOPAIR_RELAY_URL") != "" && os.Getenv("GOPAIR_RELAY_TOKEN") != ""
}

func runOnboard() {
	cfgPath := resolveConfigPath()

	if canAutoOnboard() {
		fmt.Println("Environment variables detected. Running non-interactive setup...")
		cfg := config.Default()
		cfg.Relay.URL = config.NormalizeRelayURL(os.Getenv("GOPAIR_RELAY_URL"))
		if err := config.Save(cfgPath, cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config saved to %s (token stays in GOPAIR_RELAY_TOKEN)\n", cfgPath)
		return
	}

	fmt.Println(headStyle.Render("gopair setup"))
	fmt.Println()

	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Found existing config at %s\n", cfgPath)
		useExisting, err := promptConfirm("Use existing config as base?", true)
		if err != nil {
			fmt.Println("Cancelled.")
			return
		}
		if useExisting {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				fmt.Printf("Warning: could not load existing config: %v\n", err)
			} else {
				cfg = loaded
			}
		}
	}

	if err := onboardRelay(cfg); err != nil {
		fmt.Println("Cancelled.")
		return
	}
	if err := onboardFeatures(cfg); err != nil {
		fmt.Println("Cancelled.")
		return
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(okStyle.Render("Setup complete."))
	line("Config", cfgPath)
	line("Relay", cfg.Relay.URL)
	if cfg.Relay.UseKeyring {
		line("Token", "OS keyring")
	} else {
		line("Token", "config file")
	}
	line("Journal", enabledText(cfg.Journal.Enabled, cfg.Journal.Path))
	line("Bridge", enabledText(cfg.Bridge.Enabled, cfg.Bridge.Addr))
	fmt.Println()
	fmt.Println("Start with: gopair run")
}

const (
	tokenKeyring = "keyring"
	tokenFile    = "file"
	tokenEnv     = "env"
)

func onboardRelay(cfg *config.Config) error {
	relayURL := cfg.Relay.URL
	storage := tokenKeyring
	if cfg.Relay.Token != "" {
		storage = tokenFile
	}
	var token string

	err := runForm(
		huh.NewGroup(
			textField("Relay URL", "WebSocket endpoint of the relay server", &relayURL, validateRelayURL),
			selectField("Where should the relay token be stored?", []SelectOption[string]{
				{Label: "OS keyring (recommended)", Value: tokenKeyring},
				{Label: "Config file", Value: tokenFile},
				{Label: "Environment only (GOPAIR_RELAY_TOKEN)", Value: tokenEnv},
			}, &storage),
		),
		huh.NewGroup(
			secretField("Relay token", "Issued by the relay when you registered; empty keeps the current one", &token),
		).WithHideFunc(func() bool { return storage == tokenEnv }),
	)
	if err != nil {
		return err
	}

	cfg.Relay.URL = config.NormalizeRelayURL(relayURL)
	switch storage {
	case tokenEnv:
		cfg.Relay.Token = ""
		cfg.Relay.UseKeyring = false
	case tokenKeyring:
		if token == "" {
			token = cfg.Relay.Token
		}
		if token == "" {
			cfg.Relay.UseKeyring = true
			return nil
		}
		if err := config.StoreToken(cfg.Relay.URL, token); err != nil {
			fmt.Printf("Warning: %v; storing the token in the config file instead\n", err)
			cfg.Relay.Token = token
			cfg.Relay.UseKeyring = false
			return nil
		}
		cfg.Relay.Token = ""
		cfg.Relay.UseKeyring = true
	case tokenFile:
		if token != "" {
			cfg.Relay.Token = token
		}
		cfg.Relay.UseKeyring = false
	}
	return nil
}

func onboardFeatures(cfg *config.Config) error {
	return runForm(
		huh.NewGroup(
			confirmField("Treat online pairs as visible (headless mode)?", &cfg.Sync.AutoVisible),
			confirmField("Keep a local journal of permission changes?", &cfg.Journal.Enabled),
			confirmField("Mirror events to Redis?", &cfg.Bridge.Enabled),
		),
		huh.NewGroup(
			textField("Journal path", "SQLite file", &cfg.Journal.Path, nil),
		).WithHideFunc(func() bool { return !cfg.Journal.Enabled }),
		huh.NewGroup(
			textField("Redis address", "host:port", &cfg.Bridge.Addr, nil),
			textField("Redis channel", "", &cfg.Bridge.Channel, nil),
		).WithHideFunc(func() bool { return !cfg.Bridge.Enabled }),
		huh.NewGroup(
			selectField("Log level", []SelectOption[string]{
				{Label: "info", Value: "info"},
				{Label: "debug", Value: "debug"},
				{Label: "warn", Value: "warn"},
				{Label: "error", Value: "error"},
			}, &cfg.Logging.Level),
			selectField("Log format", []SelectOption[string]{
				{Label: "text", Value: "text"},
				{Label: "json", Value: "json"},
			}, &cfg.Logging.Format),
		),
	)
}

func validateRelayURL(s string) error {
	if s == "" {
		return errors.New("required")
	}
	u, err := url.Parse(config.NormalizeRelayURL(s))
	if err != nil {
		return err
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
