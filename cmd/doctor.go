package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gopair/internal/config"
	"github.com/nextlevelbuilder/gopair/internal/hub"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	headStyle = lipgloss.NewStyle().Bold(true)
	keyStyle  = lipgloss.NewStyle().Width(12)
)

func doctorCmd() *cobra.Command {
	var skipRelay bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and relay reachability",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor(cmd.Context(), skipRelay)
		},
	}
	cmd.Flags().BoolVar(&skipRelay, "offline", false, "skip the relay handshake")
	return cmd
}

func runDoctor(ctx context.Context, offline bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Println(headStyle.Render("gopair doctor"))
	line("Version", fmt.Sprintf("%s (protocol %d)", Version, protocol.ProtocolVersion))
	line("OS", runtime.GOOS+"/"+runtime.GOARCH)
	line("Go", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	if _, err := os.Stat(cfgPath); err != nil {
		line("Config", cfgPath+" "+warnStyle.Render("(not found, using defaults)"))
	} else {
		line("Config", cfgPath+" "+okStyle.Render("(OK)"))
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		line("Config", failStyle.Render(err.Error()))
		return
	}

	line("Relay", cfg.Relay.URL)
	token, err := cfg.Relay.ResolveToken()
	switch {
	case err == nil && cfg.Relay.Token != "":
		line("Token", okStyle.Render("from config"))
	case err == nil:
		line("Token", okStyle.Render("from keyring"))
	case errors.Is(err, config.ErrNoToken):
		line("Token", failStyle.Render("missing")+" (run `gopair auth login`)")
	default:
		line("Token", failStyle.Render(err.Error()))
	}

	line("Journal", enabledText(cfg.Journal.Enabled, config.ExpandHome(cfg.Journal.Path)))
	line("Bridge", enabledText(cfg.Bridge.Enabled, cfg.Bridge.Addr))
	line("Telemetry", enabledText(cfg.Telemetry.Enabled, cfg.Telemetry.Endpoint))

	if offline || token == "" {
		fmt.Println()
		fmt.Println("Doctor check complete.")
		return
	}

	fmt.Println()
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client := hub.NewClient(hub.Config{
		URL:         cfg.Relay.URL,
		Token:       token,
		CallTimeout: cfg.Relay.CallTimeout(),
	}, nil)
	res, err := client.Connect(dialCtx)
	if err != nil {
		line("Handshake", failStyle.Render(err.Error()))
	} else {
		line("Handshake", okStyle.Render(fmt.Sprintf("OK as %s (%d pairs)", res.User.AliasOrUID(), len(res.Pairs))))
	}
	client.Close()

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func line(key, value string) {
	fmt.Println("  " + keyStyle.Render(key+":") + " " + value)
}

func enabledText(enabled bool, detail string) string {
	if !enabled {
		return warnStyle.Render("disabled")
	}
	return okStyle.Render("enabled") + " " + detail
}
