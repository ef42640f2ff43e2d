package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gopair/internal/bridge"
	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/config"
	"github.com/nextlevelbuilder/gopair/internal/engine"
	"github.com/nextlevelbuilder/gopair/internal/journal"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the relay and keep pairs in sync (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context())
		},
	}
}

func runClient(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, cfgPath := mustLoadConfig()
	level := setupLogging(cfg.Logging)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel := initOTelExporter(ctx, cfg)
	defer shutdownOTel()

	eng, err := engine.New(engine.Options{Config: cfg})
	if err != nil {
		return err
	}
	eng.Bus().Subscribe("log", logEvent)

	var background []<-chan struct{}
	if cfg.Journal.Enabled {
		store, err := journal.Open(config.ExpandHome(cfg.Journal.Path), nil)
		if err != nil {
			return err
		}
		defer store.Close()
		rec := journal.NewRecorder(store, 0)
		eng.Bus().Subscribe("journal", rec.Handle)
		go rec.Run(ctx)
		background = append(background, rec.Done())
	}

	if cfg.Bridge.Enabled {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		br, err := bridge.Dial(dialCtx, bridge.Options{
			Addr:     cfg.Bridge.Addr,
			Password: cfg.Bridge.Password,
			DB:       cfg.Bridge.DB,
			Channel:  cfg.Bridge.Channel,
		}, nil)
		cancel()
		if err != nil {
			slog.Warn("bridge disabled", "error", err)
		} else {
			eng.Bus().Subscribe("bridge", br.Handle)
			go br.Run(ctx)
			defer br.Close()
		}
	}

	if w, err := config.NewWatcher(cfgPath); err != nil {
		slog.Warn("config hot reload unavailable", "error", err)
	} else if err := w.Start(); err != nil {
		slog.Debug("config hot reload not started", "path", cfgPath, "error", err)
		w.Stop()
	} else {
		w.OnChange(func(next *config.Config) {
			level.Set(next.Logging.SlogLevel())
			eng.ApplyConfig(next)
		})
		defer w.Stop()
	}

	slog.Info("gopair starting", "version", Version, "relay", cfg.Relay.URL, "config", cfgPath)
	if err := eng.Run(ctx); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	for _, done := range background {
		<-done
	}
	slog.Info("gopair stopped")
	return nil
}

// logEvent traces bus traffic at debug level; restrictive actions and
// connection changes are worth an info line.
func logEvent(e bus.Event) {
	switch p := e.Payload.(type) {
	case bus.HardcoreActionPayload:
		slog.Info("hardcore action", "action", p.Action, "state", p.State, "enactor", p.Enactor, "target", p.Target)
	case bus.ConnectionPayload:
		if p.Connected {
			slog.Info("relay connected", "session", p.Session)
		} else if p.Error != "" {
			slog.Info("relay disconnected", "error", p.Error)
		}
	default:
		slog.Debug("event", "name", e.Name, "payload", e.Payload)
	}
}
