package cmd

import (
	"fmt"
	"os"

	"github.com/nextlevelbuilder/gopair/internal/config"
)

// mustLoadConfig loads the resolved config or exits with a message.
func mustLoadConfig() (*config.Config, string) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}
	return cfg, cfgPath
}
