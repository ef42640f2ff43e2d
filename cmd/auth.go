package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gopair/internal/config"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the relay token in the OS keyring",
	}
	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authLogoutCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the relay token in the keyring and enable keyring lookup",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, cfgPath := mustLoadConfig()
			if token == "" {
				var err error
				token, err = promptPassword("Relay token", "Stored for "+cfg.Relay.URL)
				if err != nil {
					fmt.Println("Cancelled.")
					return
				}
			}
			if token == "" {
				fmt.Fprintln(os.Stderr, "No token given.")
				os.Exit(1)
			}
			if err := config.StoreToken(cfg.Relay.URL, token); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			if !cfg.Relay.UseKeyring || cfg.Relay.Token != "" {
				cfg.Relay.UseKeyring = true
				cfg.Relay.Token = ""
				if err := config.Save(cfgPath, cfg); err != nil {
					fmt.Fprintf(os.Stderr, "Token stored, but saving config failed: %s\n", err)
					os.Exit(1)
				}
			}
			fmt.Printf("Token stored for %s.\n", cfg.Relay.URL)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token to store (prompted when empty)")
	return cmd
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the relay token from the keyring",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, _ := mustLoadConfig()
			if err := config.DeleteToken(cfg.Relay.URL); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("Token removed for %s.\n", cfg.Relay.URL)
		},
	}
}
