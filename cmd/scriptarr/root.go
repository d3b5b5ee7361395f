package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/scriptarr/internal/config"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "scriptarr",
	Short: "CLI for scriptarr event-driven script execution",
	Long: `scriptarr - operator CLI for the scriptarr daemon

Validate configuration, inspect configured script settings,
probe interpreter resolution, and review run history.

Run 'scriptarrd' to start the daemon.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: auto-discover)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("scriptarr {{.Version}}\n")
}

// loadConfig resolves the config path and loads it.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, "", err
		}
		path = discovered
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
