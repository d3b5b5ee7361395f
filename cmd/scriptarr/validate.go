package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/scriptarr/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE:  runValidateCmd,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	missing, err := config.UnresolvedEnvVars(path)
	if err != nil {
		return err
	}

	cfgErr := &config.ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		fmt.Printf("%s: invalid\n%s\n", path, cfgErr.Error())
		return fmt.Errorf("configuration invalid")
	}

	fmt.Printf("%s: OK (%d settings)\n", path, len(cfg.Settings))
	return nil
}
