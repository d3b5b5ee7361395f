package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/scriptarr/internal/executor"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [category]",
	Short: "Probe interpreter resolution for an executor category",
	Long: `Probe interpreter resolution the way the daemon does at launch time.

With no argument, every category is resolved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolveCmd,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolveCmd(cmd *cobra.Command, args []string) error {
	categories := executor.Categories
	if len(args) == 1 {
		cat, err := executor.ParseCategory(args[0])
		if err != nil {
			return err
		}
		categories = []executor.Category{cat}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	resolver := executor.NewResolver(os.Getenv("SCRIPTARR_RUNTIME_DIR"), logger)

	for _, cat := range categories {
		path := resolver.Resolve(cmd.Context(), cat, "")
		if path == "" {
			fmt.Printf("%-12s (direct execution)\n", cat)
			continue
		}
		fmt.Printf("%-12s %s\n", cat, path)
	}
	return nil
}
