package main

import (
	"database/sql"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/vmunix/scriptarr/internal/runner"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent script runs",
	RunE:  runRunsCmd,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
}

func runRunsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	results, err := runner.NewStore(db).Recent(limit)
	if err != nil {
		return fmt.Errorf("fetch runs: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSETTING\tEVENT\tOUTCOME\tEXIT\tDURATION")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.StartedAt.Format(time.RFC3339), r.SettingName, r.EventType,
			r.Outcome, r.ExitCode, r.Duration.Round(time.Millisecond))
	}
	return w.Flush()
}
