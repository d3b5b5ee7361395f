package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "List configured script settings",
	RunE:  runSettingsCmd,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsCmd(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	if len(cfg.Settings) == 0 {
		fmt.Println("No script settings configured.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENABLED\tPRIORITY\tMODE\tEXECUTOR\tSCRIPT\tTRIGGERS")
	for _, s := range cfg.Settings {
		triggers := make([]string, len(s.Triggers))
		for i, t := range s.Triggers {
			triggers[i] = string(t)
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.Enabled, s.Priority, s.Mode, s.Executor,
			s.ScriptName, strings.Join(triggers, ","))
	}
	return w.Flush()
}
