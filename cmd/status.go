package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show resolved paths and recent activity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()

		manifestPath, err := config.ManifestPath(manifestFlag)
		if err != nil {
			return err
		}
		appDB, err := config.AppDBPath()
		if err != nil {
			return err
		}
		historyDB, err := config.HistoryDBPath()
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "manifest:   %s (%s)\n", manifestPath, presence(manifestPath))
		fmt.Fprintf(out, "app db:     %s (%s)\n", appDB, presence(appDB))
		fmt.Fprintf(out, "history db: %s (%s)\n", historyDB, presence(historyDB))

		if _, err := os.Stat(historyDB); err != nil {
			fmt.Fprintln(out, "last run:   none recorded")
			return nil
		}
		l, err := openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = l.Close() }()
		last, err := l.LastRun()
		if err != nil {
			return err
		}
		if last == nil {
			fmt.Fprintln(out, "last run:   none recorded")
			return nil
		}
		fmt.Fprintf(out, "last run:   %s (%s, %s)\n", last.Workflow, last.Status, humanize.Time(last.StartedAt))
		return nil
	},
}

func presence(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "missing"
	}
	return "present"
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
