package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent workflow and serve runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		wfFilter, _ := cmd.Flags().GetString("workflow")
		clearFlag, _ := cmd.Flags().GetBool("clear")

		l, err := openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = l.Close() }()
		out := cmd.OutOrStdout()

		if clearFlag {
			n, err := l.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "cleared %d run(s)\n", n)
			return nil
		}

		runs, err := l.List(wfFilter, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "no recorded runs")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\n",
				r.ID, r.Workflow, r.Status, r.Duration().Round(timeRounding), humanize.Time(r.StartedAt))
		}
		return nil
	},
}

// timeRounding keeps durations in the listing readable.
const timeRounding = 10 * time.Millisecond

func init() {
	historyCmd.Flags().IntP("limit", "n", 0, "How many runs to show (default 20)")
	historyCmd.Flags().String("workflow", "", "Only show runs of this workflow")
	historyCmd.Flags().Bool("clear", false, "Delete all recorded runs")
	rootCmd.AddCommand(historyCmd)
}
