package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events <username>",
	Short: "Show a user's recent activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		u, err := st.GetUser(args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user not found: %s", args[0])
		}
		events, err := st.RecentEvents(u.ID, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "no recorded events")
			return nil
		}
		for _, e := range events {
			details := ""
			if e.Details.Valid {
				details = "\t" + e.Details.String
			}
			fmt.Fprintf(out, "%s\t%s%s\n", e.Timestamp, e.Type, details)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().IntP("limit", "n", 0, "How many events to show (default 50)")
	rootCmd.AddCommand(eventsCmd)
}
