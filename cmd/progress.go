package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect and adjust learning progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show a user's points and completed items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		p, err := st.Progress(u.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		row(out, "points", fmt.Sprintf("%d", p.Points))
		row(out, "tutorials", joinOrDash(p.CompletedTutorials))
		row(out, "challenges", joinOrDash(p.CompletedChallenges))
		row(out, "emojis", joinOrDash(p.EmojiCollection))
		return nil
	},
}

var progressSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Set points or record completed items",
	Long: "Set a user's points and append completed tutorials, challenges, or\n" +
		"collected emojis. Additions are deduplicated; points change only when\n" +
		"--points is given.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, _ := cmd.Flags().GetInt("points")
		tutorials, _ := cmd.Flags().GetStringSlice("add-tutorial")
		challenges, _ := cmd.Flags().GetStringSlice("add-challenge")
		emojis, _ := cmd.Flags().GetStringSlice("add-emoji")

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
		p, err := st.Progress(u.ID)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("points") {
			p.Points = points
		}
		p.CompletedTutorials = appendMissing(p.CompletedTutorials, tutorials)
		p.CompletedChallenges = appendMissing(p.CompletedChallenges, challenges)
		p.EmojiCollection = appendMissing(p.EmojiCollection, emojis)

		if err := st.UpdateProgress(u.ID, p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated progress for %s: %d points, %d tutorial(s), %d challenge(s), %d emoji(s)\n",
			u.Username, p.Points, len(p.CompletedTutorials), len(p.CompletedChallenges), len(p.EmojiCollection))
		return nil
	},
}

// appendMissing appends each item not already present, preserving order.
func appendMissing(have, add []string) []string {
	seen := make(map[string]bool, len(have))
	for _, v := range have {
		seen[v] = true
	}
	for _, v := range add {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		have = append(have, v)
	}
	return have
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func init() {
	progressSetCmd.Flags().Int("points", 0, "Set the points total")
	progressSetCmd.Flags().StringSlice("add-tutorial", nil, "Record a completed tutorial (repeatable)")
	progressSetCmd.Flags().StringSlice("add-challenge", nil, "Record a completed challenge (repeatable)")
	progressSetCmd.Flags().StringSlice("add-emoji", nil, "Record a collected emoji (repeatable)")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressSetCmd)
	rootCmd.AddCommand(progressCmd)
}
