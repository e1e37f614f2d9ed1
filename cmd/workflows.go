package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "List the declared workflows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(m.Workflows.Items) == 0 {
			fmt.Fprintln(out, "no workflows declared")
			return nil
		}
		for _, w := range m.Workflows.Items {
			author := w.Author
			if author == "" {
				author = "-"
			}
			marker := ""
			if w.Name == m.Workflows.RunButton {
				marker = " [runButton]"
			}
			fmt.Fprintf(out, "- %s\tauthor=%s\tmode=%s\ttasks=%d%s\n",
				w.Name, author, modeLabel(w.Mode), len(w.Tasks), marker)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workflowsCmd)
}
