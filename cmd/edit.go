package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/config"
	"github.com/pythonkids/pad/internal/lint"
	"github.com/pythonkids/pad/internal/manifest"
	"github.com/pythonkids/pad/internal/utils"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the manifest in $EDITOR and re-check it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.ManifestPath(manifestFlag)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("manifest not found at %s (run 'pad init' first)", path)
		}

		if err := utils.OpenEditor(path); err != nil {
			return err
		}

		m, err := manifest.Load(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		findings := lint.Check(m)
		for _, f := range findings {
			fmt.Fprintln(out, f.String())
		}
		errs, warns := lint.CountBySeverity(findings)
		fmt.Fprintf(out, "%d error(s), %d warning(s)\n", errs, warns)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
