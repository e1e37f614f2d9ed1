package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/lint"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the deployment manifest",
	Long: "Validate the deployment manifest against pad's lint rules: schema\n" +
		"structure, package list, port mappings, workflow references, and the\n" +
		"run command. Exits non-zero when any error-level finding is present.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		asJSON, _ := cmd.Flags().GetBool("json")

		m, err := loadManifest()
		if err != nil {
			return err
		}
		findings := lint.Check(m)
		out := cmd.OutOrStdout()

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(findings); err != nil {
				return err
			}
		} else {
			for _, f := range findings {
				fmt.Fprintln(out, f.String())
			}
		}

		errs, warns := lint.CountBySeverity(findings)
		if !asJSON {
			fmt.Fprintf(out, "%d error(s), %d warning(s)\n", errs, warns)
		}
		if errs > 0 {
			return fmt.Errorf("manifest has %d error(s)", errs)
		}
		if strict && warns > 0 {
			return fmt.Errorf("manifest has %d warning(s) (strict)", warns)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("strict", false, "Treat warnings as errors")
	checkCmd.Flags().Bool("json", false, "Emit findings as JSON")
	rootCmd.AddCommand(checkCmd)
}
