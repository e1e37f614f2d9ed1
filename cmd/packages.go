package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/lint"
)

var packagesCmd = &cobra.Command{
	Use:          "packages",
	Short:        "List the declared nix packages",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		checkOnly, _ := cmd.Flags().GetBool("check")

		m, err := loadManifest()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if checkOnly {
			var bad int
			for _, f := range lint.Check(m) {
				if !strings.HasPrefix(f.Rule, "package-") {
					continue
				}
				fmt.Fprintln(out, f.String())
				if f.Severity == lint.SeverityError {
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("package list has %d error(s)", bad)
			}
			fmt.Fprintf(out, "%d package(s), no problems\n", len(m.Nix.Packages))
			return nil
		}

		for _, p := range m.Nix.Packages {
			fmt.Fprintf(out, "- %s\n", p)
		}
		return nil
	},
}

func init() {
	packagesCmd.Flags().Bool("check", false, "Run only the package lint rules")
	rootCmd.AddCommand(packagesCmd)
}
