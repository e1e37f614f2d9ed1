package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/config"
	"github.com/pythonkids/pad/internal/identity"
	"github.com/pythonkids/pad/internal/manifest"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the PythonKids starter manifest",
	Long: "Write the starter manifest for the PythonKids Streamlit app: its native\n" +
		"package set, the autoscale run command, the Project workflow, and the\n" +
		"5000 -> 80 port mapping. The workflow author comes from 'pad whoami'.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path, err := config.ManifestPath(manifestFlag)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		author := ""
		if a, ok, err := identity.Get(); err == nil && ok {
			author = a.Name
		}
		data, err := manifest.Starter(author)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing manifest")
	rootCmd.AddCommand(initCmd)
}
