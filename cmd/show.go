package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the deployment manifest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "manifest:  %s\n", m.Path())
		if len(m.Modules) > 0 {
			fmt.Fprintf(out, "modules:   %s\n", strings.Join(m.Modules, ", "))
		}
		fmt.Fprintf(out, "target:    %s\n", m.Deployment.Target)
		fmt.Fprintf(out, "run:       %s\n", m.Deployment.Run.String())
		if m.Nix.Channel != "" {
			fmt.Fprintf(out, "channel:   %s\n", m.Nix.Channel)
		}
		fmt.Fprintf(out, "packages:  %d\n", len(m.Nix.Packages))
		for _, p := range m.Ports {
			fmt.Fprintf(out, "ports:     %d -> %d\n", p.LocalPort, p.ExternalPort)
		}
		for _, k := range m.EnvList() {
			fmt.Fprintf(out, "env:       %s\n", k)
		}
		for _, w := range m.Workflows.Items {
			marker := ""
			if w.Name == m.Workflows.RunButton {
				marker = " [runButton]"
			}
			fmt.Fprintf(out, "workflow:  %s (%s, %d task(s))%s\n", w.Name, modeLabel(w.Mode), len(w.Tasks), marker)
		}
		return nil
	},
}

// modeLabel names a workflow mode for display, spelling out the default.
func modeLabel(mode string) string {
	if mode == "" {
		return "sequential"
	}
	return mode
}

func init() {
	rootCmd.AddCommand(showCmd)
}
