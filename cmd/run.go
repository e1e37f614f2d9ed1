package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/executor"
	"github.com/pythonkids/pad/internal/history"
	"github.com/pythonkids/pad/internal/utils"
	"github.com/pythonkids/pad/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run [workflow]",
	Short: "Run a workflow from the manifest",
	Long: "Run a named workflow from the manifest, or the runButton workflow when\n" +
		"no name is given. Tasks run through the system shell from the manifest's\n" +
		"directory; workflow.run tasks expand into the referenced workflow's steps.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dry, _ := cmd.Flags().GetBool("dry-run")
		confirmFlag, _ := cmd.Flags().GetBool("confirm")
		verbose, _ := cmd.Flags().GetBool("verbose")
		force, _ := cmd.Flags().GetBool("force")

		m, err := loadManifest()
		if err != nil {
			return err
		}

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			w := m.DefaultWorkflow()
			if w == nil {
				return fmt.Errorf("no workflow named and no runButton declared in %s", m.Path())
			}
			name = w.Name
		}

		plan, err := workflow.NewPlan(m, name)
		if err != nil {
			return err
		}

		if confirmFlag && !dry {
			if !utils.Confirm(fmt.Sprintf("Run workflow '%s' (%d step(s)) now?", name, len(plan.Steps()))) {
				cmd.Println("aborted")
				return nil
			}
		}

		exec := executor.New(dry, verbose)
		exec.Env = m.EnvList()
		r := &workflow.Runner{
			Exec:   exec,
			Stdin:  cmd.InOrStdin(),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
			Opts:   workflow.Options{Force: force},
		}

		// No timeout here: workflows in this manifest family start servers
		// that run until interrupted.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		started := time.Now().UTC()
		runErr := r.RunPlan(ctx, m, plan)

		status := history.StatusOK
		detail := fmt.Sprintf("%d step(s)", len(plan.Steps()))
		if dry {
			status = history.StatusDryRun
		}
		if runErr != nil {
			status = history.StatusFailed
			detail = runErr.Error()
		}
		recordRun(history.Run{
			Workflow:     name,
			ManifestPath: m.Path(),
			Mode:         plan.Mode,
			Status:       status,
			Detail:       detail,
			StartedAt:    started,
			FinishedAt:   time.Now().UTC(),
		})
		return runErr
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "Print the commands without executing them")
	runCmd.Flags().Bool("confirm", false, "Ask for confirmation before running")
	runCmd.Flags().Bool("verbose", false, "Echo each command before it runs")
	runCmd.Flags().Bool("force", false, "Override safety checks and force execution")
	rootCmd.AddCommand(runCmd)
}
