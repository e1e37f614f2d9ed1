package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pythonkids/pad/internal/executor"
	"github.com/pythonkids/pad/internal/history"
	"github.com/pythonkids/pad/internal/manifest"
	"github.com/pythonkids/pad/internal/proxy"
	"github.com/pythonkids/pad/internal/security"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the app and forward the external port to it",
	Long: "serve starts the manifest's deployment run command, waits until the\n" +
		"declared localPort accepts connections, then forwards externalPort to it.\n" +
		"This approximates the autoscale deployment target with one local instance.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		noRun, _ := cmd.Flags().GetBool("no-run")
		readyTimeout, _ := cmd.Flags().GetDuration("ready-timeout")
		verbose, _ := cmd.Flags().GetBool("verbose")
		force, _ := cmd.Flags().GetBool("force")

		m, err := loadManifest()
		if err != nil {
			return err
		}
		if m.Deployment.Run.IsZero() && !noRun {
			return fmt.Errorf("manifest declares no deployment run command")
		}
		pm := m.FirstPort()
		if pm == nil {
			return fmt.Errorf("manifest declares no port mapping")
		}

		out := cmd.OutOrStdout()
		errw := cmd.ErrOrStderr()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		started := time.Now().UTC()

		if !noRun {
			command := m.Deployment.Run.String()
			if !force {
				if err := security.CheckAllowed(command); err != nil {
					return err
				}
			}
			e := executor.New(false, verbose)
			e.Env = m.EnvList()
			cwd := ""
			if m.Path() != "" {
				cwd = filepath.Dir(m.Path())
			}
			g.Go(func() error {
				fmt.Fprintf(out, "starting: %s\n", command)
				err := e.Execute(gctx, command, cwd, nil, out, errw)
				if err != nil && gctx.Err() == nil {
					return fmt.Errorf("run command: %w", err)
				}
				return nil
			})
		}

		target := fmt.Sprintf("127.0.0.1:%d", pm.LocalPort)
		if err := proxy.WaitReady(gctx, target, readyTimeout); err != nil {
			stop()
			if werr := g.Wait(); werr != nil {
				err = werr
			}
			recordServe(m, started, history.StatusFailed, err.Error())
			return err
		}
		fmt.Fprintf(out, "application ready on %s\n", target)

		p := proxy.New(pm.LocalPort)
		p.Logf = func(format string, args ...interface{}) {
			fmt.Fprintf(errw, format+"\n", args...)
		}
		g.Go(func() error {
			fmt.Fprintf(out, "forwarding :%d -> %s\n", pm.ExternalPort, target)
			return p.ListenAndServe(gctx, pm.ExternalPort)
		})

		err = g.Wait()
		status := history.StatusOK
		detail := fmt.Sprintf("forwarded :%d -> %s", pm.ExternalPort, target)
		if err != nil {
			status = history.StatusFailed
			detail = err.Error()
		}
		recordServe(m, started, status, detail)
		return err
	},
}

func recordServe(m *manifest.Manifest, started time.Time, status, detail string) {
	recordRun(history.Run{
		Workflow:     "serve",
		ManifestPath: m.Path(),
		Status:       status,
		Detail:       detail,
		StartedAt:    started,
		FinishedAt:   time.Now().UTC(),
	})
}

func init() {
	serveCmd.Flags().Bool("no-run", false, "Only forward; assume the app is already running")
	serveCmd.Flags().Duration("ready-timeout", 60*time.Second, "How long to wait for the local port to accept connections")
	serveCmd.Flags().Bool("verbose", false, "Echo the run command before it starts")
	serveCmd.Flags().Bool("force", false, "Skip the command safety screen")
	rootCmd.AddCommand(serveCmd)
}
