package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/config"
	"github.com/pythonkids/pad/internal/history"
	"github.com/pythonkids/pad/internal/manifest"
	"github.com/pythonkids/pad/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pad",
	Short: "pad manages the PythonKids deployment manifest and application database",
	Long: "pad parses and validates the deployment manifest (pad.yaml), runs its\n" +
		"workflows, reproduces the declared port mapping locally, and administers\n" +
		"the hosted application's SQLite database.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pad: run 'pad --help' to see available commands")
	},
}

// manifestFlag is the persistent --manifest value, resolved through
// config.ManifestPath together with the PAD_MANIFEST override.
var manifestFlag string

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&manifestFlag, "manifest", "f", "",
		"Path to the deployment manifest (default ./"+config.DefaultManifestName+", env "+config.EnvPadManifest+")")
}

// loadManifest resolves the manifest location and parses it.
func loadManifest() (*manifest.Manifest, error) {
	path, err := config.ManifestPath(manifestFlag)
	if err != nil {
		return nil, err
	}
	return manifest.Load(path)
}

// openStore opens the application database pad administers.
func openStore() (*store.Store, error) {
	path, err := config.AppDBPath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

// openHistory opens pad's own run-history database.
func openHistory() (*history.Log, error) {
	path, err := config.HistoryDBPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

// recordRun appends a run to the history database. History bookkeeping never
// fails the run itself; problems surface as a warning on stderr.
func recordRun(run history.Run) {
	l, err := openHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run history: %v\n", err)
		return
	}
	defer func() { _ = l.Close() }()
	if _, err := l.Record(run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run history: %v\n", err)
	}
}
