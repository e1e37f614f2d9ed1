package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pythonkids/pad/internal/config"
)

// cleanManifest passes every lint rule on a machine with coreutils: the run
// binary exists on PATH and its --server.port matches the port mapping.
const cleanManifest = `modules:
  - python-3.11
nix:
  channel: stable-23_05
  packages:
    - freetype
    - libjpeg
env:
  GREETING: "hello"
deployment:
  deploymentTarget: autoscale
  run: ["sleep", "0", "--server.port", "5000"]
workflows:
  runButton: Project
  workflow:
    - name: Project
      author: agent
      mode: sequential
      tasks:
        - task: shell.exec
          args: echo $GREETING
ports:
  - localPort: 5000
    externalPort: 80
`

// padHome points every pad path at a fresh temp dir so tests never touch
// real state.
func padHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvPadHome, home)
	t.Setenv(config.EnvPadAppDB, filepath.Join(home, "app.db"))
	t.Setenv(config.EnvPadHistoryDB, filepath.Join(home, "history.db"))
	return home
}

// writeManifestFile writes contents to a temp manifest and points
// PAD_MANIFEST at it.
func writeManifestFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pad.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	t.Setenv(config.EnvPadManifest, path)
	return path
}

// requireShell skips tests that execute real commands when no shell is
// available.
func requireShell(t *testing.T) {
	t.Helper()
	shell := "sh"
	if runtime.GOOS == "windows" {
		shell = "cmd"
	}
	if _, err := exec.LookPath(shell); err != nil {
		t.Skipf("no %s on PATH", shell)
	}
}
