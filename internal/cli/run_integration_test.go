package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pythonkids/pad/internal/executor"
	"github.com/pythonkids/pad/internal/history"
	"github.com/pythonkids/pad/internal/manifest"
	"github.com/pythonkids/pad/internal/workflow"
)

const integrationManifest = `deployment:
  deploymentTarget: autoscale
  run: ["streamlit", "run", "app.py", "--server.port", "5000"]
workflows:
  runButton: Project
  workflow:
    - name: Project
      author: agent
      tasks:
        - task: shell.exec
          args: echo one
        - task: shell.exec
          args: echo two
ports:
  - localPort: 5000
    externalPort: 80
`

// Wires manifest parsing, workflow planning, the executor, and run history
// together without going through cobra.
func TestRunIntegrationDryRun(t *testing.T) {
	m, err := manifest.Parse([]byte(integrationManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	plan, err := workflow.NewPlan(m, "Project")
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if got := len(plan.Steps()); got != 2 {
		t.Fatalf("expected 2 steps, got %d", got)
	}

	var out, errb bytes.Buffer
	r := &workflow.Runner{
		Exec:   &executor.Executor{DryRun: true, Verbose: true},
		Stdout: &out,
		Stderr: &errb,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := time.Now().UTC()
	if err := r.RunPlan(ctx, m, plan); err != nil {
		t.Fatalf("RunPlan: %v", err)
	}

	if !strings.Contains(out.String(), "dry-run: echo one") ||
		!strings.Contains(out.String(), "dry-run: echo two") {
		t.Fatalf("dry-run lines missing from output: %q", out.String())
	}
	if errb.Len() != 0 {
		t.Fatalf("expected no stderr for dry-run, got: %q", errb.String())
	}

	l, err := history.Open(filepath.Join(t.TempDir(), "pad.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer func() { _ = l.Close() }()
	if _, err := l.Record(history.Run{
		Workflow:  plan.Workflow,
		Mode:      plan.Mode,
		Status:    history.StatusDryRun,
		StartedAt: started,
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	last, err := l.LastRun()
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil || last.Workflow != "Project" || last.Status != history.StatusDryRun {
		t.Fatalf("unexpected history record: %+v", last)
	}
}
