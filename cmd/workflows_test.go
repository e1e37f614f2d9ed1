package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestWorkflowsListsDeclared(t *testing.T) {
	padHome(t)
	writeManifestFile(t, cleanManifest)

	var out bytes.Buffer
	workflowsCmd.SetOut(&out)
	if err := workflowsCmd.RunE(workflowsCmd, nil); err != nil {
		t.Fatalf("workflows failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Project") || !strings.Contains(got, "[runButton]") {
		t.Fatalf("unexpected listing: %s", got)
	}
	if !strings.Contains(got, "mode=sequential") || !strings.Contains(got, "tasks=1") {
		t.Fatalf("mode or task count missing: %s", got)
	}
}
