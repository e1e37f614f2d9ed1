package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

const pythonKidsYAML = `
modules:
  - python-3.11
nix:
  channel: stable-23_05
  packages:
    - freetype
    - got
    - lcms2
    - libimagequant
    - libjpeg
    - libtiff
    - libwebp
    - libxcrypt
    - openjpeg
    - sqlite-interactive
    - tcl
    - tk
    - zlib
deployment:
  deploymentTarget: autoscale
  run: [streamlit, run, app.py, --server.port, "5000"]
workflows:
  runButton: Project
  workflow:
    - name: Project
      author: agent
      mode: parallel
      tasks:
        - task: shell.exec
          args: streamlit run app.py --server.port 5000
ports:
  - localPort: 5000
    externalPort: 80
`

func TestParsePythonKidsManifest(t *testing.T) {
	m, err := Parse([]byte(pythonKidsYAML))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}

	if got := len(m.Nix.Packages); got != 13 {
		t.Fatalf("expected 13 packages, got %d", got)
	}
	if m.Nix.Packages[0] != "freetype" || m.Nix.Packages[12] != "zlib" {
		t.Fatalf("package order not preserved: %v", m.Nix.Packages)
	}
	if m.Deployment.Target != "autoscale" {
		t.Fatalf("expected autoscale target, got %q", m.Deployment.Target)
	}
	if m.Workflows.RunButton != "Project" {
		t.Fatalf("expected runButton Project, got %q", m.Workflows.RunButton)
	}
	if len(m.Ports) != 1 || m.Ports[0].LocalPort != 5000 || m.Ports[0].ExternalPort != 80 {
		t.Fatalf("unexpected ports: %+v", m.Ports)
	}

	wf := m.DefaultWorkflow()
	if wf == nil {
		t.Fatalf("expected default workflow")
	}
	if wf.Author != "agent" || wf.Mode != ModeParallel {
		t.Fatalf("unexpected workflow metadata: %+v", wf)
	}
	if len(wf.Tasks) != 1 || wf.Tasks[0].Task != TaskShellExec {
		t.Fatalf("unexpected tasks: %+v", wf.Tasks)
	}
}

func TestParseRejectsTypeMismatch(t *testing.T) {
	_, err := Parse([]byte("ports: notalist\n"))
	if err == nil {
		t.Fatalf("expected error for schema type mismatch")
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pad.yaml")
	if err := os.WriteFile(path, []byte(pythonKidsYAML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if m.Path() != path {
		t.Fatalf("expected path %s, got %s", path, m.Path())
	}

	m.Workflows.RunButton = "Other"
	if err := m.Save(); err != nil {
		t.Fatalf("Save(): %v", err)
	}

	m2, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m2.Workflows.RunButton != "Other" {
		t.Fatalf("expected saved runButton, got %q", m2.Workflows.RunButton)
	}
	if m2.Deployment.Run.String() != "streamlit run app.py --server.port 5000" {
		t.Fatalf("run command did not survive round trip: %q", m2.Deployment.Run.String())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}

func TestWorkflowLookup(t *testing.T) {
	m, err := Parse([]byte(pythonKidsYAML))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if m.Workflow("Project") == nil {
		t.Fatalf("expected Project workflow")
	}
	if m.Workflow("Missing") != nil {
		t.Fatalf("expected nil for unknown workflow")
	}
	names := m.WorkflowNames()
	if len(names) != 1 || names[0] != "Project" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestExpandEnvPrefersManifestTable(t *testing.T) {
	m := &Manifest{Env: map[string]string{"STREAMLIT_PORT": "5000"}}
	t.Setenv("STREAMLIT_PORT", "9999")
	t.Setenv("FROM_OS", "osval")

	if got := m.ExpandEnv("port=$STREAMLIT_PORT os=${FROM_OS}"); got != "port=5000 os=osval" {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestEnvRefs(t *testing.T) {
	refs := EnvRefs("run $A then ${B} and $A again, skip $1 and $?")
	if len(refs) != 2 || refs[0] != "A" || refs[1] != "B" {
		t.Fatalf("unexpected refs: %v", refs)
	}
}

func TestEnvList(t *testing.T) {
	m := &Manifest{Env: map[string]string{"ZEBRA": "z", "APPLE": "a"}}
	got := m.EnvList()
	if len(got) != 2 || got[0] != "APPLE=a" || got[1] != "ZEBRA=z" {
		t.Fatalf("EnvList() = %v, want sorted KEY=VALUE pairs", got)
	}
	if list := (&Manifest{}).EnvList(); len(list) != 0 {
		t.Fatalf("empty env should yield no pairs, got %v", list)
	}
}

func TestStarterParsesCleanly(t *testing.T) {
	data, err := Starter("msmith")
	if err != nil {
		t.Fatalf("Starter(): %v", err)
	}
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("starter manifest does not parse: %v", err)
	}
	wf := m.DefaultWorkflow()
	if wf == nil || wf.Author != "msmith" {
		t.Fatalf("expected author msmith in starter workflow, got %+v", wf)
	}
	port, ok := m.Deployment.Run.ServerPort()
	if !ok || port != 5000 {
		t.Fatalf("starter run command should bind 5000, got %d ok=%v", port, ok)
	}
	if m.FirstPort() == nil || m.FirstPort().LocalPort != port {
		t.Fatalf("starter ports inconsistent with run command")
	}
}
