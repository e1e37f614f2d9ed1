// Package manifest parses and writes the pad deployment manifest: the YAML
// file declaring the nix package set, the deployment target and run command,
// the named workflows, and the port mappings for the hosted application.
package manifest

import (
	"fmt"
	"os"
	"sort"

	yaml "gopkg.in/yaml.v2"
)

// Task action types. A task references a runnable action: either a shell
// command line or another declared workflow.
const (
	TaskShellExec   = "shell.exec"
	TaskWorkflowRun = "workflow.run"
)

// Workflow execution modes. An empty mode means sequential.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Manifest covers the top level structure of the pad.yaml file.
type Manifest struct {
	Modules    []string          `yaml:"modules,omitempty"`
	Nix        Nix               `yaml:"nix,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
	Deployment Deployment        `yaml:"deployment,omitempty"`
	Workflows  Workflows         `yaml:"workflows,omitempty"`
	Ports      []PortMapping     `yaml:"ports,omitempty"`

	path string // file the manifest was loaded from, not serialized
}

// Nix declares the provisioning channel and the ordered set of native
// library names installed into the execution environment.
type Nix struct {
	Channel  string   `yaml:"channel,omitempty"`
	Packages []string `yaml:"packages,omitempty"`
}

// Deployment declares the execution environment class and the command the
// platform runs on deploy.
type Deployment struct {
	Target string     `yaml:"deploymentTarget,omitempty"`
	Run    RunCommand `yaml:"run,omitempty"`
}

// Workflows holds the declared workflows and the name of the one wired to
// the run button.
type Workflows struct {
	RunButton string     `yaml:"runButton,omitempty"`
	Items     []Workflow `yaml:"workflow,omitempty"`
}

// Workflow is a named, ordered sequence of tasks triggered together.
type Workflow struct {
	Name   string `yaml:"name"`
	Author string `yaml:"author,omitempty"`
	Mode   string `yaml:"mode,omitempty"`
	Tasks  []Task `yaml:"tasks,omitempty"`
}

// Task references a runnable action. For shell.exec, Args is the command
// line; for workflow.run, Args is the name of another workflow.
type Task struct {
	Task string `yaml:"task"`
	Args string `yaml:"args"`
}

// PortMapping associates the port a process binds locally with the port
// exposed externally.
type PortMapping struct {
	LocalPort    int `yaml:"localPort"`
	ExternalPort int `yaml:"externalPort"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m.path = path
	return m, nil
}

// Parse unmarshals manifest data from memory.
func Parse(data []byte) (*Manifest, error) {
	m := Manifest{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Path returns the file the manifest was loaded from, if any.
func (m *Manifest) Path() string {
	return m.path
}

// Save writes the manifest back to its file.
func (m *Manifest) Save() error {
	if m.path == "" {
		return fmt.Errorf("manifest has no path")
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// SetPath assigns the file the manifest will be saved to.
func (m *Manifest) SetPath(path string) {
	m.path = path
}

// Workflow returns the declared workflow with the given name, or nil.
func (m *Manifest) Workflow(name string) *Workflow {
	for i := range m.Workflows.Items {
		if m.Workflows.Items[i].Name == name {
			return &m.Workflows.Items[i]
		}
	}
	return nil
}

// WorkflowNames returns the declared workflow names in document order.
func (m *Manifest) WorkflowNames() []string {
	out := make([]string, 0, len(m.Workflows.Items))
	for _, w := range m.Workflows.Items {
		out = append(out, w.Name)
	}
	return out
}

// DefaultWorkflow returns the workflow wired to the run button, or nil when
// none is declared.
func (m *Manifest) DefaultWorkflow() *Workflow {
	if m.Workflows.RunButton == "" {
		return nil
	}
	return m.Workflow(m.Workflows.RunButton)
}

// FirstPort returns the first declared port mapping, or nil.
func (m *Manifest) FirstPort() *PortMapping {
	if len(m.Ports) == 0 {
		return nil
	}
	return &m.Ports[0]
}

// ExpandEnv substitutes $KEY and ${KEY} references in s, first from the
// manifest's env table and then from the process environment.
func (m *Manifest) ExpandEnv(s string) string {
	return os.Expand(s, func(key string) string {
		if v, ok := m.Env[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}

// LookupEnv reports the value of key from the manifest env table or the
// process environment.
func (m *Manifest) LookupEnv(key string) (string, bool) {
	if v, ok := m.Env[key]; ok {
		return v, true
	}
	return os.LookupEnv(key)
}

// EnvList returns the manifest env table as KEY=VALUE pairs sorted by key,
// ready for exec.Cmd.Env.
func (m *Manifest) EnvList() []string {
	keys := make([]string, 0, len(m.Env))
	for k := range m.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+m.Env[k])
	}
	return out
}

// EnvRefs returns the unique $KEY / ${KEY} references in s in order of
// appearance. Shell positional and special parameters ($1, $#, $?) are not
// env references and are skipped.
func EnvRefs(s string) []string {
	seen := map[string]bool{}
	var out []string
	_ = os.Expand(s, func(key string) string {
		if !plausibleEnvKey(key) || seen[key] {
			return ""
		}
		seen[key] = true
		out = append(out, key)
		return ""
	})
	return out
}

func plausibleEnvKey(key string) bool {
	if key == "" {
		return false
	}
	c := key[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
