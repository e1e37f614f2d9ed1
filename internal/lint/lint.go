// Package lint statically validates a deployment manifest. Every rule
// produces findings with a stable rule code and the config path of the
// offending value, so output stays scriptable.
package lint

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/pythonkids/pad/internal/manifest"
	"github.com/pythonkids/pad/internal/nameutil"
)

// Severity classifies a finding. Errors fail `pad check`; warnings fail it
// only under --strict.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one rule violation at one config path.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", f.Severity, f.Path, f.Message, f.Rule)
}

// Known deployment targets. Unknown targets are a warning, not an error,
// since the hosting platform grows new ones.
var knownTargets = map[string]bool{
	"autoscale": true,
	"static":    true,
	"scheduled": true,
	"vm":        true,
	"cloudrun":  true,
}

// Check runs every rule against m and returns the findings in a
// deterministic order.
func Check(m *manifest.Manifest) []Finding {
	var fs []Finding
	fs = append(fs, checkDeployment(m)...)
	fs = append(fs, checkPackages(m)...)
	fs = append(fs, checkPorts(m)...)
	fs = append(fs, checkPortConsistency(m)...)
	fs = append(fs, checkWorkflows(m)...)
	fs = append(fs, checkWorkflowGraph(m)...)
	fs = append(fs, checkTaskPorts(m)...)
	fs = append(fs, checkEnvRefs(m)...)
	return fs
}

// HasErrors reports whether any finding is an error.
func HasErrors(fs []Finding) bool {
	for _, f := range fs {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CountBySeverity returns the number of errors and warnings.
func CountBySeverity(fs []Finding) (errors, warnings int) {
	for _, f := range fs {
		if f.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}

func checkDeployment(m *manifest.Manifest) []Finding {
	var fs []Finding
	if m.Deployment.Run.IsZero() {
		fs = append(fs, Finding{
			Rule: "missing-run", Severity: SeverityError, Path: "deployment.run",
			Message: "no run command declared",
		})
	} else if _, err := exec.LookPath(m.Deployment.Run.Argv()[0]); err != nil {
		fs = append(fs, Finding{
			Rule: "run-binary", Severity: SeverityWarning, Path: "deployment.run",
			Message: fmt.Sprintf("%q not found on PATH here; it must be executable at deploy time", m.Deployment.Run.Argv()[0]),
		})
	}
	if m.Deployment.Target == "" {
		fs = append(fs, Finding{
			Rule: "missing-target", Severity: SeverityWarning, Path: "deployment.deploymentTarget",
			Message: "no deployment target declared",
		})
	} else if !knownTargets[m.Deployment.Target] {
		fs = append(fs, Finding{
			Rule: "unknown-target", Severity: SeverityWarning, Path: "deployment.deploymentTarget",
			Message: fmt.Sprintf("unknown deployment target %q", m.Deployment.Target),
		})
	}
	return fs
}

func checkPackages(m *manifest.Manifest) []Finding {
	var fs []Finding
	seen := map[string]int{}
	for i, p := range m.Nix.Packages {
		path := fmt.Sprintf("nix.packages[%d]", i)
		if strings.TrimSpace(p) == "" {
			fs = append(fs, Finding{
				Rule: "package-empty", Severity: SeverityError, Path: path,
				Message: "empty package name",
			})
			continue
		}
		if first, dup := seen[p]; dup {
			fs = append(fs, Finding{
				Rule: "package-duplicates", Severity: SeverityError, Path: path,
				Message: fmt.Sprintf("package %q already declared at nix.packages[%d]", p, first),
			})
			continue
		}
		seen[p] = i
	}
	return fs
}

func checkPorts(m *manifest.Manifest) []Finding {
	var fs []Finding
	seenLocal := map[int]int{}
	seenExternal := map[int]int{}
	for i, pm := range m.Ports {
		if pm.LocalPort < 1 || pm.LocalPort > 65535 {
			fs = append(fs, Finding{
				Rule: "port-range", Severity: SeverityError, Path: fmt.Sprintf("ports[%d].localPort", i),
				Message: fmt.Sprintf("port %d out of range 1-65535", pm.LocalPort),
			})
		}
		if pm.ExternalPort < 1 || pm.ExternalPort > 65535 {
			fs = append(fs, Finding{
				Rule: "port-range", Severity: SeverityError, Path: fmt.Sprintf("ports[%d].externalPort", i),
				Message: fmt.Sprintf("port %d out of range 1-65535", pm.ExternalPort),
			})
		}
		if first, dup := seenLocal[pm.LocalPort]; dup {
			fs = append(fs, Finding{
				Rule: "port-duplicates", Severity: SeverityError, Path: fmt.Sprintf("ports[%d].localPort", i),
				Message: fmt.Sprintf("localPort %d already mapped at ports[%d]", pm.LocalPort, first),
			})
		} else {
			seenLocal[pm.LocalPort] = i
		}
		if first, dup := seenExternal[pm.ExternalPort]; dup {
			fs = append(fs, Finding{
				Rule: "port-duplicates", Severity: SeverityError, Path: fmt.Sprintf("ports[%d].externalPort", i),
				Message: fmt.Sprintf("externalPort %d already exposed at ports[%d]", pm.ExternalPort, first),
			})
		} else {
			seenExternal[pm.ExternalPort] = i
		}
	}
	return fs
}

// checkPortConsistency compares ports[0].localPort against the run
// command's --server.port argument.
func checkPortConsistency(m *manifest.Manifest) []Finding {
	var fs []Finding
	raw, declared := m.Deployment.Run.ServerPortArg()
	if !declared {
		return nil
	}
	port, ok := m.Deployment.Run.ServerPort()
	if !ok {
		fs = append(fs, Finding{
			Rule: "run-port-value", Severity: SeverityError, Path: "deployment.run",
			Message: fmt.Sprintf("--server.port value %q is not a valid port", raw),
		})
		return fs
	}
	first := m.FirstPort()
	if first == nil {
		fs = append(fs, Finding{
			Rule: "port-unmapped", Severity: SeverityWarning, Path: "deployment.run",
			Message: fmt.Sprintf("run command binds port %d but no port mapping exposes it", port),
		})
		return fs
	}
	if first.LocalPort != port {
		fs = append(fs, Finding{
			Rule: "port-consistency", Severity: SeverityError, Path: "ports[0].localPort",
			Message: fmt.Sprintf("localPort %d does not match --server.port %d in the run command", first.LocalPort, port),
		})
	}
	return fs
}

func checkWorkflows(m *manifest.Manifest) []Finding {
	var fs []Finding
	names := map[string]int{}
	for i, w := range m.Workflows.Items {
		path := fmt.Sprintf("workflows.workflow[%d]", i)
		if err := nameutil.ValidateName(w.Name); err != nil {
			fs = append(fs, Finding{
				Rule: "workflow-name", Severity: SeverityError, Path: path + ".name",
				Message: err.Error(),
			})
			continue
		}
		if first, dup := names[w.Name]; dup {
			fs = append(fs, Finding{
				Rule: "workflow-name", Severity: SeverityError, Path: path + ".name",
				Message: fmt.Sprintf("workflow %q already declared at workflows.workflow[%d]", w.Name, first),
			})
			continue
		}
		names[w.Name] = i

		switch w.Mode {
		case "", manifest.ModeSequential, manifest.ModeParallel:
		default:
			fs = append(fs, Finding{
				Rule: "workflow-mode", Severity: SeverityError, Path: path + ".mode",
				Message: fmt.Sprintf("unknown mode %q (want sequential or parallel)", w.Mode),
			})
		}

		if len(w.Tasks) == 0 {
			fs = append(fs, Finding{
				Rule: "workflow-empty", Severity: SeverityWarning, Path: path + ".tasks",
				Message: fmt.Sprintf("workflow %q has no tasks", w.Name),
			})
		}
		for j, task := range w.Tasks {
			tpath := fmt.Sprintf("%s.tasks[%d]", path, j)
			switch task.Task {
			case manifest.TaskShellExec:
				if strings.TrimSpace(task.Args) == "" {
					fs = append(fs, Finding{
						Rule: "task-args", Severity: SeverityError, Path: tpath + ".args",
						Message: "shell.exec task has no command",
					})
				}
			case manifest.TaskWorkflowRun:
				if strings.TrimSpace(task.Args) == "" {
					fs = append(fs, Finding{
						Rule: "task-args", Severity: SeverityError, Path: tpath + ".args",
						Message: "workflow.run task names no workflow",
					})
				} else if m.Workflow(task.Args) == nil {
					fs = append(fs, Finding{
						Rule: "workflow-ref", Severity: SeverityError, Path: tpath + ".args",
						Message: fmt.Sprintf("references undeclared workflow %q", task.Args),
					})
				}
			default:
				fs = append(fs, Finding{
					Rule: "task-type", Severity: SeverityError, Path: tpath + ".task",
					Message: fmt.Sprintf("unknown task action %q (want shell.exec or workflow.run)", task.Task),
				})
			}
		}
	}

	if m.Workflows.RunButton != "" && m.Workflow(m.Workflows.RunButton) == nil {
		fs = append(fs, Finding{
			Rule: "run-button", Severity: SeverityError, Path: "workflows.runButton",
			Message: fmt.Sprintf("workflow %q is not declared", m.Workflows.RunButton),
		})
	}
	if m.Workflows.RunButton == "" && len(m.Workflows.Items) > 0 {
		fs = append(fs, Finding{
			Rule: "run-button", Severity: SeverityWarning, Path: "workflows.runButton",
			Message: "workflows are declared but none is wired to the run button",
		})
	}
	return fs
}

// checkWorkflowGraph builds the directed workflow.run reference graph and
// reports edges that would close a cycle.
func checkWorkflowGraph(m *manifest.Manifest) []Finding {
	var fs []Finding
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, w := range m.Workflows.Items {
		_ = g.AddVertex(w.Name)
	}
	for i, w := range m.Workflows.Items {
		for j, task := range w.Tasks {
			if task.Task != manifest.TaskWorkflowRun || m.Workflow(task.Args) == nil {
				continue
			}
			err := g.AddEdge(w.Name, task.Args)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				fs = append(fs, Finding{
					Rule: "workflow-cycle", Severity: SeverityError,
					Path:    fmt.Sprintf("workflows.workflow[%d].tasks[%d].args", i, j),
					Message: fmt.Sprintf("running %q from %q creates a reference cycle", task.Args, w.Name),
				})
			default:
				fs = append(fs, Finding{
					Rule: "workflow-cycle", Severity: SeverityError,
					Path:    fmt.Sprintf("workflows.workflow[%d].tasks[%d].args", i, j),
					Message: err.Error(),
				})
			}
		}
	}
	return fs
}

// checkTaskPorts flags shell.exec tasks whose --server.port disagrees with
// the first port mapping. The manifest family duplicates the run command as
// a shell task, so drift here is a real hazard.
func checkTaskPorts(m *manifest.Manifest) []Finding {
	first := m.FirstPort()
	if first == nil {
		return nil
	}
	var fs []Finding
	for i, w := range m.Workflows.Items {
		for j, task := range w.Tasks {
			if task.Task != manifest.TaskShellExec {
				continue
			}
			port, ok := manifest.ServerPortInCommand(task.Args)
			if ok && port != first.LocalPort {
				fs = append(fs, Finding{
					Rule: "task-port-consistency", Severity: SeverityWarning,
					Path:    fmt.Sprintf("workflows.workflow[%d].tasks[%d].args", i, j),
					Message: fmt.Sprintf("task binds port %d but ports[0].localPort is %d", port, first.LocalPort),
				})
			}
		}
	}
	return fs
}

// checkEnvRefs warns once per $KEY reference that resolves nowhere.
func checkEnvRefs(m *manifest.Manifest) []Finding {
	var fs []Finding
	reported := map[string]bool{}
	note := func(path, s string) {
		for _, key := range manifest.EnvRefs(s) {
			if reported[key] {
				continue
			}
			if _, ok := m.LookupEnv(key); ok {
				continue
			}
			reported[key] = true
			fs = append(fs, Finding{
				Rule: "env-undefined", Severity: SeverityWarning, Path: path,
				Message: fmt.Sprintf("$%s is not defined in env or the environment", key),
			})
		}
	}
	note("deployment.run", strings.Join(m.Deployment.Run.Argv(), " "))
	for i, w := range m.Workflows.Items {
		for j, task := range w.Tasks {
			if task.Task == manifest.TaskShellExec {
				note(fmt.Sprintf("workflows.workflow[%d].tasks[%d].args", i, j), task.Args)
			}
		}
	}
	return fs
}
