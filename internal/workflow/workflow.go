// Package workflow resolves, plans, and executes the manifest's named
// workflows. Planning flattens workflow.run references into concrete shell
// steps up front so cycles and bad references fail before anything starts.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/pythonkids/pad/internal/executor"
	"github.com/pythonkids/pad/internal/manifest"
	"github.com/pythonkids/pad/internal/security"
)

// ErrNotFound marks a workflow name that is not declared in the manifest.
var ErrNotFound = errors.New("workflow not found")

// Step is one shell command attributed to the workflow that declared it.
type Step struct {
	Workflow string
	Command  string
}

// Unit is the execution of one top-level task. A shell.exec task is a unit
// with one step; a workflow.run task is a unit holding the referenced
// workflow's flattened steps, which always run in order within the unit.
type Unit struct {
	Steps []Step
}

// Plan is a fully resolved execution of a workflow. Mode decides whether
// units run one after another or concurrently.
type Plan struct {
	Workflow string
	Mode     string
	Units    []Unit
}

// Steps returns every step across all units in declaration order.
func (p *Plan) Steps() []Step {
	var out []Step
	for _, u := range p.Units {
		out = append(out, u.Steps...)
	}
	return out
}

// Resolve returns the declared workflow with the given name. When the name
// is unknown it returns an ErrNotFound error, mentioning close matches from
// the manifest when there are any.
func Resolve(m *manifest.Manifest, name string) (*manifest.Workflow, error) {
	if w := m.Workflow(name); w != nil {
		return w, nil
	}
	if s := Suggest(m, name, 3); len(s) > 0 {
		return nil, fmt.Errorf("%w: %q (did you mean %s?)", ErrNotFound, name, strings.Join(s, ", "))
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Suggest returns up to max declared workflow names fuzzy-matching name,
// best first.
func Suggest(m *manifest.Manifest, name string, max int) []string {
	matches := fuzzy.Find(name, m.WorkflowNames())
	var out []string
	for _, match := range matches {
		if len(out) == max {
			break
		}
		out = append(out, fmt.Sprintf("%q", match.Str))
	}
	return out
}

// NewPlan resolves name and flattens it into an executable plan. Task args
// are env-expanded and sanitized here so a dry run prints exactly what a
// real run would hand the shell.
func NewPlan(m *manifest.Manifest, name string) (*Plan, error) {
	w, err := Resolve(m, name)
	if err != nil {
		return nil, err
	}

	mode := w.Mode
	if mode == "" {
		mode = manifest.ModeSequential
	}
	if mode != manifest.ModeSequential && mode != manifest.ModeParallel {
		return nil, fmt.Errorf("workflow %q: unknown mode %q", w.Name, w.Mode)
	}

	units := make([]Unit, 0, len(w.Tasks))
	for i, task := range w.Tasks {
		switch task.Task {
		case manifest.TaskShellExec:
			step, err := shellStep(m, w.Name, i, task)
			if err != nil {
				return nil, err
			}
			units = append(units, Unit{Steps: []Step{step}})
		case manifest.TaskWorkflowRun:
			steps, err := flatten(m, task.Args, []string{w.Name})
			if err != nil {
				return nil, err
			}
			units = append(units, Unit{Steps: steps})
		default:
			return nil, fmt.Errorf("workflow %q task %d: unknown action %q", w.Name, i, task.Task)
		}
	}
	return &Plan{Workflow: w.Name, Mode: mode, Units: units}, nil
}

func shellStep(m *manifest.Manifest, workflow string, idx int, task manifest.Task) (Step, error) {
	if strings.TrimSpace(task.Args) == "" {
		return Step{}, fmt.Errorf("workflow %q task %d: empty shell.exec command", workflow, idx)
	}
	return Step{
		Workflow: workflow,
		Command:  executor.Sanitize(m.ExpandEnv(task.Args)),
	}, nil
}

// flatten expands the named workflow into sequential steps. stack holds the
// chain of workflows currently being expanded, for cycle reporting.
func flatten(m *manifest.Manifest, name string, stack []string) ([]Step, error) {
	for _, s := range stack {
		if s == name {
			chain := append(append([]string{}, stack...), name)
			return nil, fmt.Errorf("workflow cycle: %s", strings.Join(chain, " -> "))
		}
	}
	w := m.Workflow(name)
	if w == nil {
		return nil, fmt.Errorf("%w: %q (referenced from %q)", ErrNotFound, name, stack[len(stack)-1])
	}

	var steps []Step
	for i, task := range w.Tasks {
		switch task.Task {
		case manifest.TaskShellExec:
			step, err := shellStep(m, w.Name, i, task)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		case manifest.TaskWorkflowRun:
			next := append(append([]string{}, stack...), name)
			sub, err := flatten(m, task.Args, next)
			if err != nil {
				return nil, err
			}
			steps = append(steps, sub...)
		default:
			return nil, fmt.Errorf("workflow %q task %d: unknown action %q", w.Name, i, task.Task)
		}
	}
	return steps, nil
}

// Options tune a run without changing the plan.
type Options struct {
	// Force skips the destructive-command screen.
	Force bool
}

// Runner executes plans against an injected executor.
type Runner struct {
	Exec   executor.Runner
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Opts   Options
}

// Run plans the named workflow and executes it.
func (r *Runner) Run(ctx context.Context, m *manifest.Manifest, name string) error {
	p, err := NewPlan(m, name)
	if err != nil {
		return err
	}
	return r.RunPlan(ctx, m, p)
}

// RunPlan executes a prepared plan. Sequential plans stop at the first
// failing unit. Parallel plans start every unit; the first failure cancels
// the rest and is returned.
func (r *Runner) RunPlan(ctx context.Context, m *manifest.Manifest, p *Plan) error {
	if r.Exec == nil {
		return errors.New("runner has no executor")
	}
	cwd := manifestDir(m)

	if p.Mode == manifest.ModeParallel && len(p.Units) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for _, u := range p.Units {
			u := u
			g.Go(func() error {
				return r.runUnit(gctx, u, cwd)
			})
		}
		return g.Wait()
	}

	for _, u := range p.Units {
		if err := r.runUnit(ctx, u, cwd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runUnit(ctx context.Context, u Unit, cwd string) error {
	for _, step := range u.Steps {
		if !r.Opts.Force {
			if err := security.CheckAllowed(step.Command); err != nil {
				return fmt.Errorf("workflow %q: %w", step.Workflow, err)
			}
		}
		if err := r.Exec.Execute(ctx, step.Command, cwd, r.Stdin, r.stdout(), r.stderr()); err != nil {
			return fmt.Errorf("workflow %q: %w", step.Workflow, err)
		}
	}
	return nil
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

// manifestDir returns the directory tasks should run in: the directory of
// the manifest file when known, otherwise the process working directory.
func manifestDir(m *manifest.Manifest) string {
	if m.Path() == "" {
		return ""
	}
	return filepath.Dir(m.Path())
}
