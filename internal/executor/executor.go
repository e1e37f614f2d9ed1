// Package executor runs workflow task command lines in an OS-appropriate
// shell. Output streams to the caller's writers as it is produced, which
// matters for long-lived tasks like a development web server.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Runner is the execution seam. Tests and dry planners inject fakes so no
// real shell ever spawns.
type Runner interface {
	Execute(ctx context.Context, command string, cwd string, stdin io.Reader, stdout, stderr io.Writer) error
}

// Executor is the real Runner. Env entries (KEY=VALUE) are appended to the
// inherited process environment of every command it starts.
type Executor struct {
	DryRun  bool
	Verbose bool
	Shell   string // optional override (e.g., "pwsh")
	Env     []string
}

// New returns an Executor with the given dry-run and verbose settings.
func New(dry, verbose bool) *Executor {
	return &Executor{DryRun: dry, Verbose: verbose}
}

// Execute runs command through the platform shell. If cwd is non-empty the
// command runs in that directory. stdin may be nil. In dry-run mode the
// command is printed to stdout and nothing is started.
func (e *Executor) Execute(ctx context.Context, command string, cwd string, stdin io.Reader, stdout, stderr io.Writer) error {
	command, err := validateAndSanitize(command)
	if err != nil {
		return err
	}

	if e.DryRun {
		_, _ = fmt.Fprintf(stdout, "dry-run: %s\n", command)
		return nil
	}

	shell, args := shellInvocation(command, e.Shell)
	if err := validateShellAndArgs(shell, args); err != nil {
		return err
	}
	if e.Verbose {
		_, _ = fmt.Fprintf(stderr, "+ %s\n", command)
	}

	cmd := exec.CommandContext(ctx, shell, args...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return wrapRunError(err, shell, command)
	}
	return nil
}

func wrapRunError(err error, shell, command string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("command exited with status %d: %s", exitErr.ExitCode(), command)
	}
	return fmt.Errorf("command failed: %w (shell=%s)", err, shell)
}

// shellInvocation returns the shell executable and arguments for the
// platform. An override lets tasks request an alternate shell; "powershell"
// and "pwsh" get -Command instead of -c.
func shellInvocation(command string, overrideShell string) (string, []string) {
	if overrideShell != "" {
		switch overrideShell {
		case "pwsh":
			return "pwsh", []string{"-Command", command}
		case "powershell":
			if runtime.GOOS == "windows" {
				if p, err := exec.LookPath("powershell"); err == nil {
					return p, []string{"-Command", command}
				}
				if p, err := exec.LookPath("pwsh"); err == nil {
					return p, []string{"-Command", command}
				}
				return "powershell", []string{"-Command", command}
			}
			return "pwsh", []string{"-Command", command}
		default:
			return overrideShell, []string{"-c", command}
		}
	}

	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "bash", []string{"-c", command}
}

func validateShellAndArgs(shell string, args []string) error {
	// Check the shell exists up front to avoid opaque start errors.
	if _, err := exec.LookPath(shell); err != nil {
		return fmt.Errorf("shell not found in PATH: %s", shell)
	}
	for i, a := range args {
		if strings.IndexFunc(a, isHostileRune) != -1 {
			return fmt.Errorf("invalid shell arg[%d]: contains control characters", i)
		}
	}
	return nil
}

func isHostileRune(r rune) bool {
	return r == 0 || (r < 32 && r != '\t') || r == 0x7f
}

// sanitizeCommand normalizes unicode punctuation that word processors and
// rich-text editors substitute into pasted command lines (smart quotes,
// NBSP, zero-width spaces) and strips embedded NULs.
func sanitizeCommand(s string) string {
	r := strings.NewReplacer(
		"‘", "'", // left single quote
		"’", "'", // right single quote
		"“", "\"", // left double quote
		"”", "\"", // right double quote
		" ", " ", // NO-BREAK SPACE
		"​", "", // zero width space
		"‎", "", // left-to-right mark
		"‏", "", // right-to-left mark
	)
	rp := r.Replace(s)
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, rp)
}

// Sanitize normalizes unicode punctuation and invisible runes in a task
// command line. Exposed for callers that clean manifest edits at save time.
func Sanitize(s string) string {
	return sanitizeCommand(s)
}

func validateAndSanitize(command string) (string, error) {
	command = sanitizeCommand(command)
	if err := ValidateCommand(command); err != nil {
		return "", err
	}
	return command, nil
}

// ValidateCommand rejects command lines that cannot survive a single shell
// invocation: embedded newlines and control characters.
func ValidateCommand(s string) error {
	if strings.Contains(s, "\n") {
		return fmt.Errorf("invalid command: contains newline characters; each task command must be a single line")
	}
	if strings.IndexFunc(s, isHostileRune) != -1 {
		return fmt.Errorf("invalid command: contains control characters; remove non-printable characters")
	}
	return nil
}
