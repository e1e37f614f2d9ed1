package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

// serverPortFlag is the streamlit flag that selects the port the run command
// binds. The lint port-consistency rule compares its value against the first
// declared port mapping.
const serverPortFlag = "--server.port"

// RunCommand is the deployment run command as an argument vector. In YAML it
// may be written either as a sequence of strings or as a single command
// line, which is tokenized with shell quoting rules.
type RunCommand []string

// UnmarshalYAML accepts both the sequence and the plain string form.
func (rc *RunCommand) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var argv []string
	if err := unmarshal(&argv); err == nil {
		*rc = argv
		return nil
	}
	var line string
	if err := unmarshal(&line); err != nil {
		return fmt.Errorf("run command must be a string or a list of strings")
	}
	if strings.TrimSpace(line) == "" {
		*rc = nil
		return nil
	}
	toks, err := shellquote.Split(line)
	if err != nil {
		return fmt.Errorf("tokenize run command: %w", err)
	}
	*rc = toks
	return nil
}

// MarshalYAML always emits the vector form.
func (rc RunCommand) MarshalYAML() (interface{}, error) {
	return []string(rc), nil
}

// Argv returns the command as an argument vector.
func (rc RunCommand) Argv() []string {
	return []string(rc)
}

// IsZero reports whether no run command is declared.
func (rc RunCommand) IsZero() bool {
	return len(rc) == 0
}

// String renders the vector as a single shell-quoted command line.
func (rc RunCommand) String() string {
	return shellquote.Join(rc...)
}

// ServerPortArg returns the raw value of the --server.port argument and
// whether the flag is present at all.
func (rc RunCommand) ServerPortArg() (string, bool) {
	return serverPortArg(rc)
}

// ServerPort returns the port the run command asks the server to bind. ok is
// false when the flag is absent or its value does not parse as a port.
func (rc RunCommand) ServerPort() (port int, ok bool) {
	raw, found := serverPortArg(rc)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 65535 {
		return 0, false
	}
	return n, true
}

// ServerPortInCommand tokenizes a shell command line and extracts its
// --server.port value the same way RunCommand does. Used for shell.exec
// task arguments, which duplicate the run command in this manifest family.
func ServerPortInCommand(line string) (port int, ok bool) {
	toks, err := shellquote.Split(line)
	if err != nil {
		return 0, false
	}
	return RunCommand(toks).ServerPort()
}

func serverPortArg(argv []string) (string, bool) {
	for i, a := range argv {
		if a == serverPortFlag {
			if i+1 < len(argv) {
				return argv[i+1], true
			}
			return "", true
		}
		if strings.HasPrefix(a, serverPortFlag+"=") {
			return strings.TrimPrefix(a, serverPortFlag+"="), true
		}
	}
	return "", false
}
