// Package security screens task command lines before they reach a shell.
// Manifests travel with projects, so a checked-out pad.yaml is untrusted
// input until someone reads it.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrBlocked marks a command rejected by the destructive-pattern screen.
// Callers may offer an explicit override (run --force) when they see it.
var ErrBlocked = errors.New("command appears destructive or unsafe")

var blockedPatterns = []*regexp.Regexp{
	// destructive filesystem ops
	regexp.MustCompile(`(?i)\brm\s+-rf\s+/?$`),
	regexp.MustCompile(`(?i)\brm\s+-rf\s+/`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	regexp.MustCompile(`(?i)\bwipefs\b`),
	// fork bombs (e.g. :(){ :|:& };:)
	regexp.MustCompile(`:\(\)\s*\{`),
	// package managers removing all packages
	regexp.MustCompile(`(?i)\bapt-get\s+remove\s+`),
	regexp.MustCompile(`(?i)\byum\s+remove\s+`),
	// writing straight to block devices
	regexp.MustCompile(`(?i)>\s*/dev/sd[a-z]`),
	// host power state
	regexp.MustCompile(`(?i)\b(shutdown|reboot|halt)\b`),
}

// CheckAllowed returns nil if the command may run, or an error wrapping
// ErrBlocked describing why it was refused. The screen is conservative and
// not exhaustive; it exists to stop the obvious accidents, not a determined
// attacker.
func CheckAllowed(command string) error {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return errors.New("empty command")
	}
	for _, re := range blockedPatterns {
		if re.MatchString(cmd) {
			return fmt.Errorf("%w: matched %q", ErrBlocked, re.String())
		}
	}
	return nil
}
