package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompt prompts the user and reads a single-line response from stdin.
func Prompt(msg string) string {
	return PromptReader(msg, os.Stdin)
}

// PromptReader prompts the user using the provided reader (useful for tests).
func PromptReader(msg string, r io.Reader) string {
	fmt.Printf("%s: ", msg)
	br := bufio.NewReader(r)
	line, _ := br.ReadString('\n')
	return strings.TrimSpace(line)
}

// PromptPassword prompts for a secret and reads it without echo when stdin is
// a terminal. When stdin is a pipe or a file it degrades to a plain line read
// so scripted use keeps working.
func PromptPassword(msg string) (string, error) {
	fmt.Printf("%s: ", msg)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}
	br := bufio.NewReader(os.Stdin)
	line, _ := br.ReadString('\n')
	return strings.TrimSpace(line), nil
}
