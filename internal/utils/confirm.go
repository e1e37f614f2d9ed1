// Package utils provides small interactive helpers shared by the CLI commands.
package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirm prompts the user with msg and expects y/n on stdin. Returns true for yes.
func Confirm(msg string) bool {
	return ConfirmReader(msg, os.Stdin)
}

// ConfirmReader is Confirm reading from the provided reader (useful for tests).
func ConfirmReader(msg string, r io.Reader) bool {
	fmt.Printf("%s [y/N]: ", msg)
	br := bufio.NewReader(r)
	line, _ := br.ReadString('\n')
	resp := strings.TrimSpace(strings.ToLower(line))
	return resp == "y" || resp == "yes"
}
