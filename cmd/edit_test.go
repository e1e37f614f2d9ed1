package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pythonkids/pad/internal/config"
)

// noopEditor returns a script that exits without touching the file.
func noopEditor(t *testing.T, exitCode string) string {
	t.Helper()
	d := t.TempDir()
	if runtime.GOOS == "windows" {
		p := filepath.Join(d, "editor.bat")
		if err := os.WriteFile(p, []byte("@echo off\r\nexit /b "+exitCode+"\r\n"), 0o755); err != nil {
			t.Fatalf("write script: %v", err)
		}
		return p
	}
	p := filepath.Join(d, "editor.sh")
	if err := os.WriteFile(p, []byte("#!/bin/sh\nexit "+exitCode+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

func TestEditRechecksManifest(t *testing.T) {
	padHome(t)
	writeManifestFile(t, cleanManifest)
	t.Setenv("EDITOR", noopEditor(t, "0"))

	var out bytes.Buffer
	editCmd.SetOut(&out)
	if err := editCmd.RunE(editCmd, nil); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !strings.Contains(out.String(), "0 error(s)") {
		t.Fatalf("recheck summary missing: %s", out.String())
	}
}

func TestEditFailsWhenEditorFails(t *testing.T) {
	padHome(t)
	writeManifestFile(t, cleanManifest)
	t.Setenv("EDITOR", noopEditor(t, "1"))

	if err := editCmd.RunE(editCmd, nil); err == nil {
		t.Fatalf("expected editor failure to surface")
	}
}

func TestEditRequiresManifest(t *testing.T) {
	padHome(t)
	t.Setenv(config.EnvPadManifest, filepath.Join(t.TempDir(), "missing.yaml"))

	err := editCmd.RunE(editCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "pad init") {
		t.Fatalf("expected manifest-not-found error, got %v", err)
	}
}
