package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressSetAndShow(t *testing.T) {
	padHome(t)
	addUser(t, "amina", "butterfly7")

	if err := progressSetCmd.Flags().Set("points", "25"); err != nil {
		t.Fatalf("set --points: %v", err)
	}
	if err := progressSetCmd.Flags().Set("add-tutorial", "loops"); err != nil {
		t.Fatalf("set --add-tutorial: %v", err)
	}
	if err := progressSetCmd.Flags().Set("add-tutorial", "variables"); err != nil {
		t.Fatalf("set --add-tutorial: %v", err)
	}
	if err := progressSetCmd.Flags().Set("add-emoji", "🎉"); err != nil {
		t.Fatalf("set --add-emoji: %v", err)
	}
	t.Cleanup(func() {
		progressSetCmd.Flags().Lookup("points").Changed = false
	})

	var out bytes.Buffer
	progressSetCmd.SetOut(&out)
	if err := progressSetCmd.RunE(progressSetCmd, []string{"amina"}); err != nil {
		t.Fatalf("progress set: %v", err)
	}
	if !strings.Contains(out.String(), "25 points, 2 tutorial(s)") {
		t.Fatalf("unexpected set output: %s", out.String())
	}

	out.Reset()
	progressShowCmd.SetOut(&out)
	if err := progressShowCmd.RunE(progressShowCmd, []string{"amina"}); err != nil {
		t.Fatalf("progress show: %v", err)
	}
	got := out.String()
	for _, want := range []string{"points:     25", "loops, variables", "🎉"} {
		if !strings.Contains(got, want) {
			t.Fatalf("show output missing %q:\n%s", want, got)
		}
	}
}

func TestProgressShowUnknownUser(t *testing.T) {
	padHome(t)
	err := progressShowCmd.RunE(progressShowCmd, []string{"nobody"})
	if err == nil || !strings.Contains(err.Error(), "user not found") {
		t.Fatalf("expected user not found, got %v", err)
	}
}
