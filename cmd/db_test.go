package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pythonkids/pad/internal/config"
	"github.com/pythonkids/pad/internal/store"
)

func TestDBExportImportRoundTrip(t *testing.T) {
	padHome(t)
	addUser(t, "amina", "butterfly7")

	dest := filepath.Join(t.TempDir(), "backup.db")
	var out bytes.Buffer
	dbExportCmd.SetOut(&out)
	if err := dbExportCmd.RunE(dbExportCmd, []string{dest}); err != nil {
		t.Fatalf("db export: %v", err)
	}
	if !strings.Contains(out.String(), dest) {
		t.Fatalf("unexpected export output: %s", out.String())
	}

	// the exported copy is a working database
	exported, err := store.Open(dest)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	if u, err := exported.GetUser("amina"); err != nil || u == nil {
		t.Fatalf("exported database missing user: %v %v", u, err)
	}
	_ = exported.Close()

	// diverge the live database, then restore the backup
	addUser(t, "bruno", "crocodile8")
	if err := dbImportCmd.Flags().Set("yes", "true"); err != nil {
		t.Fatalf("set --yes: %v", err)
	}
	t.Cleanup(func() { _ = dbImportCmd.Flags().Set("yes", "false") })
	dbImportCmd.SetOut(&bytes.Buffer{})
	if err := dbImportCmd.RunE(dbImportCmd, []string{dest}); err != nil {
		t.Fatalf("db import: %v", err)
	}

	appDB, err := config.AppDBPath()
	if err != nil {
		t.Fatalf("app db path: %v", err)
	}
	if _, err := os.Stat(appDB + ".bak"); err != nil {
		t.Fatalf("no .bak kept: %v", err)
	}

	st, err := openStore()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()
	if u, err := st.GetUser("bruno"); err != nil || u != nil {
		t.Fatalf("import did not restore the backup, bruno = %v (%v)", u, err)
	}
	if u, err := st.GetUser("amina"); err != nil || u == nil {
		t.Fatalf("restored database missing amina: %v %v", u, err)
	}
}

func TestDBExportRejectsMissingDatabase(t *testing.T) {
	padHome(t)
	err := dbExportCmd.RunE(dbExportCmd, []string{filepath.Join(t.TempDir(), "backup.db")})
	if err == nil {
		t.Fatalf("expected error when nothing to export")
	}
}
