package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the CLI against a throwaway data directory.
func run(t *testing.T, dataDir string, args ...string) error {
	t.Helper()
	app := newCLIApp()
	return app.Run(append([]string{"tally", "--data", dataDir}, args...))
}

func TestCLI_CreateShowList(t *testing.T) {
	dir := t.TempDir()

	if err := run(t, dir, "create",
		"--title", "Team lunch",
		"--option", "Mon", "--option", "Tue",
		"--password", "hunter2",
		"--exclusive",
	); err != nil {
		t.Fatalf("create: %v", err)
	}

	// the poll landed in the data directory
	entries, err := os.ReadDir(filepath.Join(dir, "polls"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(polls) = %d, want 1", len(entries))
	}
	id := strings.TrimSuffix(entries[0].Name(), ".json")

	if err := run(t, dir, "show", id); err != nil {
		t.Errorf("show: %v", err)
	}
	if err := run(t, dir, "list"); err != nil {
		t.Errorf("list: %v", err)
	}
}

func TestCLI_CreateValidation(t *testing.T) {
	err := run(t, t.TempDir(), "create", "--option", "Mon")
	if err == nil || !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("create without title = %v, want INVALID_REQUEST", err)
	}
}

func TestCLI_ShowUnknown(t *testing.T) {
	err := run(t, t.TempDir(), "show", "zzz999")
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("show unknown = %v, want NOT_FOUND", err)
	}
}

func TestCLI_ShowMissingArg(t *testing.T) {
	err := run(t, t.TempDir(), "show")
	if err == nil || !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("show without id = %v, want INVALID_REQUEST", err)
	}
}

func TestCLI_ExportImport(t *testing.T) {
	dir := t.TempDir()
	exportDir := t.TempDir()

	// allow the test directory for export paths
	cfgJSON := `{"allowed_paths": ["` + exportDir + `"]}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfgJSON), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := run(t, dir, "create", "--title", "Backup me", "--option", "A"); err != nil {
		t.Fatalf("create: %v", err)
	}

	path := filepath.Join(exportDir, "backup.jsonl")
	if err := run(t, dir, "export", "--path", path); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	fresh := t.TempDir()
	if err := os.WriteFile(filepath.Join(fresh, "config.json"), []byte(cfgJSON), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := run(t, fresh, "import", "--path", path); err != nil {
		t.Fatalf("import: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(fresh, "polls"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("restored polls = %v, %v", entries, err)
	}
}

func TestCLI_SQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"storage": "sqlite"}`), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := run(t, dir, "create", "--title", "In sqlite", "--option", "A"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "tally.db")); err != nil {
		t.Errorf("database file missing: %v", err)
	}
	if err := run(t, dir, "list"); err != nil {
		t.Errorf("list: %v", err)
	}
}
