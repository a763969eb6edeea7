package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.IDLength != 6 {
		t.Errorf("IDLength = %d, want 6", cfg.IDLength)
	}
	if cfg.IDMaxAttempts != 10 {
		t.Errorf("IDMaxAttempts = %d, want 10", cfg.IDMaxAttempts)
	}
	if cfg.Storage != StorageFiles {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageFiles)
	}
	if cfg.CookieMaxAgeDays != 30 {
		t.Errorf("CookieMaxAgeDays = %d, want 30", cfg.CookieMaxAgeDays)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Missing file falls back to defaults
	if cfg.IDLength != 6 {
		t.Errorf("IDLength = %d, want 6", cfg.IDLength)
	}
	if cfg.Storage != StorageFiles {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageFiles)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	content := `{"id_length": 8, "storage": "sqlite", "allow_unsafe_paths": true}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.IDLength != 8 {
		t.Errorf("IDLength = %d, want 8", cfg.IDLength)
	}
	if cfg.Storage != StorageSQLite {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageSQLite)
	}
	if !cfg.AllowUnsafePaths {
		t.Error("AllowUnsafePaths = false, want true")
	}
	// Unset fields keep defaults
	if cfg.IDMaxAttempts != 10 {
		t.Errorf("IDMaxAttempts = %d, want 10", cfg.IDMaxAttempts)
	}
	if cfg.CookieMaxAgeDays != 30 {
		t.Errorf("CookieMaxAgeDays = %d, want 30", cfg.CookieMaxAgeDays)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load should fail on malformed JSON")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.AllowedPaths = []string{"/a", "/b"}

	overlay := &Config{
		IDLength:     10,
		BaseURL:      "https://polls.example.com",
		AllowedPaths: []string{"/b", "/c"},
	}

	result := Merge(base, overlay)

	if result.IDLength != 10 {
		t.Errorf("IDLength = %d, want 10 (overlay wins)", result.IDLength)
	}
	if result.IDMaxAttempts != 10 {
		t.Errorf("IDMaxAttempts = %d, want 10 (base kept)", result.IDMaxAttempts)
	}
	if result.BaseURL != "https://polls.example.com" {
		t.Errorf("BaseURL = %q, want overlay value", result.BaseURL)
	}
	if len(result.AllowedPaths) != 3 {
		t.Errorf("AllowedPaths = %v, want merged+deduplicated 3 entries", result.AllowedPaths)
	}
}
