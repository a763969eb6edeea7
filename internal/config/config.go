package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Storage backend names accepted in config.
const (
	StorageFiles  = "files"
	StorageSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	// IDLength is the number of characters in generated poll ids.
	// Ids of at least this length are accepted on lookup.
	IDLength int `json:"id_length"`

	// IDMaxAttempts is how many random candidates id generation tries
	// before giving up with an exhaustion error.
	IDMaxAttempts int `json:"id_max_attempts"`

	// Storage selects the poll store backend: "files" (one JSON file per
	// poll, the default) or "sqlite" (single database file).
	Storage string `json:"storage,omitempty"`

	// BaseURL is the external URL polls are shared under, e.g.
	// "https://polls.example.com". Used only for display.
	BaseURL string `json:"base_url,omitempty"`

	// CookieMaxAgeDays controls how long the remembered-voter cookie lives.
	CookieMaxAgeDays int `json:"cookie_max_age_days,omitempty"`

	// AllowedPaths is an allowlist of directories for export/import.
	// Paths outside <data>/exports require either being in this list or
	// AllowUnsafePaths=true. Paths should be absolute (relative paths are
	// ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for export/import.
	// When true, any directory is allowed (but symlink checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		IDLength:         6,
		IDMaxAttempts:    10,
		Storage:          StorageFiles,
		CookieMaxAgeDays: 30,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.tally.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.IDLength = overlay.IDLength
	if result.IDLength == 0 {
		result.IDLength = base.IDLength
	}

	result.IDMaxAttempts = overlay.IDMaxAttempts
	if result.IDMaxAttempts == 0 {
		result.IDMaxAttempts = base.IDMaxAttempts
	}

	result.CookieMaxAgeDays = overlay.CookieMaxAgeDays
	if result.CookieMaxAgeDays == 0 {
		result.CookieMaxAgeDays = base.CookieMaxAgeDays
	}

	// Strings: overlay wins if non-empty, else base
	result.Storage = overlay.Storage
	if result.Storage == "" {
		result.Storage = base.Storage
	}

	result.BaseURL = overlay.BaseURL
	if result.BaseURL == "" {
		result.BaseURL = base.BaseURL
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
