package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// UserSettings represents the user's personal settings
type UserSettings struct {
	APIKey string `json:"apiKey"`
	Theme  string `json:"theme"`
}

const DefaultTheme = "system"

// ValidTheme reports whether the theme is one the UI knows how to render.
func ValidTheme(theme string) bool {
	switch theme {
	case "light", "dark", "system":
		return true
	}
	return false
}

// SettingsStore reads and writes the settings file. A missing or unreadable
// file falls back to defaults rather than erroring.
type SettingsStore struct {
	path string
	mu   sync.Mutex
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Load returns the persisted settings, or defaults when none exist.
func (s *SettingsStore) Load() UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := UserSettings{Theme: DefaultTheme}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return defaults
	}

	var settings UserSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return defaults
	}
	if !ValidTheme(settings.Theme) {
		settings.Theme = DefaultTheme
	}
	return settings
}

// Save validates and persists the settings. The file is written 0600
// because it holds the API key.
func (s *SettingsStore) Save(settings UserSettings) error {
	if !ValidTheme(settings.Theme) {
		return fmt.Errorf("invalid theme %q", settings.Theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}
