package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSettingsDefaults tests that a missing file reads as defaults
func TestSettingsDefaults(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))

	settings := store.Load()
	assert.Empty(t, settings.APIKey)
	assert.Equal(t, DefaultTheme, settings.Theme)
}

// TestSettingsRoundTrip tests persisting and reloading settings
func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewSettingsStore(path)

	err := store.Save(UserSettings{APIKey: "sk-test-123", Theme: "dark"})
	require.NoError(t, err)

	settings := store.Load()
	assert.Equal(t, "sk-test-123", settings.APIKey)
	assert.Equal(t, "dark", settings.Theme)

	// The file holds the API key and must not be world readable.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// TestSettingsRejectsInvalidTheme tests theme validation on save
func TestSettingsRejectsInvalidTheme(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))

	err := store.Save(UserSettings{Theme: "neon"})
	assert.Error(t, err)
}

// TestSettingsToleratesCorruptFile tests the fallback on unreadable content
func TestSettingsToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "not json at all"},
		{name: "unknown theme", content: `{"apiKey":"kept?","theme":"neon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			settings := NewSettingsStore(path).Load()
			assert.Equal(t, DefaultTheme, settings.Theme)
		})
	}
}

// TestValidTheme tests the theme whitelist
func TestValidTheme(t *testing.T) {
	for _, theme := range []string{"light", "dark", "system"} {
		assert.True(t, ValidTheme(theme), theme)
	}
	for _, theme := range []string{"", "Neon", "LIGHT"} {
		assert.False(t, ValidTheme(theme), theme)
	}
}
