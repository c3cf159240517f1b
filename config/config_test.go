package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLoadDefaults tests the fallback configuration
func TestLoadDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("HERA_DATA_DIR", dataDir)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AIBaseURL)
	assert.Equal(t, "whisper-1", cfg.TranscribeModel)
	assert.Equal(t, "gpt-4o-mini", cfg.AnalysisModel)
	assert.Equal(t, 2, cfg.Workers)

	assert.Equal(t, filepath.Join(dataDir, "recordings"), cfg.RecordingsDir())
	assert.Equal(t, filepath.Join(dataDir, "library.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(dataDir, "settings.json"), cfg.SettingsPath())
}

// TestLoadFromEnvironment tests that environment variables win over defaults
func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HERA_DATA_DIR", t.TempDir())
	t.Setenv("HERA_PORT", "9999")
	t.Setenv("HERA_AI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("HERA_WORKERS", "4")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AIBaseURL)
	assert.Equal(t, 4, cfg.Workers)
}

// TestLoadIgnoresBadWorkerCount tests the integer parse fallback
func TestLoadIgnoresBadWorkerCount(t *testing.T) {
	t.Setenv("HERA_DATA_DIR", t.TempDir())
	t.Setenv("HERA_WORKERS", "many")

	cfg := Load()
	assert.Equal(t, 2, cfg.Workers)
}
