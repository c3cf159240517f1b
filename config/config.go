package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the process configuration read from the environment.
// User-changeable preferences live in the settings file instead.
type Config struct {
	Port            string
	DataDir         string
	LogLevel        string
	LogPath         string
	AIBaseURL       string
	TranscribeModel string
	AnalysisModel   string
	Workers         int
}

// Load reads a .env file when present and assembles the configuration
// from environment variables with sensible defaults.
func Load() *Config {
	_ = godotenv.Load()

	dataDir := resolveDataDir()
	return &Config{
		Port:            getEnv("HERA_PORT", "8080"),
		DataDir:         dataDir,
		LogLevel:        getEnv("HERA_LOG_LEVEL", "info"),
		LogPath:         getEnv("HERA_LOG_PATH", filepath.Join(dataDir, "hera.log")),
		AIBaseURL:       getEnv("HERA_AI_BASE_URL", "https://api.openai.com/v1"),
		TranscribeModel: getEnv("HERA_TRANSCRIBE_MODEL", "whisper-1"),
		AnalysisModel:   getEnv("HERA_ANALYSIS_MODEL", "gpt-4o-mini"),
		Workers:         getEnvInt("HERA_WORKERS", 2),
	}
}

// RecordingsDir returns the library root, one folder per recording.
func (c *Config) RecordingsDir() string {
	return filepath.Join(c.DataDir, "recordings")
}

// DatabasePath returns the location of the SQLite metadata cache.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "library.db")
}

// SettingsPath returns the location of the user settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

func resolveDataDir() string {
	if custom := os.Getenv("HERA_DATA_DIR"); custom != "" {
		return custom
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if can't get home dir
		return filepath.Join(".", ".hera")
	}
	return filepath.Join(homeDir, ".hera")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
