package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hera/config"
	"hera/logger"
	"hera/services"
	"hera/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hera",
	Short: "Voice memo library with transcription and analysis",
	Long: `Hera keeps a folder of voice recordings in sync with a local library,
transcribes them and extracts summaries, events and reminders.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.Init(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the pieces every subcommand needs wired up.
type app struct {
	cfg      *config.Config
	store    store.RecordingStore
	library  services.LibraryService
	settings *config.SettingsStore
}

func newApp() (*app, error) {
	st, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	if err := os.MkdirAll(cfg.RecordingsDir(), 0755); err != nil {
		st.Close()
		return nil, fmt.Errorf("creating recordings directory: %w", err)
	}
	return &app{
		cfg:      cfg,
		store:    st,
		library:  services.NewLibraryService(cfg.RecordingsDir(), st),
		settings: config.NewSettingsStore(cfg.SettingsPath()),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("failed to close metadata store", logger.ErrorField(err))
	}
}

// transcriber builds the AI client. The API key is read from the settings
// file on every call so changes made through the UI apply without a restart.
func (a *app) transcriber() services.Transcriber {
	return services.NewTranscriber(a.cfg.AIBaseURL, a.cfg.TranscribeModel, a.cfg.AnalysisModel, func() string {
		return a.settings.Load().APIKey
	})
}
