package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"hera/services"
)

var importTitle string

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import audio files into the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importTitle != "" && len(args) > 1 {
			return fmt.Errorf("--title can only be used with a single file")
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		for _, path := range args {
			if err := importFile(app, path); err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
		}
		return nil
	},
}

func importFile(app *app, path string) error {
	format := services.FormatFromFilename(path)
	if format == "" {
		return fmt.Errorf("unsupported audio format (supported: m4a, wav, mp3, flac)")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	bar := progressbar.DefaultBytes(info.Size(), filepath.Base(path))
	src := io.TeeReader(f, bar)

	// Keep the source file's modification time as the recording time so
	// imported memos sort where they were actually captured.
	rec, err := app.library.Create(context.Background(), src, services.CreateOptions{
		Format:     format,
		Title:      importTitle,
		RecordedAt: info.ModTime(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Imported %s as %s (%s)\n", filepath.Base(path), rec.ID, rec.Title)
	return nil
}

func init() {
	importCmd.Flags().StringVarP(&importTitle, "title", "t", "", "title for the imported recording")
	rootCmd.AddCommand(importCmd)
}
