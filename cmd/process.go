package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hera/logger"
	"hera/types"
)

var processCmd = &cobra.Command{
	Use:   "process <recording-id>",
	Short: "Transcribe and analyze a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := context.Background()
		rec, err := app.library.Get(ctx, args[0])
		if err != nil {
			return err
		}

		transcriber := app.transcriber()

		fmt.Printf("Transcribing %q...\n", rec.Title)
		transcript, err := transcriber.Transcribe(ctx, rec.AudioPath)
		if err != nil {
			return err
		}
		if _, err := app.library.SetTranscription(ctx, rec.ID, transcript); err != nil {
			return err
		}

		fmt.Println("Analyzing transcript...")
		raw, err := transcriber.Analyze(ctx, transcript)
		if err != nil {
			return err
		}
		rec, err = app.library.SetAnalysis(ctx, rec.ID, raw)
		if err != nil {
			return err
		}

		analysis, err := types.DecodeAnalysis(raw)
		if err != nil {
			fmt.Println("Analysis saved (response was not structured JSON).")
			return nil
		}

		if rec.HasPlaceholderTitle() && strings.TrimSpace(analysis.SuggestedTitle) != "" {
			renamed, err := app.library.Rename(ctx, rec.ID, analysis.SuggestedTitle)
			if err != nil {
				logger.Warn("failed to apply suggested title", logger.ErrorField(err))
			} else {
				rec = renamed
			}
		}

		fmt.Printf("\nTitle:   %s\nSummary: %s\n", rec.Title, analysis.Summary)
		if len(analysis.Events) > 0 {
			fmt.Printf("Events:    %d\n", len(analysis.Events))
		}
		if len(analysis.Reminders) > 0 {
			fmt.Printf("Reminders: %d\n", len(analysis.Reminders))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}
