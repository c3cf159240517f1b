package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the recordings in the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		recordings, _ := app.library.Reconcile(context.Background())
		if len(recordings) == 0 {
			fmt.Println("No recordings found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tRECORDED\tDURATION\tTRANSCRIBED")
		for _, rec := range recordings {
			transcribed := "no"
			if rec.Transcription != nil {
				transcribed = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				rec.ID[:8],
				rec.Title,
				rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				formatDuration(rec.Duration),
				transcribed)
		}
		return w.Flush()
	},
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

func init() {
	rootCmd.AddCommand(listCmd)
}
