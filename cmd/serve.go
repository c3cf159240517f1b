package cmd

import (
	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Hera API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		port := servePort
		if port == "" {
			port = app.cfg.Port
		}
		return startWebServer(app, port)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "port to listen on (defaults to HERA_PORT)")
	rootCmd.AddCommand(serveCmd)
}
