package cmd

import (
	"github.com/spf13/cobra"

	"AriaFM/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the AriaFM HTTP server",
	Long:  `Start the HTTP server exposing the Subsonic-compatible API and the bespoke JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		initRuntime()
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
