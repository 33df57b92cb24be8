package cmd

import (
	"clipstream/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the clipstream HTTP server",
	Long:  `Start the HTTP server exposing the clips API, health check and Prometheus metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
