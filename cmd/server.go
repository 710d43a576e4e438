package cmd

import (
	"CutRoom/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the CutRoom server",
	Long:  `Starts the workbench HTTP server: auth, timeline editing, waveforms, transport and the websocket event feed.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
