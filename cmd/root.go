package cmd

import (
	"fmt"
	"log"
	"os"

	"CutRoom/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cutroom",
	Short: "CutRoom is an audio workbench for script-to-video timelines.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting CutRoom server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
