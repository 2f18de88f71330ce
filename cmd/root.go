package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "market-mind",
	Short: "Market Mind - AI financial insights in your terminal",
	Long: `Market Mind is a terminal client for the Market Mind assistant backend.

It keeps named chat sessions, renders assistant replies as formatted text
with cited sources, and remembers your theme preference across runs.

Running market-mind without arguments starts the interactive chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// No arguments: enter chat mode
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
