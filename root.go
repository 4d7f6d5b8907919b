package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	debug bool
}

var rootCmd = &cobra.Command{
	Use:   "tamreport",
	Short: "Weekly customer case reports from rhcase data",
	Long: "tamreport fetches a customer's support cases through the rhcase CLI,\n" +
		"classifies and validates them, renders a weekly Markdown report and\n" +
		"optionally posts it to the customer's portal group.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "Verbose logging")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.Version = version
}
