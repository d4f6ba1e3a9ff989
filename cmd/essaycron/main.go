// Package main is the entry point for the essaycron CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by ldflags.
var version = "dev"

type globalFlags struct {
	stateDir string
	logLevel string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "essaycron",
		Short:         "Schedule recurring and one-shot essay emails with the OS scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.stateDir, "state-dir", "", "Persistent directory (default $HOME/.claude/plugins/.emailingessay)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(versionCmd(), scheduleCmd(flags), waitCmd(flags), serveCmd(flags))
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "essaycron %s\n", version)
		},
	}
}
