package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deskmind",
	Short: "Reasoning and planning core for a desktop automation assistant",
	Long: `deskmind turns a natural-language utterance into a validated,
dependency-ordered tool invocation graph and runs it.

It classifies whether an utterance expresses one goal or several,
interprets or classifies intent accordingly, plans and resolves each
goal against a declarative tool registry, and executes the resulting
plan graph wave by wave, enforcing preconditions and destructive-action
confirmation along the way.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}
