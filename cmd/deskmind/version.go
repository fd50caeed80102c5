package main

import (
	"fmt"

	"github.com/coreline-ai/deskmind/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deskmind version %s\n", version.Get())
	},
}
