package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codeagent",
	Short: "Codeagent is an autonomous coding agent for your working directory",
	Long: `Codeagent takes a natural-language request and carries it out against
the files in a directory: reading, searching, listing, creating, editing,
and deleting as needed, then reports back what it did.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory the agent works in")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log each decision and action to stderr")
}
