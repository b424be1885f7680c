package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set by build flags).
	Version = "0.1.0"

	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "glassbox",
	Short: "glassbox - compliance rule engine CLI",
	Long: `glassbox parses, validates, and executes DecisionBundle compliance
rules against an execution context, and generates verifiable evidence and
audit records along the way.

Subcommands:
  validate       check a bundle file for structural and semantic errors
  execute        run a bundle against an execution context
  parse          parse (and optionally evaluate) a single DSL rule
  create-bundle  scaffold a new, empty DecisionBundle
  list-bundles   list every bundle found in a directory
  serve          run the long-lived service: metrics, retention, hot-reload`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (used by serve)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
