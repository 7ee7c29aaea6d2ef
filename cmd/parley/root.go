package main

import (
	"fmt"
	"os"

	"mercator-hq/parley/pkg/cli"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley - feedback-driven validation of agent tool calls",
	Long: `Parley validates the arguments of agent tool calls one field at a time.

Fields are checked in dependency order. Every invalid field is reported with
its problems and, where known, the values that would be accepted, so the
agent can correct its call instead of guessing.

Tools are declared in a YAML file and served over the Model Context Protocol.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "parley.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
