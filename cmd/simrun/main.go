package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// These variables are populated by the build via -ldflags.
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "simrun",
	Short: "Run workflow code snippets through the execution pipeline",
	Long: `Simrun resolves workflow references inside a code snippet, wraps the
snippet for its target backend, executes it, and reports the outcome.

JavaScript snippets run on the embedded engine unless a remote sandbox
service is configured. Python snippets always require the remote service.

Examples:
	# Run a JavaScript snippet in-process
	simrun run snippet.js

	# Bind workflow context from a YAML file
	simrun run snippet.js --context workflow.yaml

	# Run Python on a sandbox service
	simrun run snippet.py --remote-url https://sandbox.internal:8400

	# Print build info
	simrun version

Output:
	By default, the snippet's stdout is printed first, then its result (or
	error) and the elapsed time. Pass --json for the full machine-readable
	result object.`,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log routing and backend activity to stderr")
}

func main() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
