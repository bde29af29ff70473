// Package main provides the entry point for the harvest-translate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/harvest-translate/cmd/harvest-translate/commands"
	"github.com/Sumatoshi-tech/harvest-translate/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "harvest-translate",
		Short: "Translate a C/C++ source tree into a buildable Rust cargo package",
		Long: `harvest-translate drives a pipeline of tools over a shared,
versioned intermediate representation: loading source, identifying its
project shape, generating a cargo package, and attempting to build it.

Commands:
  run       Run the translation pipeline once and exit`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "harvest-translate %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
