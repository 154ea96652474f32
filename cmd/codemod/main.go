// Package main provides the codemod CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemod/pkg/version"
)

// Exit codes.
const (
	exitCodeFailure           = 1
	exitCodeValidationFailure = 2
)

// globalFlags are the persistent root flags.
type globalFlags struct {
	configPath string
	language   string
	verbose    bool
	quiet      bool
}

func main() {
	version.InitBinaryVersion()

	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "codemod",
		Short: "Lossless syntax tree migrations",
		Long: `codemod builds full-fidelity syntax trees from parser output and applies
idempotent migrations to them.

Inputs are parser documents: JSON objects holding "parse_tree" and
"program_text". Documents ending in .lz4 are decompressed first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ./codemod.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flags.language, "language", "l", "", "catalog language (default: detect per file)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(parseCmd(flags))
	rootCmd.AddCommand(validateCmd(flags))
	rootCmd.AddCommand(migrateCmd(flags))
	rootCmd.AddCommand(checkCmd(flags))
	rootCmd.AddCommand(catalogCmd(flags))
	rootCmd.AddCommand(migrationsCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codemod %s\n", version.String())
		},
	}
}

// exitError carries a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}

	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}

	return exitCodeFailure
}
