package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemod/pkg/observability"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/textutil"
)

// ErrRoundTrip is returned when a built tree does not print back to its source.
var ErrRoundTrip = errors.New("tree text differs from program text")

func parseCmd(flags *globalFlags) *cobra.Command {
	var output string

	var tree, check bool

	cmd := &cobra.Command{
		Use:   "parse <document|->",
		Short: "Build a syntax tree from a parser document",
		Long: `Build a syntax tree from a parser document and print it.

By default the tree's full text is printed, which reproduces the program text
byte for byte.

Examples:
  codemod parse main.hack.json            # Print the source text
  codemod parse --tree main.hack.json     # Print the tree outline
  codemod parse --check main.hack.json.lz4
  codemod parse - < main.hack.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, flags, args[0], output, tree, check)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&tree, "tree", false, "print the tree outline instead of the text")
	cmd.Flags().BoolVar(&check, "check", false, "only verify that the tree reproduces the program text")

	return cmd
}

func runParse(cmd *cobra.Command, flags *globalFlags, path, output string, tree, check bool) (err error) {
	app, err := newApp(cmd, flags, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, app.close(cmd.Context())) }()

	doc, root, err := app.load(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	text := node.FullText(root)

	if check {
		if text != doc.source {
			return fmt.Errorf("%w in %s:\n%s", ErrRoundTrip, sanitizeForTerminal(path), textutil.LineDiff(doc.source, text))
		}

		if !app.quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d lines, %d bytes)\n",
				sanitizeForTerminal(path), textutil.CountLines(text), len(text))
		}

		return nil
	}

	writer := cmd.OutOrStdout()

	if output != "" {
		file, createErr := os.Create(output)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer file.Close()

		writer = file
	}

	return printTree(writer, root, tree)
}

func printTree(writer io.Writer, root node.Node, outline bool) error {
	if outline {
		return node.Dump(writer, root)
	}

	return node.WriteFullText(writer, root)
}
