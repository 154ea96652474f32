package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemod/pkg/observability"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/build"
)

// ErrValidationFailed is returned when a document does not match its catalog.
var ErrValidationFailed = errors.New("validation failed")

func validateCmd(flags *globalFlags) *cobra.Command {
	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <document|->...",
		Short: "Validate parser documents against the catalog",
		Long: `Validate parser documents against the catalog's JSON schema, then build
each tree to check token texts against the program text.

Exits with status 2 when any document is invalid.

Examples:
  codemod validate main.hack.json
  codemod validate --no-color src/*.hack.json
  codemod validate - < main.hack.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, flags, args, colorize, nocolor)
		},
	}

	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(cmd *cobra.Command, flags *globalFlags, paths []string, colorize, nocolor bool) (err error) {
	if nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}

	app, err := newApp(cmd, flags, observability.ModeCheck)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, app.close(cmd.Context())) }()

	writer := cmd.OutOrStdout()
	failed := 0

	for _, path := range paths {
		valid, validateErr := validateDocument(app, cmd.InOrStdin(), writer, path)
		if validateErr != nil {
			return validateErr
		}

		if !valid {
			failed++
		}
	}

	if failed > 0 {
		return withExitCode(exitCodeValidationFailure,
			fmt.Errorf("%w: %d of %d documents", ErrValidationFailed, failed, len(paths)))
	}

	return nil
}

// validateDocument reports on one document. Decoding failures count as
// invalid documents; read failures are returned.
func validateDocument(app *app, stdin io.Reader, writer io.Writer, path string) (bool, error) {
	label := sanitizeForTerminal(path)

	doc, err := app.readDocument(stdin, path)
	if err != nil {
		if errors.Is(err, build.ErrMalformedInput) {
			color.New(color.FgRed).Fprintf(writer, "%s: invalid\n  - %v\n", label, err)

			return false, nil
		}

		return false, err
	}

	result, err := build.Validate(doc.catalog, doc.raw)
	if err != nil {
		return false, err
	}

	if !result.Valid() {
		color.New(color.FgRed).Fprintf(writer, "%s: invalid %s document\n", label, doc.catalog.Language)

		for _, verr := range result.Errors() {
			color.New(color.FgRed).Fprintf(writer, "  - %s: %s\n", verr.Field(), verr.Description())
		}

		return false, nil
	}

	root, err := build.New(doc.catalog).FromDecoded(doc.raw, doc.source, path)
	if err != nil {
		color.New(color.FgRed).Fprintf(writer, "%s: invalid\n  - %v\n", label, err)

		return false, nil
	}

	if !app.quiet {
		color.New(color.FgGreen).Fprintf(writer, "%s: valid %s document (%d bytes)\n",
			label, doc.catalog.Language, root.Width())
	}

	return true, nil
}
