package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemod/pkg/migrate"
	"github.com/Sumatoshi-tech/codemod/pkg/observability"
)

// ErrCheckFailed is returned when a migration is not idempotent on an input.
var ErrCheckFailed = errors.New("idempotence check failed")

func checkCmd(flags *globalFlags) *cobra.Command {
	var migrations []string

	cmd := &cobra.Command{
		Use:   "check <document|->...",
		Short: "Check that migrations are idempotent on parser documents",
		Long: `Check every step and every migration for idempotence on each document.

A step passes when applying it to its own output yields the same text and the
same tree. A migration passes when running it twice equals running it once.
Nothing is written.

Examples:
  codemod check testdata/*.hack.json
  codemod check -m optional-shape-fields main.hack.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags, migrations, args)
		},
	}

	cmd.Flags().StringSliceVarP(&migrations, "migration", "m", nil, "migrations to check (default: all)")

	return cmd
}

func runCheck(cmd *cobra.Command, flags *globalFlags, names, paths []string) (err error) {
	app, err := newApp(cmd, flags, observability.ModeCheck)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, app.close(cmd.Context())) }()

	migrations, err := app.migrations(names)
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Migration", "Result"})

	var failures []error

	for _, path := range paths {
		_, root, loadErr := app.load(cmd.InOrStdin(), path)
		if loadErr != nil {
			return loadErr
		}

		for _, m := range migrations {
			status := "ok"

			checkErr := migrate.CheckMigration(m, root)
			if checkErr != nil {
				status = "FAIL"
				failures = append(failures, fmt.Errorf("%s: %w", path, checkErr))

				app.logger.ErrorContext(cmd.Context(), "idempotence check failed",
					"path", path, "migration", m.Name(), "error", checkErr)
			}

			tbl.AppendRow(table.Row{sanitizeForTerminal(path), m.Name(), status})
		}
	}

	if !app.quiet || len(failures) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
	}

	for _, failure := range failures {
		fmt.Fprintln(cmd.ErrOrStderr(), failure)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%w: %d of %d checks", ErrCheckFailed, len(failures), len(paths)*len(migrations))
	}

	return nil
}
