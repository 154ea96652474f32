package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/codemod/pkg/migrate"
	"github.com/Sumatoshi-tech/codemod/pkg/observability"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/textutil"
)

type migrateOptions struct {
	migrations       []string
	workers          int
	write            bool
	outputDir        string
	diff             bool
	checkIdempotence bool
	summary          bool
}

// fileOutcome is the result of migrating one document.
type fileOutcome struct {
	path     string
	target   string
	before   string
	after    string
	results  []migrate.Result
	duration time.Duration
}

func (o fileOutcome) changed() bool {
	return o.before != o.after
}

func migrateCmd(flags *globalFlags) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate <document|->...",
		Short: "Apply migrations to parser documents",
		Long: `Apply migrations to the trees built from parser documents.

Migrations run in the order given, each over the result of the previous one.
Without --migration every built-in migration runs. The migrated source text is
printed, shown as a diff, or written next to each document (main.hack.json
writes main.hack).

Examples:
  codemod migrate -m label-colons main.hack.json
  codemod migrate --diff src/*.hack.json
  codemod migrate --write -o out/ -w 8 src/*.hack.json.lz4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, flags, opts, args)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.migrations, "migration", "m", nil, "migrations to apply, in order (default: all)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "number of parallel workers (default: migrate.workers)")
	cmd.Flags().BoolVar(&opts.write, "write", false, "write migrated source files instead of printing them")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for written files (default: next to each document)")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "print a line diff of each changed file")
	cmd.Flags().BoolVar(&opts.checkIdempotence, "check-idempotence", false, "fail when a migration is not idempotent on an input")
	cmd.Flags().BoolVar(&opts.summary, "summary", true, "print a summary table to stderr")

	return cmd
}

// applyConfig fills options the user did not set from the loaded config.
func (o *migrateOptions) applyConfig(cmd *cobra.Command, app *app) {
	cfg := app.cfg.Migrate

	if !cmd.Flags().Changed("workers") {
		o.workers = cfg.Workers
	}

	if !cmd.Flags().Changed("write") {
		o.write = cfg.Write
	}

	if !cmd.Flags().Changed("output-dir") {
		o.outputDir = cfg.OutputDir
	}

	if !cmd.Flags().Changed("check-idempotence") {
		o.checkIdempotence = cfg.CheckIdempotence
	}

	if app.quiet {
		o.summary = false
	}
}

func runMigrate(cmd *cobra.Command, flags *globalFlags, opts *migrateOptions, paths []string) (err error) {
	app, err := newApp(cmd, flags, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, app.close(cmd.Context())) }()

	opts.applyConfig(cmd, app)

	migrations, err := app.migrations(opts.migrations)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.Migrate.Timeout)
	defer cancel()

	outcomes := make([]fileOutcome, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(opts.workers, 1))

	for idx, path := range paths {
		group.Go(func() error {
			outcome, migrateErr := migrateFile(groupCtx, app, cmd.InOrStdin(), path, migrations, opts)
			if migrateErr != nil {
				return migrateErr
			}

			outcomes[idx] = outcome

			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return err
	}

	err = emitOutcomes(cmd.OutOrStdout(), outcomes, opts)
	if err != nil {
		return err
	}

	if opts.summary {
		fmt.Fprintln(cmd.ErrOrStderr(), summaryTable(outcomes))
	}

	return nil
}

func migrateFile(
	ctx context.Context, app *app, stdin io.Reader, path string, migrations []migrate.Migration, opts *migrateOptions,
) (fileOutcome, error) {
	err := ctx.Err()
	if err != nil {
		return fileOutcome{}, fmt.Errorf("%s: %w", path, err)
	}

	start := time.Now()

	_, root, err := app.load(stdin, path)
	if err != nil {
		return fileOutcome{}, err
	}

	if opts.checkIdempotence {
		for _, m := range migrations {
			checkErr := migrate.CheckMigration(m, root)
			if checkErr != nil {
				return fileOutcome{}, fmt.Errorf("%s: %w", path, checkErr)
			}
		}
	}

	results, err := app.runner.RunAll(ctx, path, root, migrations...)
	if err != nil {
		return fileOutcome{}, err
	}

	migrated := root
	if len(results) > 0 {
		migrated = results[len(results)-1].Tree
	}

	return fileOutcome{
		path:     path,
		target:   outputPath(path, opts.outputDir),
		before:   node.FullText(root),
		after:    node.FullText(migrated),
		results:  results,
		duration: time.Since(start),
	}, nil
}

// emitOutcomes prints or diffs the migrated files in input order and writes
// them with --write. Unchanged files are only written to an output directory.
func emitOutcomes(writer io.Writer, outcomes []fileOutcome, opts *migrateOptions) error {
	for _, outcome := range outcomes {
		switch {
		case opts.diff && outcome.changed():
			fmt.Fprintf(writer, "--- %s\n+++ %s\n%s",
				sanitizeForTerminal(outcome.path), sanitizeForTerminal(outcome.target),
				textutil.LineDiff(outcome.before, outcome.after))
		case !opts.diff && !opts.write:
			_, err := io.WriteString(writer, outcome.after)
			if err != nil {
				return fmt.Errorf("write %s: %w", outcome.path, err)
			}
		}

		if opts.write && (outcome.changed() || opts.outputDir != "") {
			err := writeOutput(outcome.target, outcome.after)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func summaryTable(outcomes []fileOutcome) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Migration", "Changed", "Visited", "Rebuilt", "+", "-", "Duration"})

	changedFiles := 0

	for _, outcome := range outcomes {
		added, removed := textutil.DiffStats(outcome.before, outcome.after)

		if outcome.changed() {
			changedFiles++
		}

		for idx, result := range outcome.results {
			stats := result.Stats()
			row := table.Row{"", result.Migration, yesNo(result.Changed), stats.Visited, stats.Rebuilt, "", "", ""}

			if idx == 0 {
				row[0] = sanitizeForTerminal(outcome.path)
				row[5] = "+" + strconv.Itoa(added)
				row[6] = "-" + strconv.Itoa(removed)
				row[7] = outcome.duration.Round(time.Microsecond).String()
			}

			tbl.AppendRow(row)
		}
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d files, %d changed", len(outcomes), changedFiles)})

	return tbl.Render()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}

	return "no"
}
