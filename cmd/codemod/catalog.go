package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemod/pkg/observability"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/catalog"
	"github.com/Sumatoshi-tech/codemod/pkg/textutil"
)

// ErrUnknownKind is returned when the catalog has no such kind.
var ErrUnknownKind = errors.New("unknown kind")

func catalogCmd(flags *globalFlags) *cobra.Command {
	var schema bool

	cmd := &cobra.Command{
		Use:   "catalog [kind]",
		Short: "Show the node kind catalog",
		Long: `Show the kinds of the catalog, or the slots of one kind.

Examples:
  codemod catalog                      # List kinds
  codemod catalog field_specifier      # Show the slots of one kind
  codemod catalog --schema > hack.json # Print the parser document JSON schema`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd, flags, args, schema)
		},
	}

	cmd.Flags().BoolVar(&schema, "schema", false, "print the JSON schema of the parser document tree")

	return cmd
}

func runCatalog(cmd *cobra.Command, flags *globalFlags, args []string, schema bool) (err error) {
	app, err := newApp(cmd, flags, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, app.close(cmd.Context())) }()

	language := app.language
	if language == "" {
		language = catalog.Default().Language
	}

	cat, _ := app.catalogs.Lookup(language)

	writer := cmd.OutOrStdout()

	if schema {
		data, schemaErr := cat.JSONSchema()
		if schemaErr != nil {
			return schemaErr
		}

		_, err = fmt.Fprintln(writer, string(data))

		return err
	}

	if len(args) == 1 {
		kind, ok := cat.Kind(args[0])
		if !ok {
			return unknownKindError(cat, args[0])
		}

		fmt.Fprintln(writer, slotTable(kind))

		return nil
	}

	fmt.Fprintln(writer, kindTable(cat))

	return nil
}

func unknownKindError(cat *catalog.Catalog, name string) error {
	names := make([]string, 0, len(cat.Kinds()))
	for _, kind := range cat.Kinds() {
		names = append(names, kind.Name)
	}

	if hint, found := textutil.Suggest(name, names); found {
		return fmt.Errorf("%w: %s in %s catalog (did you mean %s?)", ErrUnknownKind, sanitizeForTerminal(name), cat.Language, hint)
	}

	return fmt.Errorf("%w: %s in %s catalog", ErrUnknownKind, sanitizeForTerminal(name), cat.Language)
}

func kindTable(cat *catalog.Catalog) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("%s catalog", cat.Language)
	tbl.AppendHeader(table.Row{"Kind", "Slots"})

	for _, kind := range cat.Kinds() {
		tbl.AppendRow(table.Row{kind.Name, strings.Join(kind.SlotNames(), ", ")})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%d kinds, %d tokens, %d trivia",
		len(cat.Kinds()), len(cat.TokenKinds()), len(cat.TriviaKinds()))})

	return tbl.Render()
}

func slotTable(kind *catalog.Kind) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(kind.Name)
	tbl.AppendHeader(table.Row{"Slot", "JSON key", "Variants"})

	for _, slot := range kind.Slots() {
		tbl.AppendRow(table.Row{slot.Name, slot.JSONKey, slot.Variants.String()})
	}

	return tbl.Render()
}
