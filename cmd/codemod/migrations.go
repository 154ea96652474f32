package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemod/pkg/migrate"
)

func migrationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrations",
		Short: "List the built-in migrations",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), migrationTable(migrate.Default().All()))
		},
	}
}

func migrationTable(migrations []migrate.Migration) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Name", "Steps", "Description"})

	for _, m := range migrations {
		steps := m.Steps()
		names := make([]string, 0, len(steps))

		for _, step := range steps {
			names = append(names, step.Name())
		}

		tbl.AppendRow(table.Row{m.Name(), fmt.Sprint(names), m.Description()})
	}

	return tbl.Render()
}
