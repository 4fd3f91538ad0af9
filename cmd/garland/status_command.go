package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-product pipeline progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(stats) == 0 {
				fmt.Fprintln(out, "No order items ingested yet")
				return nil
			}

			title := cases.Title(language.English)
			headers := []string{"Product", "Total", "Shipped", "Parsed", "Generated", "Manual", "Tagged"}
			aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
			rows := make([][]string, 0, len(stats))
			for _, row := range stats {
				rows = append(rows, []string{
					title.String(row.Product),
					strconv.Itoa(row.Total),
					strconv.Itoa(row.Shipped),
					strconv.Itoa(row.Parsed),
					strconv.Itoa(row.Generated),
					strconv.Itoa(row.Manual),
					strconv.Itoa(row.Tagged),
				})
			}

			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}
}
