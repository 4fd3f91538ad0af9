package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"garland/internal/parsing"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var (
		product        string
		limit          int
		idSelector     string
		force          bool
		includeShipped bool
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse personalization text into structured names",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			ids, err := parseIDSelector(idSelector)
			if err != nil {
				return err
			}

			if product == "" {
				product, err = ctx.defaultProduct()
				if err != nil {
					return err
				}
			}

			lock, err := ctx.acquireRunLock()
			if err != nil {
				return err
			}
			defer lock.Release()

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := ctx.openaiClient()
			if err != nil {
				return err
			}

			stage := parsing.NewStage(store, parsing.NewParser(client), logger)
			summary, err := stage.Run(cmd.Context(), parsing.Options{
				Product:        product,
				Limit:          limit,
				IDs:            ids,
				Force:          force,
				IncludeShipped: includeShipped,
				DryRun:         dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "Dry run: updates rolled back")
			}
			fmt.Fprintf(out, "Parsed %d of %d selected item(s), %d failed\n",
				summary.Updated, summary.Selected, summary.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "Product to parse (defaults to the first configured product)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of items to parse")
	cmd.Flags().StringVar(&idSelector, "ids", "", "Item row ids to parse, e.g. \"3,7,10-14\"")
	cmd.Flags().BoolVar(&force, "force", false, "Re-parse items that already have a parse result")
	cmd.Flags().BoolVar(&includeShipped, "include-shipped", false, "Include items on shipped orders")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Exercise parsing but roll back all updates")
	return cmd
}
