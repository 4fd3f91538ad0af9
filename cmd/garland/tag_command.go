package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"garland/internal/tagging"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var (
		product       string
		limit         int
		orderSelector string
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Apply ShipStation tags to completed orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
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

			client, err := ctx.shipstationClient()
			if err != nil {
				return err
			}
			tags, threshold, err := ctx.tagIDs()
			if err != nil {
				return err
			}

			stage := tagging.NewStage(store, client, tags, threshold, logger)
			summary, err := stage.Run(cmd.Context(), tagging.Options{
				Product:  product,
				OrderIDs: parseOrderIDSelector(orderSelector),
				Limit:    limit,
				DryRun:   dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "Dry run: no tags dispatched, updates rolled back")
			}
			fmt.Fprintf(out, "Tagged %d order(s) (%d manual review, %d generated), %d failed\n",
				summary.Succeeded, summary.Manual, summary.Generated, summary.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "Product to tag (defaults to the first configured product)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of orders to tag")
	cmd.Flags().StringVar(&orderSelector, "orders", "", "ShipStation order ids to tag, comma separated")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report which tags would be applied without calling the API")
	return cmd
}
