package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"garland/internal/ingest"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var products []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch orders from the feed and reconcile shipped flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			targets := products
			if len(targets) == 0 {
				targets = cfg.Feed.Products
			}
			if len(targets) == 0 {
				return fmt.Errorf("no products configured; set feed.products or pass --product")
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

			feed, err := ctx.feedClient()
			if err != nil {
				return err
			}

			summary, err := ingest.New(store, feed, cfg.Ingest.OnFetchError, logger).Run(cmd.Context(), targets)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %d product feed(s): %d inserted, %d updated, %d order(s) skipped\n",
				summary.Products, summary.Inserted, summary.Updated, summary.SkippedOrders)
			fmt.Fprintf(out, "Shipped reconciliation: %d marked shipped, %d reactivated\n",
				summary.MarkedShipped, summary.Unshipped)
			if summary.FetchFailures > 0 {
				fmt.Fprintf(out, "Warning: %d product fetch(es) failed\n", summary.FetchFailures)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&products, "product", nil, "Product to ingest (repeatable; defaults to configured products)")
	return cmd
}
