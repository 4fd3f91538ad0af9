package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"garland/internal/generate"
	"garland/internal/ingest"
	"garland/internal/parsing"
	"garland/internal/tagging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		product    string
		limit      int
		dryRun     bool
		skipIngest bool
		skipParse  bool
		skipGen    bool
		skipTag    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: ingest, parse, generate, tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			products := cfg.Feed.Products
			if product != "" {
				products = []string{product}
			}
			if len(products) == 0 {
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

			out := cmd.OutOrStdout()

			// Ingestion has no rollback path, so a dry run skips it and
			// the later stages select from whatever was last ingested.
			if dryRun && !skipIngest {
				fmt.Fprintln(out, "ingest: skipped (dry run)")
				skipIngest = true
			}
			if !skipIngest {
				feed, err := ctx.feedClient()
				if err != nil {
					return err
				}
				summary, err := ingest.New(store, feed, cfg.Ingest.OnFetchError, logger).Run(cmd.Context(), products)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "ingest: %d inserted, %d updated, %d marked shipped\n",
					summary.Inserted, summary.Updated, summary.MarkedShipped)
			}

			for _, prod := range products {
				if !skipParse {
					client, err := ctx.openaiClient()
					if err != nil {
						return err
					}
					stage := parsing.NewStage(store, parsing.NewParser(client), logger)
					summary, err := stage.Run(cmd.Context(), parsing.Options{Product: prod, Limit: limit, DryRun: dryRun})
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "parse %s: %d/%d parsed, %d failed\n",
						prod, summary.Updated, summary.Selected, summary.Failed)
				}

				if !skipGen {
					runner, err := ctx.illustratorRunner()
					if err != nil {
						return err
					}
					stage := generate.NewStage(store, runner, cfg.Paths.OutputDir, logger)
					summary, err := stage.Run(cmd.Context(), generate.Options{Product: prod, Limit: limit, DryRun: dryRun})
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "generate %s: %d/%d generated, %d failed\n",
						prod, summary.Generated, summary.Selected, summary.Failed)
				}

				if !skipTag {
					client, err := ctx.shipstationClient()
					if err != nil {
						return err
					}
					tags, threshold, err := ctx.tagIDs()
					if err != nil {
						return err
					}
					stage := tagging.NewStage(store, client, tags, threshold, logger)
					summary, err := stage.Run(cmd.Context(), tagging.Options{Product: prod, Limit: limit, DryRun: dryRun})
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "tag %s: %d tagged, %d failed\n",
						prod, summary.Succeeded, summary.Failed)
				}
			}

			if dryRun {
				fmt.Fprintln(out, "Dry run: stage updates rolled back")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "Run the pipeline for one product only")
	cmd.Flags().IntVar(&limit, "limit", 0, "Per-stage item limit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Roll back stage updates and skip external side effects")
	cmd.Flags().BoolVar(&skipIngest, "skip-ingest", false, "Skip the ingestion stage")
	cmd.Flags().BoolVar(&skipParse, "skip-parse", false, "Skip the parsing stage")
	cmd.Flags().BoolVar(&skipGen, "skip-generate", false, "Skip the generation stage")
	cmd.Flags().BoolVar(&skipTag, "skip-tag", false, "Skip the tagging stage")
	return cmd
}
