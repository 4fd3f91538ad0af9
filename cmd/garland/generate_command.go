package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"garland/internal/generate"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		product    string
		limit      int
		idSelector string
		force      bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render artifacts for parsed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
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

			runner, err := ctx.illustratorRunner()
			if err != nil {
				return err
			}

			stage := generate.NewStage(store, runner, cfg.Paths.OutputDir, logger)
			summary, err := stage.Run(cmd.Context(), generate.Options{
				Product: product,
				Limit:   limit,
				IDs:     ids,
				Force:   force,
				DryRun:  dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "Dry run: no artifacts rendered, updates rolled back")
			}
			fmt.Fprintf(out, "Generated %d of %d selected item(s), %d failed\n",
				summary.Generated, summary.Selected, summary.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "Product to generate (defaults to the first configured product)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of items to generate")
	cmd.Flags().StringVar(&idSelector, "ids", "", "Item row ids to generate, e.g. \"3,7,10-14\"")
	cmd.Flags().BoolVar(&force, "force", false, "Re-generate items that already have an artifact")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Select and validate without invoking the rendering tool")
	return cmd
}
