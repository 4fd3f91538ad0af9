package parsing

import (
	"context"
	"fmt"
	"log/slog"

	"garland/internal/logging"
	"garland/internal/orders"
)

const defaultLimit = 50

// Options select and scope one parsing run.
type Options struct {
	Product        string
	Limit          int
	IDs            []int64
	Force          bool
	IncludeShipped bool
	DryRun         bool
}

// Summary reports what one parsing run did.
type Summary struct {
	Selected int
	Updated  int
	Failed   int
}

// Stage runs personalization parsing over pending rows.
type Stage struct {
	store  *orders.Store
	parser *Parser
	logger *slog.Logger
}

// NewStage wires the parsing stage.
func NewStage(store *orders.Store, parser *Parser, logger *slog.Logger) *Stage {
	return &Stage{
		store:  store,
		parser: parser,
		logger: logging.NewComponentLogger(logger, "parse"),
	}
}

// Run parses every selected row. Per-record failures are logged and
// counted, never fatal. All row updates share one transaction; a dry run
// rolls it back after exercising the full path.
func (s *Stage) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	rows, err := s.store.PendingParse(ctx, orders.ParseQuery{
		Product:        opts.Product,
		Limit:          opts.Limit,
		IDs:            opts.IDs,
		Force:          opts.Force,
		IncludeShipped: opts.IncludeShipped,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("select rows for parsing: %w", err)
	}
	summary := Summary{Selected: len(rows)}
	if len(rows) == 0 {
		s.logger.Info("no rows pending parse", logging.String("product", opts.Product))
		return summary, nil
	}

	batch, err := s.store.BeginBatch(ctx)
	if err != nil {
		return summary, err
	}
	defer batch.Rollback()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		request, err := BuildRequest(row)
		if err != nil {
			summary.Failed++
			s.logger.Error("failed to build parse request",
				logging.Int64("id", row.ID),
				logging.String("order", row.OrderNumber),
				logging.String("item", row.ItemID),
				logging.Error(err))
			continue
		}

		result, err := s.parser.Parse(ctx, request)
		if err != nil {
			summary.Failed++
			s.logger.Error("model parse failed",
				logging.Int64("id", row.ID),
				logging.String("order", row.OrderNumber),
				logging.String("item", row.ItemID),
				logging.Error(err))
			continue
		}

		if err := batch.SaveParseResult(ctx, row.ID, result.Names, result.Year, result.RequestedProof, result.NeedsManualReview); err != nil {
			return summary, err
		}
		summary.Updated++
		s.logger.Info("parsed personalization",
			logging.Int64("id", row.ID),
			logging.String("order", row.OrderNumber),
			logging.Int("names", len(result.Names)),
			logging.String("year", result.Year),
			logging.Bool("proof", result.RequestedProof),
			logging.Bool("manual_review", result.NeedsManualReview))
	}

	if opts.DryRun {
		s.logger.Info("dry run, rolling back parse results",
			logging.Int("updated", summary.Updated),
			logging.Int("failed", summary.Failed))
		return summary, batch.Rollback()
	}
	if err := batch.Commit(); err != nil {
		return summary, err
	}
	s.logger.Info("parse run complete",
		logging.Int("selected", summary.Selected),
		logging.Int("updated", summary.Updated),
		logging.Int("failed", summary.Failed))
	return summary, nil
}
