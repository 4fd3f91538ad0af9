// Package tagging applies downstream workflow tags to orders once every
// item has either generated successfully or been routed to manual review.
// Tagging is order-level: one failed item puts the whole order in the
// manual queue, and an order is only marked tagged after every tag in its
// list was accepted.
package tagging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"garland/internal/logging"
	"garland/internal/orders"
	"garland/internal/services/shipstation"
)

const defaultLimit = 50

// Tagger abstracts the tagging API client for tests.
type Tagger interface {
	AddTag(ctx context.Context, orderID string, tagID int) (shipstation.RateLimit, error)
}

// TagIDs holds the configured tag identifiers.
type TagIDs struct {
	Generated int
	Secondary int
	Manual    int
}

// Options select and scope one tagging run.
type Options struct {
	Product  string
	OrderIDs []string
	Limit    int
	DryRun   bool
}

// Summary reports what one tagging run did.
type Summary struct {
	Manual    int
	Generated int
	Succeeded int
	Failed    int
}

// Stage dispatches tags for eligible orders.
type Stage struct {
	store              *orders.Store
	client             Tagger
	tags               TagIDs
	rateLimitThreshold int
	logger             *slog.Logger
	sleep              func(time.Duration)
}

// NewStage wires the tagging stage. When remaining quota drops to the
// threshold or below after a call, the stage sleeps until the reported
// reset passes.
func NewStage(store *orders.Store, client Tagger, tags TagIDs, rateLimitThreshold int, logger *slog.Logger) *Stage {
	return &Stage{
		store:              store,
		client:             client,
		tags:               tags,
		rateLimitThreshold: rateLimitThreshold,
		logger:             logging.NewComponentLogger(logger, "tag"),
		sleep:              time.Sleep,
	}
}

// Run selects manual-review orders first, then fully generated orders with
// whatever limit budget remains, and applies the respective tag lists. All
// tagged marks share the end-of-run transaction; a dry run makes no API
// calls and rolls back.
func (s *Stage) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	manual, err := s.store.ManualReviewOrders(ctx, orders.TagQuery{
		Product:  opts.Product,
		OrderIDs: opts.OrderIDs,
		Limit:    opts.Limit,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("select manual review orders: %w", err)
	}

	// Manual orders drain the budget before the generated pass.
	remaining := opts.Limit - len(manual)
	var generated []orders.OrderRef
	if remaining > 0 {
		generated, err = s.store.FullyGeneratedOrders(ctx, orders.TagQuery{
			Product:  opts.Product,
			OrderIDs: opts.OrderIDs,
			Limit:    remaining,
		})
		if err != nil {
			return Summary{}, fmt.Errorf("select generated orders: %w", err)
		}
	}

	summary := Summary{Manual: len(manual), Generated: len(generated)}
	if len(manual) == 0 && len(generated) == 0 {
		s.logger.Info("no orders eligible for tagging", logging.String("product", opts.Product))
		return summary, nil
	}

	batch, err := s.store.BeginBatch(ctx)
	if err != nil {
		return summary, err
	}
	defer batch.Rollback()

	process := func(refs []orders.OrderRef, tagIDs []int, kind string) error {
		for _, ref := range refs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.applyTags(ctx, ref, tagIDs, kind, opts.DryRun) {
				if err := batch.MarkTagged(ctx, ref.OrderID); err != nil {
					return err
				}
				summary.Succeeded++
			} else {
				summary.Failed++
			}
		}
		return nil
	}

	if err := process(manual, []int{s.tags.Manual}, "manual"); err != nil {
		return summary, err
	}
	if err := process(generated, []int{s.tags.Secondary, s.tags.Generated}, "generated"); err != nil {
		return summary, err
	}

	if opts.DryRun {
		s.logger.Info("dry run, rolling back tagged marks",
			logging.Int("manual", summary.Manual),
			logging.Int("generated", summary.Generated))
		return summary, batch.Rollback()
	}
	if err := batch.Commit(); err != nil {
		return summary, err
	}
	s.logger.Info("tagging run complete",
		logging.Int("manual", summary.Manual),
		logging.Int("generated", summary.Generated),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

// applyTags applies the tag list sequentially. The first failure aborts
// the remaining tags for that order so the whole order stays untagged and
// retryable next run.
func (s *Stage) applyTags(ctx context.Context, ref orders.OrderRef, tagIDs []int, kind string, dryRun bool) bool {
	for _, tagID := range tagIDs {
		if dryRun {
			s.logger.Info("dry run, would apply tag",
				logging.String("order_id", ref.OrderID),
				logging.String("order", ref.OrderNumber),
				logging.Int("tag", tagID),
				logging.String("kind", kind))
			continue
		}

		limit, err := s.client.AddTag(ctx, ref.OrderID, tagID)
		if err != nil {
			s.logger.Error("failed to apply tag",
				logging.String("order_id", ref.OrderID),
				logging.String("order", ref.OrderNumber),
				logging.Int("tag", tagID),
				logging.Error(err))
			return false
		}
		s.logger.Debug("applied tag",
			logging.String("order_id", ref.OrderID),
			logging.Int("tag", tagID),
			logging.Int("quota_remaining", limit.Remaining),
			logging.Int("quota_reset", limit.Reset))

		if limit.Remaining >= 0 && limit.Remaining <= s.rateLimitThreshold && limit.Reset >= 0 {
			wait := time.Duration(limit.Reset+1) * time.Second
			if wait < time.Second {
				wait = time.Second
			}
			s.logger.Info("rate limit low, pausing",
				logging.Int("remaining", limit.Remaining),
				logging.Duration("wait", wait))
			s.sleep(wait)
		}
	}
	return true
}
