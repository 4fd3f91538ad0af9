// Package ingest pulls open orders from the feed and reconciles the local
// store against them. The feed only returns orders that are still open, so
// a key that stops appearing has shipped; reconciliation turns that
// absence into the shipped flag.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"garland/internal/config"
	"garland/internal/logging"
	"garland/internal/orders"
	"garland/internal/payload"
)

// Feed abstracts the order source client.
type Feed interface {
	FetchOrders(ctx context.Context, product string) ([]payload.Raw, error)
}

// Summary reports what one ingestion run did.
type Summary struct {
	Products      int
	FetchFailures int
	Inserted      int
	Updated       int
	SkippedOrders int
	MarkedShipped int
	Unshipped     int
}

// Ingestor drives fetch, upsert, and reconciliation.
type Ingestor struct {
	store        *orders.Store
	feed         Feed
	onFetchError string
	logger       *slog.Logger
}

// New wires the ingestion engine. onFetchError is the configured policy
// for a failed product fetch ("fail" or "continue").
func New(store *orders.Store, feed Feed, onFetchError string, logger *slog.Logger) *Ingestor {
	policy := strings.TrimSpace(strings.ToLower(onFetchError))
	if policy == "" {
		policy = config.FetchErrorFail
	}
	return &Ingestor{
		store:        store,
		feed:         feed,
		onFetchError: policy,
		logger:       logging.NewComponentLogger(logger, "ingest"),
	}
}

// Run fetches every configured product, upserts their items, and
// reconciles shipped flags against the union of all active keys. Under the
// "continue" policy a failed fetch skips its product; reconciliation still
// runs as long as at least one product fetched, because marking rows
// shipped based on a feed we never saw would be wrong.
func (i *Ingestor) Run(ctx context.Context, products []string) (Summary, error) {
	summary := Summary{Products: len(products)}
	active := orders.KeySet{}
	fetched := 0

	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		orderList, err := i.feed.FetchOrders(ctx, product)
		if err != nil {
			summary.FetchFailures++
			if i.onFetchError == config.FetchErrorContinue {
				i.logger.Error("fetch failed, skipping product",
					logging.String("product", product),
					logging.Error(err))
				continue
			}
			return summary, fmt.Errorf("fetch orders for %s: %w", product, err)
		}
		fetched++
		i.logger.Info("fetched orders",
			logging.String("product", product),
			logging.Int("orders", len(orderList)))

		inserted, updated, keys, err := i.Ingest(ctx, product, orderList)
		if err != nil {
			return summary, err
		}
		summary.Inserted += inserted
		summary.Updated += updated
		active.Union(keys)
	}

	if fetched == 0 {
		i.logger.Warn("no feeds fetched, skipping reconciliation")
		return summary, nil
	}

	marked, unmarked, err := i.store.ReconcileShipped(ctx, active)
	if err != nil {
		return summary, fmt.Errorf("reconcile shipped flags: %w", err)
	}
	summary.MarkedShipped = marked
	summary.Unshipped = unmarked
	i.logger.Info("ingestion complete",
		logging.Int("inserted", summary.Inserted),
		logging.Int("updated", summary.Updated),
		logging.Int("marked_shipped", marked),
		logging.Int("unshipped", unmarked))
	return summary, nil
}

// Ingest upserts all items of one product's order list and returns the key
// set it processed. An order is skipped wholesale when it has no order
// number or any of its items is still waiting for its personalization
// submission.
func (i *Ingestor) Ingest(ctx context.Context, product string, orderList []payload.Raw) (inserted, updated int, active orders.KeySet, err error) {
	active = orders.KeySet{}

	for _, order := range orderList {
		orderNumber := payload.OrderNumber(order)
		if orderNumber == "" {
			i.logger.Info("skipping order without order number")
			continue
		}

		items := payload.Items(order)
		if pendingPersonalization(items) {
			i.logger.Info("skipping order with pending personalization",
				logging.String("order", orderNumber))
			continue
		}

		orderID := payload.OrderID(order)
		for _, item := range items {
			itemID := payload.ItemID(item)
			if itemID == "" {
				i.logger.Info("skipping item without id",
					logging.String("order", orderNumber))
				continue
			}

			fields := payload.Extract(item, order, product)
			raw, encodeErr := item.Encode()
			if encodeErr != nil {
				return inserted, updated, active, fmt.Errorf("encode item %s/%s: %w", orderNumber, itemID, encodeErr)
			}

			wasInserted, upsertErr := i.store.Upsert(ctx, orders.UpsertFields{
				OrderNumber:  orderNumber,
				ItemID:       itemID,
				OrderID:      orderID,
				RawJSON:      raw,
				Product:      fields.Product,
				Quantity:     fields.Quantity,
				Options:      fields.Options,
				CustomField1: fields.CustomField1,
				BuyerNote:    fields.BuyerNote,
				Year:         fields.Year,
				FileFound:    fields.FileFound,
			})
			if upsertErr != nil {
				return inserted, updated, active, fmt.Errorf("upsert item %s/%s: %w", orderNumber, itemID, upsertErr)
			}
			if wasInserted {
				inserted++
			} else {
				updated++
			}
			active.Add(orderNumber, itemID)
		}
	}
	return inserted, updated, active, nil
}

func pendingPersonalization(items []payload.Raw) bool {
	for _, item := range items {
		if payload.HasOnlyPendingPersonalizationOption(item) {
			return true
		}
	}
	return false
}
