package testsupport

import (
	"context"
	"testing"

	"garland/internal/config"
	"garland/internal/orders"
)

// MustOpenStore opens an orders.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *orders.Store {
	t.Helper()

	store, err := orders.Open(cfg)
	if err != nil {
		t.Fatalf("orders.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedItem upserts a minimal order item for tests and returns its row.
func SeedItem(t testing.TB, store *orders.Store, orderNumber, itemID, product string) *orders.Item {
	t.Helper()

	fields := orders.UpsertFields{
		OrderNumber: orderNumber,
		ItemID:      itemID,
		OrderID:     "oid-" + orderNumber,
		RawJSON:     "{}",
		Product:     product,
		Quantity:    1,
		Options:     "[]",
	}
	if _, err := store.Upsert(context.Background(), fields); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	item, err := store.GetByKey(context.Background(), orderNumber, itemID)
	if err != nil {
		t.Fatalf("store.GetByKey: %v", err)
	}
	return item
}
