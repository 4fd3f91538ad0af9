package main

import (
	"context"
	"testing"

	"garland/internal/config"
	"garland/internal/orders"
)

func TestStatusCommandEmptyDatabase(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No order items ingested yet")
}

func TestStatusCommandRendersProductRows(t *testing.T) {
	configPath := writeTestConfig(t)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := orders.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.Upsert(context.Background(), orders.UpsertFields{
		OrderNumber: "1001",
		ItemID:      "item-1",
		RawJSON:     "{}",
		Product:     "ornament",
		Quantity:    1,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, err := runCLI(t, "--config", configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Ornament")
	requireContains(t, out, "Product")
}
