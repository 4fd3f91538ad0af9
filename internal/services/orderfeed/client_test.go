package orderfeed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"garland/internal/services"
	"garland/internal/services/orderfeed"
)

func TestFetchOrdersDecodesList(t *testing.T) {
	var gotPath, gotProduct string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotProduct = r.URL.Query().Get("product")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"orderNumber":"1001","items":[{"orderItemId":1}]},{"orderNumber":"1002"}]`))
	}))
	defer server.Close()

	client := orderfeed.NewClient(server.URL)
	orders, err := client.FetchOrders(context.Background(), "ornament")
	if err != nil {
		t.Fatalf("FetchOrders failed: %v", err)
	}
	if gotPath != "/get-product-orders" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotProduct != "ornament" {
		t.Fatalf("unexpected product query: %q", gotProduct)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].String("orderNumber") != "1001" {
		t.Fatalf("unexpected first order: %#v", orders[0])
	}
}

func TestFetchOrdersRejectsNonListBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer server.Close()

	client := orderfeed.NewClient(server.URL)
	if _, err := client.FetchOrders(context.Background(), "ornament"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchOrdersClassifiesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := orderfeed.NewClient(server.URL)
	if _, err := client.FetchOrders(context.Background(), "ornament"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestFetchOrdersRequiresProduct(t *testing.T) {
	client := orderfeed.NewClient("http://feed.invalid")
	if _, err := client.FetchOrders(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
