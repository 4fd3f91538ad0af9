package shipstation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"garland/internal/services"
	"garland/internal/services/shipstation"
)

func TestAddTagSendsPayloadAndHeaders(t *testing.T) {
	var gotBody map[string]any
	var gotAuth, gotPartner string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders/addtag" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotPartner = r.Header.Get("x-partner")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("X-Rate-Limit-Remaining", "38")
		w.Header().Set("X-Rate-Limit-Reset", "52")
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := shipstation.NewClient(server.URL, "api-key", "partner-key")
	limit, err := client.AddTag(context.Background(), "900100", 130516)
	if err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	if gotAuth != "api-key" || gotPartner != "partner-key" {
		t.Fatalf("unexpected auth headers: %q %q", gotAuth, gotPartner)
	}
	if gotBody["orderId"] != "900100" || gotBody["tagId"] != float64(130516) {
		t.Fatalf("unexpected body: %#v", gotBody)
	}
	if limit.Remaining != 38 || limit.Reset != 52 {
		t.Fatalf("unexpected rate limit: %#v", limit)
	}
}

func TestAddTagReturnsRateLimitOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Remaining", "0")
		w.Header().Set("X-Rate-Limit-Reset", "17")
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := shipstation.NewClient(server.URL, "api-key", "")
	limit, err := client.AddTag(context.Background(), "900100", 76648)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if limit.Remaining != 0 || limit.Reset != 17 {
		t.Fatalf("expected rate limit headers on failure: %#v", limit)
	}
}

func TestAddTagToleratesMissingRateHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := shipstation.NewClient(server.URL, "api-key", "")
	limit, err := client.AddTag(context.Background(), "900100", 130517)
	if err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	if limit.Remaining != -1 || limit.Reset != -1 {
		t.Fatalf("expected sentinel values for absent headers: %#v", limit)
	}
}

func TestAddTagRequiresCredentials(t *testing.T) {
	client := shipstation.NewClient("http://tags.invalid", "", "")
	if _, err := client.AddTag(context.Background(), "900100", 1); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
