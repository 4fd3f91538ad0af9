package openai_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"garland/internal/services/openai"
)

func TestCompleteReturnsFirstChoiceContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"  {\"names\":[\"Ben\"]}  "}}]}`))
	}))
	defer server.Close()

	client := openai.NewClient("key", openai.WithBaseURL(server.URL))
	content, err := client.Complete(context.Background(), []openai.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if content != `{"names":["Ben"]}` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteRetriesOnEmptyContent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client := openai.NewClient("key",
		openai.WithBaseURL(server.URL),
		openai.WithRetry(3, 0),
	)
	content, err := client.Complete(context.Background(), []openai.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if content != "ok" {
		t.Fatalf("unexpected content: %q", content)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestCompleteSurfacesLastErrorAfterBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := openai.NewClient("key",
		openai.WithBaseURL(server.URL),
		openai.WithRetry(2, 0),
	)
	if _, err := client.Complete(context.Background(), []openai.Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := openai.NewClient("")
	if _, err := client.Complete(context.Background(), []openai.Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
