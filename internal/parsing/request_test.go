package parsing

import (
	"testing"

	"garland/internal/orders"
)

func TestBuildRequestExtractsPersonalizationFromOptions(t *testing.T) {
	item := &orders.Item{
		OrderNumber: "1001",
		ItemID:      "A1",
		Quantity:    2,
		Product:     "ornament",
		RawJSON:     `{"options":[{"name":"List of Names (top to bottom)","value":"Ben, Ava, Mia"}]}`,
	}
	req, err := BuildRequest(item)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if req.PersonalizationText != "Ben, Ava, Mia" {
		t.Fatalf("unexpected personalization: %q", req.PersonalizationText)
	}
	if req.DefaultYear != "2025" {
		t.Fatalf("unexpected default year: %q", req.DefaultYear)
	}
}

func TestBuildRequestFallsBackToNestedKeys(t *testing.T) {
	item := &orders.Item{
		OrderNumber: "1002",
		ItemID:      "B1",
		Year:        "2026",
		RawJSON:     `{"jsonData":{"personalization":"Grandma's Kitchen","note_from_buyer":"gold string please"}}`,
	}
	req, err := BuildRequest(item)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if req.PersonalizationText != "Grandma's Kitchen" {
		t.Fatalf("unexpected personalization: %q", req.PersonalizationText)
	}
	if req.BuyerNote != "gold string please" {
		t.Fatalf("unexpected buyer note: %q", req.BuyerNote)
	}
	if req.DefaultYear != "2026" {
		t.Fatalf("unexpected default year: %q", req.DefaultYear)
	}
}

func TestBuildRequestPrefersStoredBuyerNote(t *testing.T) {
	item := &orders.Item{
		OrderNumber: "1003",
		ItemID:      "C1",
		BuyerNote:   "stored note",
		RawJSON:     `{"buyerNotes":"payload note"}`,
	}
	req, err := BuildRequest(item)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if req.BuyerNote != "stored note" {
		t.Fatalf("unexpected buyer note: %q", req.BuyerNote)
	}
}

func TestBuildRequestRejectsInvalidRawJSON(t *testing.T) {
	item := &orders.Item{OrderNumber: "1004", ItemID: "D1", RawJSON: "not json"}
	if _, err := BuildRequest(item); err == nil {
		t.Fatal("expected error for invalid raw_json")
	}
}

func TestBuildUserPromptSections(t *testing.T) {
	prompt := buildUserPrompt(Request{
		PersonalizationText: "Ben & Ava",
		BuyerNote:           "rush order",
		DefaultYear:         "2025",
	})
	want := "Personalization Input: Ben & Ava\nBuyer Note: rush order\nDefault Year: 2025"
	if prompt != want {
		t.Fatalf("unexpected prompt:\n%s", prompt)
	}

	prompt = buildUserPrompt(Request{DefaultYear: "2025"})
	want = "Personalization Input: <none provided>\nDefault Year: 2025"
	if prompt != want {
		t.Fatalf("unexpected prompt without inputs:\n%s", prompt)
	}
}
