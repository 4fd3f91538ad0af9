package parsing

import (
	"errors"
	"testing"

	"garland/internal/services"
)

func TestNormalizeResponseVariants(t *testing.T) {
	result, err := normalizeResponse(`{"names":["Ben","Ava"],"year":"2026","requestedProof":true,"needsManualReview":false,"notes":"two names"}`, "2025")
	if err != nil {
		t.Fatalf("normalizeResponse failed: %v", err)
	}
	if len(result.Names) != 2 || result.Names[0] != "Ben" {
		t.Fatalf("unexpected names: %#v", result.Names)
	}
	if result.Year != "2026" {
		t.Fatalf("unexpected year: %q", result.Year)
	}
	if !result.RequestedProof || result.NeedsManualReview {
		t.Fatalf("unexpected flags: %#v", result)
	}
	if result.Notes != "two names" {
		t.Fatalf("unexpected notes: %q", result.Notes)
	}

	// snake_case flags and a free-form year value.
	result, err = normalizeResponse(`{"names":"Mia, Leo","year":"Class of 2027","requested_proof":false,"needs_manual_review":true,"explanation":"icons requested"}`, "2025")
	if err != nil {
		t.Fatalf("normalizeResponse failed: %v", err)
	}
	if len(result.Names) != 2 || result.Names[1] != "Leo" {
		t.Fatalf("unexpected names from comma string: %#v", result.Names)
	}
	if result.Year != "2027" {
		t.Fatalf("unexpected year: %q", result.Year)
	}
	if !result.NeedsManualReview {
		t.Fatal("expected manual review flag")
	}
	if result.Notes != "icons requested" {
		t.Fatalf("unexpected notes: %q", result.Notes)
	}
}

func TestNormalizeResponseMissingNamesIsValid(t *testing.T) {
	result, err := normalizeResponse(`{"year":"nope"}`, "2024")
	if err != nil {
		t.Fatalf("normalizeResponse failed: %v", err)
	}
	if len(result.Names) != 0 {
		t.Fatalf("expected empty names, got %#v", result.Names)
	}
	if result.Year != "2024" {
		t.Fatalf("expected default year, got %q", result.Year)
	}
}

func TestNormalizeResponseRejectsNonJSON(t *testing.T) {
	if _, err := normalizeResponse("sorry, I cannot help", "2025"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseNamesEncodedArrayString(t *testing.T) {
	names := parseNames(`["Zoe","","Kai"]`)
	if len(names) != 2 || names[0] != "Zoe" || names[1] != "Kai" {
		t.Fatalf("unexpected names: %#v", names)
	}
}
