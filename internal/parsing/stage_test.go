package parsing_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"garland/internal/logging"
	"garland/internal/orders"
	"garland/internal/parsing"
	"garland/internal/services/openai"
	"garland/internal/testsupport"
)

type stubCompleter struct {
	responses map[string]string
	err       error
	calls     int
}

func (s *stubCompleter) Complete(_ context.Context, messages []openai.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	for _, msg := range messages {
		if msg.Role != "user" {
			continue
		}
		for input, response := range s.responses {
			if input != "" && strings.Contains(msg.Content, "Personalization Input: "+input) {
				return response, nil
			}
		}
	}
	return `{"names":[]}`, nil
}

func TestStageRunPersistsResults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	seeded := seedWithPersonalization(t, store, "1001", "A1", "Ben, Ava")

	completer := &stubCompleter{responses: map[string]string{
		"Ben, Ava": `{"names":["Ben","Ava"],"year":"2025","requestedProof":false,"needsManualReview":false}`,
	}}
	stage := parsing.NewStage(store, parsing.NewParser(completer), logging.NewNop())

	summary, err := stage.Run(ctx, parsing.Options{Product: "ornament"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Selected != 1 || summary.Updated != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	item, err := store.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if item.Names != `["Ben","Ava"]` {
		t.Fatalf("unexpected stored names: %q", item.Names)
	}
}

func TestStageRunCountsPerRecordFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	seedWithPersonalization(t, store, "2001", "B1", "Mia")

	completer := &stubCompleter{err: errors.New("model unavailable")}
	stage := parsing.NewStage(store, parsing.NewParser(completer), logging.NewNop())

	summary, err := stage.Run(ctx, parsing.Options{Product: "ornament"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 || summary.Updated != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestStageRunDryRunRollsBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	seeded := seedWithPersonalization(t, store, "3001", "C1", "Zoe")

	completer := &stubCompleter{responses: map[string]string{
		"Zoe": `{"names":["Zoe"]}`,
	}}
	stage := parsing.NewStage(store, parsing.NewParser(completer), logging.NewNop())

	summary, err := stage.Run(ctx, parsing.Options{Product: "ornament", DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("expected dry run to exercise the full path: %#v", summary)
	}
	if completer.calls != 1 {
		t.Fatalf("expected one model call, got %d", completer.calls)
	}

	item, err := store.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if item.Names != "" {
		t.Fatalf("expected dry run to persist nothing, got names %q", item.Names)
	}
}

func seedWithPersonalization(t *testing.T, store *orders.Store, orderNumber, itemID, text string) *orders.Item {
	t.Helper()
	fields := orders.UpsertFields{
		OrderNumber: orderNumber,
		ItemID:      itemID,
		OrderID:     "oid-" + orderNumber,
		Product:     "ornament",
		Quantity:    1,
		RawJSON:     `{"options":[{"name":"Personalization","value":"` + text + `"}]}`,
	}
	if _, err := store.Upsert(context.Background(), fields); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	item, err := store.GetByKey(context.Background(), orderNumber, itemID)
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	return item
}
