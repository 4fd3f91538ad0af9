package tagging

import (
	"context"
	"errors"
	"testing"
	"time"

	"garland/internal/logging"
	"garland/internal/orders"
	"garland/internal/services/shipstation"
	"garland/internal/testsupport"
)

type taggedCall struct {
	orderID string
	tagID   int
}

type stubTagger struct {
	calls   []taggedCall
	failOn  map[taggedCall]error
	limits  map[taggedCall]shipstation.RateLimit
	noLimit shipstation.RateLimit
}

func newStubTagger() *stubTagger {
	return &stubTagger{
		failOn:  map[taggedCall]error{},
		limits:  map[taggedCall]shipstation.RateLimit{},
		noLimit: shipstation.RateLimit{Remaining: 40, Reset: 50},
	}
}

func (s *stubTagger) AddTag(_ context.Context, orderID string, tagID int) (shipstation.RateLimit, error) {
	call := taggedCall{orderID: orderID, tagID: tagID}
	s.calls = append(s.calls, call)
	if err, ok := s.failOn[call]; ok {
		return s.noLimit, err
	}
	if limit, ok := s.limits[call]; ok {
		return limit, nil
	}
	return s.noLimit, nil
}

var testTags = TagIDs{Generated: 130516, Secondary: 76648, Manual: 130517}

func seedOrder(t *testing.T, store *orders.Store, orderNumber string, itemIDs []string, generated bool, manual bool) {
	t.Helper()
	ctx := context.Background()
	batch, err := store.BeginBatch(ctx)
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	for _, itemID := range itemIDs {
		item := testsupport.SeedItem(t, store, orderNumber, itemID, "ornament")
		if generated {
			if err := batch.SaveGenerationOutcome(ctx, item.ID, orderNumber+"_"+itemID+".pdf", true, ""); err != nil {
				t.Fatalf("SaveGenerationOutcome failed: %v", err)
			}
		}
		if manual {
			if err := batch.SaveParseResult(ctx, item.ID, []string{"x"}, "2025", false, true); err != nil {
				t.Fatalf("SaveParseResult failed: %v", err)
			}
		}
	}
	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func newTestStage(store *orders.Store, tagger *stubTagger) *Stage {
	stage := NewStage(store, tagger, testTags, 15, logging.NewNop())
	stage.sleep = func(time.Duration) {}
	return stage
}

func TestRunAppliesManualThenGeneratedTags(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	seedOrder(t, store, "1001", []string{"A1", "A2"}, true, false)
	seedOrder(t, store, "1002", []string{"B1"}, false, true)

	tagger := newStubTagger()
	stage := newTestStage(store, tagger)

	summary, err := stage.Run(context.Background(), Options{Product: "ornament"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Manual != 1 || summary.Generated != 1 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	want := []taggedCall{
		{orderID: "oid-1002", tagID: testTags.Manual},
		{orderID: "oid-1001", tagID: testTags.Secondary},
		{orderID: "oid-1001", tagID: testTags.Generated},
	}
	if len(tagger.calls) != len(want) {
		t.Fatalf("unexpected calls: %#v", tagger.calls)
	}
	for i, call := range want {
		if tagger.calls[i] != call {
			t.Fatalf("call %d = %#v, want %#v", i, tagger.calls[i], call)
		}
	}

	refs, err := store.FullyGeneratedOrders(context.Background(), orders.TagQuery{Product: "ornament"})
	if err != nil {
		t.Fatalf("FullyGeneratedOrders failed: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected all orders marked tagged, got %#v", refs)
	}
}

func TestRunTagFailureLeavesOrderUntagged(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	seedOrder(t, store, "2001", []string{"A1"}, true, false)

	tagger := newStubTagger()
	tagger.failOn[taggedCall{orderID: "oid-2001", tagID: testTags.Secondary}] = errors.New("http 500")
	stage := newTestStage(store, tagger)

	summary, err := stage.Run(context.Background(), Options{Product: "ornament"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 || summary.Succeeded != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	// The second tag of the list must not have been attempted.
	for _, call := range tagger.calls {
		if call.tagID == testTags.Generated {
			t.Fatal("expected remaining tags to be aborted after a failure")
		}
	}

	refs, err := store.FullyGeneratedOrders(context.Background(), orders.TagQuery{Product: "ornament"})
	if err != nil {
		t.Fatalf("FullyGeneratedOrders failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatal("expected failed order to stay eligible for retry")
	}
}

func TestRunManualOrdersConsumeLimitFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	seedOrder(t, store, "3001", []string{"A1"}, false, true)
	seedOrder(t, store, "3002", []string{"B1"}, false, true)
	seedOrder(t, store, "3003", []string{"C1"}, true, false)

	tagger := newStubTagger()
	stage := newTestStage(store, tagger)

	summary, err := stage.Run(context.Background(), Options{Product: "ornament", Limit: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Manual != 2 || summary.Generated != 0 {
		t.Fatalf("expected manual orders to drain the budget: %#v", summary)
	}
}

func TestRunPausesWhenQuotaLow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	seedOrder(t, store, "4001", []string{"A1"}, false, true)

	tagger := newStubTagger()
	tagger.limits[taggedCall{orderID: "oid-4001", tagID: testTags.Manual}] = shipstation.RateLimit{Remaining: 10, Reset: 7}

	stage := NewStage(store, tagger, testTags, 15, logging.NewNop())
	var slept time.Duration
	stage.sleep = func(d time.Duration) { slept = d }

	if _, err := stage.Run(context.Background(), Options{Product: "ornament"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if slept != 8*time.Second {
		t.Fatalf("expected reset+1 pause, slept %s", slept)
	}
}

func TestRunDryRunMakesNoCallsAndRollsBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	seedOrder(t, store, "5001", []string{"A1"}, true, false)

	tagger := newStubTagger()
	stage := newTestStage(store, tagger)

	summary, err := stage.Run(context.Background(), Options{Product: "ornament", DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if len(tagger.calls) != 0 {
		t.Fatalf("expected no API calls in dry run, got %#v", tagger.calls)
	}

	refs, err := store.FullyGeneratedOrders(context.Background(), orders.TagQuery{Product: "ornament"})
	if err != nil {
		t.Fatalf("FullyGeneratedOrders failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatal("expected dry run to leave orders untagged")
	}
}
