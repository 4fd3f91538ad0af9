package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Batch groups a stage's row updates into one transaction. Each pipeline
// stage performs exactly one read query and commits all of its writes
// through a single Batch; dry-run callers roll back instead of committing,
// which makes dry-run a true no-op against persisted state.
type Batch struct {
	tx *sql.Tx
}

// BeginBatch starts a write transaction for a stage run.
func (s *Store) BeginBatch(ctx context.Context) (*Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch tx: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// Commit applies all batched updates.
func (b *Batch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Rollback discards all batched updates. Safe to call after Commit.
func (b *Batch) Rollback() error {
	err := b.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// SaveParseResult records the personalization parsing outcome for a row.
// Names are serialized as a JSON array; only the parsing stage writes them.
func (b *Batch) SaveParseResult(ctx context.Context, id int64, names []string, year string, requestedProof, needsManualReview bool) error {
	if names == nil {
		names = []string{}
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshal names: %w", err)
	}
	_, err = b.tx.ExecContext(
		ctx,
		`UPDATE order_items
         SET names = ?, year = ?, requested_proof = ?, needs_manual_review = ?, updated_at = ?
         WHERE id = ?`,
		string(encoded),
		year,
		boolToInt(requestedProof),
		boolToInt(needsManualReview),
		timestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("save parse result: %w", err)
	}
	return nil
}

// SaveGenerationOutcome records a generation attempt for a row. Success sets
// is_generated with the artifact filename and clears the error; failure
// clears both generation markers and records the error text.
func (b *Batch) SaveGenerationOutcome(ctx context.Context, id int64, filename string, success bool, errText string) error {
	var (
		storedError    any
		storedFilename any
	)
	if success {
		storedFilename = filename
	} else {
		if errText == "" {
			errText = "generation failed"
		}
		storedError = errText
	}
	_, err := b.tx.ExecContext(
		ctx,
		`UPDATE order_items
         SET is_generated = ?, generation_error = ?, output_filename = ?, updated_at = ?
         WHERE id = ?`,
		boolToInt(success),
		storedError,
		storedFilename,
		timestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("save generation outcome: %w", err)
	}
	return nil
}

// MarkTagged sets tags_applied for every item of an order. The flag is
// monotonic: nothing in the pipeline clears it.
func (b *Batch) MarkTagged(ctx context.Context, orderID string) error {
	_, err := b.tx.ExecContext(
		ctx,
		`UPDATE order_items SET tags_applied = 1, updated_at = ? WHERE order_id = ?`,
		timestamp(),
		orderID,
	)
	if err != nil {
		return fmt.Errorf("mark tagged: %w", err)
	}
	return nil
}
