package orders

import (
	"context"
	"fmt"
)

// ReconcileShipped derives shipped flags from the active key set in one
// transaction. Every unshipped row whose key is absent from the active set
// becomes shipped; every shipped row whose key reappears becomes unshipped.
// This is a full-table pass: the active set only contains keys seen in the
// current fetch, so absence is the shipping signal and rows untouched by
// this run must still be examined. Re-running with the same active set is a
// no-op.
func (s *Store) ReconcileShipped(ctx context.Context, active KeySet) (marked, unmarked int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := timestamp()

	collect := func(query string) ([]Key, error) {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var keys []Key
		for rows.Next() {
			var key Key
			if err := rows.Scan(&key.OrderNumber, &key.ItemID); err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		return keys, rows.Err()
	}

	unshipped, err := collect(`SELECT order_number, item_id FROM order_items WHERE shipped = 0`)
	if err != nil {
		return 0, 0, fmt.Errorf("query unshipped: %w", err)
	}
	var toMark []Key
	for _, key := range unshipped {
		if !active.Contains(key) {
			toMark = append(toMark, key)
		}
	}

	shipped, err := collect(`SELECT order_number, item_id FROM order_items WHERE shipped = 1`)
	if err != nil {
		return 0, 0, fmt.Errorf("query shipped: %w", err)
	}
	var toUnmark []Key
	for _, key := range shipped {
		if active.Contains(key) {
			toUnmark = append(toUnmark, key)
		}
	}

	for _, key := range toMark {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE order_items SET shipped = 1, updated_at = ? WHERE order_number = ? AND item_id = ?`,
			now, key.OrderNumber, key.ItemID,
		); err != nil {
			return 0, 0, fmt.Errorf("mark shipped %s/%s: %w", key.OrderNumber, key.ItemID, err)
		}
	}
	for _, key := range toUnmark {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE order_items SET shipped = 0, updated_at = ? WHERE order_number = ? AND item_id = ?`,
			now, key.OrderNumber, key.ItemID,
		); err != nil {
			return 0, 0, fmt.Errorf("unmark shipped %s/%s: %w", key.OrderNumber, key.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit reconcile: %w", err)
	}
	return len(toMark), len(toUnmark), nil
}
