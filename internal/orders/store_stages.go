package orders

import (
	"context"
	"fmt"
	"strings"
)

// ParseQuery selects rows for the personalization parsing stage.
type ParseQuery struct {
	Product        string
	Limit          int
	IDs            []int64
	Force          bool
	IncludeShipped bool
}

// PendingParse returns rows awaiting personalization parsing in ascending id
// order. Explicit IDs override automatic selection; otherwise rows that
// already have names are skipped unless Force is set.
func (s *Store) PendingParse(ctx context.Context, q ParseQuery) ([]*Item, error) {
	clauses := []string{"product = ?"}
	args := []any{q.Product}

	if len(q.IDs) > 0 {
		clauses = append(clauses, "id IN ("+makePlaceholders(len(q.IDs))+")")
		for _, id := range q.IDs {
			args = append(args, id)
		}
	} else if !q.Force {
		clauses = append(clauses, "(names IS NULL OR TRIM(names) = '')")
	}
	if !q.IncludeShipped {
		clauses = append(clauses, "shipped = 0")
	}

	query := `SELECT ` + itemColumns + ` FROM order_items WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id ASC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending parse: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// GenerateQuery selects rows for the artifact generation stage.
type GenerateQuery struct {
	Product string
	Limit   int
	IDs     []int64
	Force   bool
}

// Generatable returns rows eligible for generation in ascending id order:
// parsed names present, no proof request, no manual review flag, and (unless
// Force) neither an existing file nor a prior successful generation.
func (s *Store) Generatable(ctx context.Context, q GenerateQuery) ([]*Item, error) {
	clauses := []string{"product = ?"}
	args := []any{q.Product}

	if len(q.IDs) > 0 {
		clauses = append(clauses, "id IN ("+makePlaceholders(len(q.IDs))+")")
		for _, id := range q.IDs {
			args = append(args, id)
		}
	} else {
		clauses = append(clauses,
			"names IS NOT NULL AND TRIM(names) != ''",
			"requested_proof = 0",
			"needs_manual_review = 0",
		)
		if !q.Force {
			clauses = append(clauses, "file_found = 0", "is_generated = 0")
		}
	}

	query := `SELECT ` + itemColumns + ` FROM order_items WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id ASC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generatable: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// TagQuery selects orders for the tagging stage.
type TagQuery struct {
	Product  string
	OrderIDs []string
	Limit    int
}

// ManualReviewOrders returns untagged orders containing at least one item
// that requested a proof, was flagged for manual review, or failed
// generation. Grouped by order id, ascending.
func (s *Store) ManualReviewOrders(ctx context.Context, q TagQuery) ([]OrderRef, error) {
	clauses := []string{
		"order_id IS NOT NULL",
		"TRIM(order_id) != ''",
		"tags_applied = 0",
		"product = ?",
		"(requested_proof != 0 OR needs_manual_review != 0 OR (generation_error IS NOT NULL AND TRIM(generation_error) != ''))",
	}
	args := []any{q.Product}
	if len(q.OrderIDs) > 0 {
		clauses = append(clauses, "order_id IN ("+makePlaceholders(len(q.OrderIDs))+")")
		for _, id := range q.OrderIDs {
			args = append(args, id)
		}
	}

	query := `SELECT order_id, MIN(order_number) AS order_number
        FROM order_items
        WHERE ` + strings.Join(clauses, " AND ") + `
        GROUP BY order_id
        ORDER BY order_id ASC`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	return s.queryOrderRefs(ctx, query, args)
}

// FullyGeneratedOrders returns untagged orders where every item generated
// successfully and none is flagged for proof or manual review. Mutually
// exclusive with ManualReviewOrders by construction.
func (s *Store) FullyGeneratedOrders(ctx context.Context, q TagQuery) ([]OrderRef, error) {
	clauses := []string{
		"order_id IS NOT NULL",
		"TRIM(order_id) != ''",
		"tags_applied = 0",
		"product = ?",
	}
	args := []any{q.Product}
	if len(q.OrderIDs) > 0 {
		clauses = append(clauses, "order_id IN ("+makePlaceholders(len(q.OrderIDs))+")")
		for _, id := range q.OrderIDs {
			args = append(args, id)
		}
	}

	query := `SELECT
            order_id,
            MIN(order_number) AS order_number,
            SUM(CASE WHEN is_generated = 1 AND (generation_error IS NULL OR TRIM(generation_error) = '') THEN 1 ELSE 0 END) AS success_count,
            COUNT(*) AS total_count,
            SUM(CASE WHEN requested_proof != 0 OR needs_manual_review != 0 THEN 1 ELSE 0 END) AS manual_flags
        FROM order_items
        WHERE ` + strings.Join(clauses, " AND ") + `
        GROUP BY order_id
        HAVING success_count = total_count AND manual_flags = 0
        ORDER BY order_id ASC`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generated orders: %w", err)
	}
	defer rows.Close()

	var refs []OrderRef
	for rows.Next() {
		var ref OrderRef
		var successCount, totalCount, manualFlags int
		if err := rows.Scan(&ref.OrderID, &ref.OrderNumber, &successCount, &totalCount, &manualFlags); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) queryOrderRefs(ctx context.Context, query string, args []any) ([]OrderRef, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query order refs: %w", err)
	}
	defer rows.Close()

	var refs []OrderRef
	for rows.Next() {
		var ref OrderRef
		if err := rows.Scan(&ref.OrderID, &ref.OrderNumber); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
