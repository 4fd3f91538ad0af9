// Package orders manages order item persistence backed by SQLite.
//
// One table, keyed by (order_number, item_id), is the sole coordination
// medium between pipeline stages: ingestion upserts rows, parsing fills the
// personalization result columns, generation records artifact outcomes, and
// tagging marks completed orders. Rows are never deleted by a stage; the
// table is an upsert log of current truth. Schema evolution is additive
// only: missing columns are backfilled with defaults on open.
package orders
