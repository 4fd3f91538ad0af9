package orders

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"garland/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// addColumns lists additive migrations applied to databases created before a
// column existed. Columns are never dropped or renamed.
var addColumns = map[string]string{
	"order_id":            "ALTER TABLE order_items ADD COLUMN order_id TEXT",
	"year":                "ALTER TABLE order_items ADD COLUMN year TEXT DEFAULT '2025'",
	"is_generated":        "ALTER TABLE order_items ADD COLUMN is_generated INTEGER NOT NULL DEFAULT 0",
	"generation_error":    "ALTER TABLE order_items ADD COLUMN generation_error TEXT",
	"output_filename":     "ALTER TABLE order_items ADD COLUMN output_filename TEXT",
	"requested_proof":     "ALTER TABLE order_items ADD COLUMN requested_proof INTEGER NOT NULL DEFAULT 0",
	"needs_manual_review": "ALTER TABLE order_items ADD COLUMN needs_manual_review INTEGER NOT NULL DEFAULT 0",
	"tags_applied":        "ALTER TABLE order_items ADD COLUMN tags_applied INTEGER NOT NULL DEFAULT 0",
	"names":               "ALTER TABLE order_items ADD COLUMN names TEXT",
}

// Store manages order item persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the order database and ensures the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.DBPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return s.ensureColumns(ctx)
}

func (s *Store) ensureColumns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(order_items)")
	if err != nil {
		return fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}

	for column, statement := range addColumns {
		if _, ok := existing[column]; ok {
			continue
		}
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("add column %s: %w", column, err)
		}
	}
	return nil
}

// Upsert inserts an order item or, when the (order_number, item_id) pair
// already exists, overwrites its payload-derived fields in place. The year
// column is kept once set because the parsing stage may have refined it.
// Both paths force shipped=0: an item present in the active feed is by
// definition not shipped. Returns true when a new row was inserted.
func (s *Store) Upsert(ctx context.Context, fields UpsertFields) (bool, error) {
	if fields.OrderNumber == "" || fields.ItemID == "" {
		return false, errors.New("order number and item id are required")
	}
	now := timestamp()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO order_items (
            order_number, item_id, order_id, raw_json, shipped, file_found,
            product, quantity, options, custom_field1, buyer_note, year,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(order_number, item_id) DO NOTHING`,
		fields.OrderNumber,
		fields.ItemID,
		nullableString(fields.OrderID),
		fields.RawJSON,
		boolToInt(fields.FileFound),
		nullableString(fields.Product),
		fields.Quantity,
		nullableString(fields.Options),
		nullableString(fields.CustomField1),
		nullableString(fields.BuyerNote),
		nullableString(fields.Year),
		now,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("insert order item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE order_items
         SET order_id = COALESCE(?, order_id), raw_json = ?, shipped = 0,
             file_found = ?, product = ?, quantity = ?, options = ?,
             custom_field1 = ?, buyer_note = ?, year = COALESCE(year, ?), updated_at = ?
         WHERE order_number = ? AND item_id = ?`,
		nullableString(fields.OrderID),
		fields.RawJSON,
		boolToInt(fields.FileFound),
		nullableString(fields.Product),
		fields.Quantity,
		nullableString(fields.Options),
		nullableString(fields.CustomField1),
		nullableString(fields.BuyerNote),
		nullableString(fields.Year),
		now,
		fields.OrderNumber,
		fields.ItemID,
	)
	if err != nil {
		return false, fmt.Errorf("update order item: %w", err)
	}
	return false, nil
}

// GetByKey fetches an item by its unique key. Returns nil when absent.
func (s *Store) GetByKey(ctx context.Context, orderNumber, itemID string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_number = ? AND item_id = ?`,
		orderNumber,
		itemID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetByID fetches an item by its surrogate row id. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM order_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListByProduct returns all items for a product ordered by row id.
func (s *Store) ListByProduct(ctx context.Context, product string) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE product = ? ORDER BY id`,
		product,
	)
	if err != nil {
		return nil, fmt.Errorf("list by product: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// Stats returns per-product pipeline progress counts ordered by product.
func (s *Store) Stats(ctx context.Context) ([]ProductStats, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT COALESCE(product, ''),
                COUNT(1),
                SUM(shipped),
                SUM(CASE WHEN names IS NOT NULL AND TRIM(names) != '' THEN 1 ELSE 0 END),
                SUM(is_generated),
                SUM(CASE WHEN requested_proof != 0 OR needs_manual_review != 0 THEN 1 ELSE 0 END),
                SUM(tags_applied)
         FROM order_items
         GROUP BY product
         ORDER BY product`,
	)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	var stats []ProductStats
	for rows.Next() {
		var st ProductStats
		if err := rows.Scan(&st.Product, &st.Total, &st.Shipped, &st.Parsed, &st.Generated, &st.Manual, &st.Tagged); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

const itemColumns = "id, order_number, item_id, order_id, raw_json, shipped, file_found, product, quantity, options, custom_field1, buyer_note, year, is_generated, generation_error, output_filename, requested_proof, needs_manual_review, tags_applied, names, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id             int64
		orderNumber    string
		itemID         string
		orderID        sql.NullString
		rawJSON        string
		shipped        sql.NullInt64
		fileFound      sql.NullInt64
		product        sql.NullString
		quantity       sql.NullInt64
		options        sql.NullString
		customField1   sql.NullString
		buyerNote      sql.NullString
		year           sql.NullString
		isGenerated    sql.NullInt64
		generationErr  sql.NullString
		outputFilename sql.NullString
		requestedProof sql.NullInt64
		needsManual    sql.NullInt64
		tagsApplied    sql.NullInt64
		names          sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&orderNumber,
		&itemID,
		&orderID,
		&rawJSON,
		&shipped,
		&fileFound,
		&product,
		&quantity,
		&options,
		&customField1,
		&buyerNote,
		&year,
		&isGenerated,
		&generationErr,
		&outputFilename,
		&requestedProof,
		&needsManual,
		&tagsApplied,
		&names,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:                id,
		OrderNumber:       orderNumber,
		ItemID:            itemID,
		OrderID:           orderID.String,
		RawJSON:           rawJSON,
		Shipped:           shipped.Int64 != 0,
		FileFound:         fileFound.Int64 != 0,
		Product:           product.String,
		Quantity:          int(quantity.Int64),
		Options:           options.String,
		CustomField1:      customField1.String,
		BuyerNote:         buyerNote.String,
		Year:              year.String,
		IsGenerated:       isGenerated.Int64 != 0,
		GenerationError:   generationErr.String,
		OutputFilename:    outputFilename.String,
		RequestedProof:    requestedProof.Int64 != 0,
		NeedsManualReview: needsManual.Int64 != 0,
		TagsApplied:       tagsApplied.Int64 != 0,
		Names:             names.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
