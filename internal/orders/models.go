package orders

import (
	"time"
)

// Key uniquely identifies an order item.
type Key struct {
	OrderNumber string
	ItemID      string
}

// KeySet is the set of keys observed during an ingestion run. Absence from
// the set is the shipping signal consumed by reconciliation.
type KeySet map[Key]struct{}

// Add records a key in the set.
func (s KeySet) Add(orderNumber, itemID string) {
	s[Key{OrderNumber: orderNumber, ItemID: itemID}] = struct{}{}
}

// Contains reports whether the key is in the set.
func (s KeySet) Contains(key Key) bool {
	_, ok := s[key]
	return ok
}

// Union merges another set into this one.
func (s KeySet) Union(other KeySet) {
	for key := range other {
		s[key] = struct{}{}
	}
}

// Item represents an order item row persisted in SQLite.
type Item struct {
	ID                int64
	OrderNumber       string
	ItemID            string
	OrderID           string
	RawJSON           string
	Shipped           bool
	FileFound         bool
	Product           string
	Quantity          int
	Options           string
	CustomField1      string
	BuyerNote         string
	Year              string
	IsGenerated       bool
	GenerationError   string
	OutputFilename    string
	RequestedProof    bool
	NeedsManualReview bool
	TagsApplied       bool
	Names             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Key returns the item's unique key.
func (i *Item) Key() Key {
	return Key{OrderNumber: i.OrderNumber, ItemID: i.ItemID}
}

// UpsertFields carries the payload-derived columns written on every
// ingestion pass for one item.
type UpsertFields struct {
	OrderNumber  string
	ItemID       string
	OrderID      string
	RawJSON      string
	Product      string
	Quantity     int
	Options      string
	CustomField1 string
	BuyerNote    string
	Year         string
	FileFound    bool
}

// OrderRef identifies an order selected for tagging.
type OrderRef struct {
	OrderID     string
	OrderNumber string
}

// ProductStats aggregates per-product pipeline progress for status output.
type ProductStats struct {
	Product   string
	Total     int
	Shipped   int
	Parsed    int
	Generated int
	Manual    int
	Tagged    int
}
