package payload

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultYear is stored when no payload field carries a usable year.
const DefaultYear = "2025"

// pendingOptionName marks an item whose personalization has not been
// submitted yet. Orders containing such an item are skipped at ingestion.
const pendingOptionName = "CustomizedURL"

var yearPattern = regexp.MustCompile(`(20\d{2}|19\d{2})`)

// Fields holds the normalized columns extracted from one order item.
type Fields struct {
	Product      string
	Quantity     int
	Options      string
	CustomField1 string
	BuyerNote    string
	Year         string
	FileFound    bool
}

// Extract derives the persisted columns for an item. The order payload
// supplies order-level fallbacks for the custom field and buyer note.
func Extract(item, order Raw, defaultProduct string) Fields {
	nested := item.Nested("jsonData", "json_data")
	return Fields{
		Product:      extractProduct(item, nested, defaultProduct),
		Quantity:     extractQuantity(item, nested),
		Options:      extractOptions(item, nested),
		CustomField1: extractCustomField1(order, item, nested),
		BuyerNote:    extractBuyerNote(order, item, nested),
		Year:         ExtractYear(item, nested, DefaultYear),
		FileFound:    item.Bool("file_found", "fileFound"),
	}
}

func extractProduct(item, nested Raw, defaultProduct string) string {
	if product := item.String("product"); product != "" {
		return product
	}
	if product := nested.String("product"); product != "" {
		return product
	}
	return defaultProduct
}

func extractQuantity(item, nested Raw) int {
	value, ok := item["quantity"]
	if !ok || value == nil {
		if v, found := nested["quantity"]; found && v != nil {
			value = v
		} else {
			value = nested["qty"]
		}
	}
	qty, ok := asInt(value)
	if !ok || qty < 0 {
		return 0
	}
	return qty
}

func extractOptions(item, nested Raw) string {
	options, ok := item["options"]
	if !ok || options == nil {
		options = nested["options"]
	}
	if options == nil {
		return "[]"
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func extractCustomField1(order, item, nested Raw) string {
	if value := item.String("customField1", "custom_field1"); value != "" {
		return value
	}
	if value := order.Nested("advancedOptions").String("customField1"); value != "" {
		return value
	}
	return nested.String("customField1", "custom_field1")
}

func extractBuyerNote(order, item, nested Raw) string {
	if value := item.String("buyerNotes", "customerNotes", "note_from_buyer", "noteFromBuyer"); value != "" {
		return value
	}
	if value := nested.String("customerNotes", "note_from_buyer", "noteFromBuyer"); value != "" {
		return value
	}
	return order.String("customerNotes", "giftMessage")
}

// ExtractYear scans the item, its option values, then the nested payload
// for the first token that looks like a four digit year. The fallback is
// returned when nothing matches.
func ExtractYear(item, nested Raw, fallback string) string {
	for _, source := range []Raw{item, nested} {
		if year := normalizeYear(source.String("year", "Year")); year != "" {
			return year
		}
		for _, optionsKey := range []string{"options", "extendedOptions"} {
			for _, entry := range source.List(optionsKey) {
				option := Decode(entry)
				name := strings.ToLower(option.String("name"))
				if !strings.Contains(name, "year") {
					continue
				}
				if year := normalizeYear(option.String("value")); year != "" {
					return year
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return DefaultYear
}

func normalizeYear(value string) string {
	return yearPattern.FindString(value)
}

// HasOnlyPendingPersonalizationOption reports whether the item's option
// list consists of exactly one entry named for the pending customization
// marker. Such items have no personalization text to work with yet.
func HasOnlyPendingPersonalizationOption(item Raw) bool {
	options := item.Nested("jsonData", "json_data").List("options")
	if options == nil {
		options = item.List("extendedOptions")
	}
	if len(options) != 1 {
		return false
	}
	return Decode(options[0]).String("name") == pendingOptionName
}

// ItemID resolves the item identifier used in the store key.
func ItemID(item Raw) string {
	return item.String("orderItemId", "order_item_id", "itemId", "id")
}

// OrderNumber resolves the order number from an order payload.
func OrderNumber(order Raw) string {
	return order.String("orderNumber", "order_number")
}

// OrderID resolves the external order-level identifier, when present.
func OrderID(order Raw) string {
	return order.String("orderId", "order_id")
}

// Items returns the order's item payloads.
func Items(order Raw) []Raw {
	list := order.List("items")
	items := make([]Raw, 0, len(list))
	for _, entry := range list {
		items = append(items, Decode(entry))
	}
	return items
}
