package parsing

import (
	"encoding/json"
	"strings"

	"garland/internal/orders"
	"garland/internal/payload"
	"garland/internal/services"
)

// personalization option names are matched by keyword because the feed is
// not consistent about how the field is labelled.
var personalizationKeywords = []string{"personalization", "personalisation", "list of names"}

// Request carries everything the model needs for one item.
type Request struct {
	OrderNumber         string
	ItemID              string
	PersonalizationText string
	BuyerNote           string
	Quantity            int
	Product             string
	DefaultYear         string
}

// BuildRequest assembles the model request from a stored item. The raw
// payload is authoritative for personalization text; a row whose raw_json
// no longer decodes is a hard per-record error.
func BuildRequest(item *orders.Item) (Request, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(item.RawJSON), &raw); err != nil {
		return Request{}, services.Wrap(services.ErrValidation, "parse", "build request", "raw_json column does not contain valid JSON", err)
	}
	itemPayload := payload.Raw(raw)

	buyerNote := strings.TrimSpace(item.BuyerNote)
	if buyerNote == "" {
		buyerNote = fallbackBuyerNote(itemPayload)
	}

	defaultYear := strings.TrimSpace(item.Year)
	if defaultYear == "" {
		defaultYear = payload.DefaultYear
	}

	return Request{
		OrderNumber:         item.OrderNumber,
		ItemID:              item.ItemID,
		PersonalizationText: extractPersonalization(itemPayload),
		BuyerNote:           buyerNote,
		Quantity:            item.Quantity,
		Product:             item.Product,
		DefaultYear:         defaultYear,
	}, nil
}

func extractPersonalization(item payload.Raw) string {
	if value := findPersonalizationOption(item); value != "" {
		return value
	}

	nested := item.Nested("jsonData", "json_data")
	if value := findPersonalizationOption(nested); value != "" {
		return value
	}
	if value := nested.String("personalization", "names", "customization"); value != "" {
		return value
	}

	// Older payload shapes carried the text flat on the item.
	return item.String("personalization", "customization")
}

func findPersonalizationOption(source payload.Raw) string {
	for _, optionsKey := range []string{"options", "extendedOptions"} {
		for _, entry := range optionList(source, optionsKey) {
			option := payload.Decode(entry)
			value := option.String("value")
			if value == "" {
				continue
			}
			name := strings.ToLower(option.String("name"))
			for _, keyword := range personalizationKeywords {
				if strings.Contains(name, keyword) {
					return value
				}
			}
		}
	}
	return ""
}

// optionList tolerates option lists delivered as JSON-encoded strings.
func optionList(source payload.Raw, key string) []any {
	if list := source.List(key); list != nil {
		return list
	}
	if encoded, ok := source[key].(string); ok {
		var parsed []any
		if err := json.Unmarshal([]byte(encoded), &parsed); err == nil {
			return parsed
		}
	}
	return nil
}

func fallbackBuyerNote(item payload.Raw) string {
	if value := item.String("buyerNotes", "customerNotes", "note_from_buyer", "noteFromBuyer"); value != "" {
		return value
	}
	return item.Nested("jsonData", "json_data").String("note_from_buyer")
}
