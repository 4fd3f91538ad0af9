package payload

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Raw is a decoded order or order item payload.
type Raw map[string]any

// Decode coerces a payload value into a Raw map. Nested sub-payloads may
// arrive as a map or as a JSON-encoded string; anything else decodes to an
// empty map.
func Decode(value any) Raw {
	switch v := value.(type) {
	case Raw:
		return v
	case map[string]any:
		return Raw(v)
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			return Raw(parsed)
		}
	}
	return Raw{}
}

// Encode serializes the payload back to compact JSON for storage.
func (r Raw) Encode() (string, error) {
	encoded, err := json.Marshal(map[string]any(r))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// String returns the first non-blank string value among the given keys,
// trimmed. Numeric values are formatted; anything else is skipped.
func (r Raw) String(keys ...string) string {
	for _, key := range keys {
		if s := asString(r[key]); s != "" {
			return s
		}
	}
	return ""
}

// Bool reports whether the first present value among the given keys is
// truthy. Absent keys, zero numbers, empty and "false" strings are false.
func (r Raw) Bool(keys ...string) bool {
	for _, key := range keys {
		value, ok := r[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case bool:
			return v
		case float64:
			return v != 0
		case int:
			return v != 0
		case string:
			trimmed := strings.TrimSpace(strings.ToLower(v))
			return trimmed != "" && trimmed != "false" && trimmed != "0"
		default:
			return true
		}
	}
	return false
}

// Nested decodes the first present sub-payload among the given keys.
func (r Raw) Nested(keys ...string) Raw {
	for _, key := range keys {
		value, ok := r[key]
		if !ok || value == nil {
			continue
		}
		if nested := Decode(value); len(nested) > 0 {
			return nested
		}
	}
	return Raw{}
}

// List returns the first present list value among the given keys.
func (r Raw) List(keys ...string) []any {
	for _, key := range keys {
		if list, ok := r[key].([]any); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	}
	return ""
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}
