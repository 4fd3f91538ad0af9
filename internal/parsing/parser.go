package parsing

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"garland/internal/services"
	"garland/internal/services/openai"
)

var yearToken = regexp.MustCompile(`(20\d{2}|19\d{2})`)

// Completer abstracts the chat completion client.
type Completer interface {
	Complete(ctx context.Context, messages []openai.Message) (string, error)
}

// Result is the normalized model reply for one item.
type Result struct {
	Names             []string
	Year              string
	RequestedProof    bool
	NeedsManualReview bool
	Notes             string
	RawResponse       string
}

// Parser sends personalization requests to the model and normalizes the
// replies.
type Parser struct {
	client Completer
}

// NewParser constructs a Parser on top of a completion client.
func NewParser(client Completer) *Parser {
	return &Parser{client: client}
}

// Parse runs one request through the model.
func (p *Parser) Parse(ctx context.Context, req Request) (Result, error) {
	content, err := p.client.Complete(ctx, buildMessages(req))
	if err != nil {
		return Result{}, err
	}
	return normalizeResponse(content, req.DefaultYear)
}

// normalizeResponse maps the model's JSON object onto a Result. Key
// spellings vary between replies, so boolean and note fields accept the
// variants observed in production. A body that is not a JSON object is a
// hard failure, never defaulted.
func normalizeResponse(content, defaultYear string) (Result, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "parse", "normalize response",
			fmt.Sprintf("model response is not valid JSON: %s", content), err)
	}

	result := Result{
		Names:             parseNames(data["names"]),
		RequestedProof:    truthy(data["requestedProof"]) || truthy(data["requested_proof"]),
		NeedsManualReview: truthy(data["needsManualReview"]) || truthy(data["needs_manual_review"]) || truthy(data["manualReview"]),
		Notes:             firstString(data, "notes", "explanation", "comment"),
		RawResponse:       content,
	}

	if defaultYear = strings.TrimSpace(defaultYear); defaultYear == "" {
		defaultYear = "2025"
	}
	result.Year = normalizeYearValue(data["year"], defaultYear)
	return result, nil
}

// parseNames accepts a JSON array or a comma-separated string and returns
// the trimmed non-empty entries in order. A missing value is an empty list,
// which is valid: some orders genuinely carry no names.
func parseNames(value any) []string {
	switch v := value.(type) {
	case []any:
		return cleanNames(v)
	case string:
		var parsed []any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			return cleanNames(parsed)
		}
		names := make([]string, 0, 4)
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
		return names
	}
	return []string{}
}

func cleanNames(values []any) []string {
	names := make([]string, 0, len(values))
	for _, value := range values {
		var text string
		switch v := value.(type) {
		case string:
			text = strings.TrimSpace(v)
		case float64:
			text = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if text != "" {
			names = append(names, text)
		}
	}
	return names
}

func normalizeYearValue(value any, fallback string) string {
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case float64:
		text = strconv.FormatInt(int64(v), 10)
	}
	if match := yearToken.FindString(text); match != "" {
		return match
	}
	return fallback
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(v))
		return trimmed == "true" || trimmed == "yes" || trimmed == "1"
	}
	return false
}

func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
