// Package shipstation wraps the ShipStation order tagging endpoint. The
// API enforces a small per-minute quota; every response carries rate-limit
// headers that callers feed into their pacing.
package shipstation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"garland/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// RateLimit carries the quota headers from one response. Remaining and
// Reset are -1 when the header was absent or unparseable.
type RateLimit struct {
	Remaining int
	Reset     int
}

// Client wraps the tagging API.
type Client struct {
	baseURL    string
	apiKey     string
	partnerKey string
	httpClient HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		if hc, ok := c.httpClient.(*http.Client); ok {
			hc.Timeout = timeout
		}
	}
}

// NewClient constructs a tagging API client.
func NewClient(baseURL, apiKey, partnerKey string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		partnerKey: strings.TrimSpace(partnerKey),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// AddTag applies one tag to one order. The rate limit snapshot is returned
// even on failure so callers can pace retries.
func (c *Client) AddTag(ctx context.Context, orderID string, tagID int) (RateLimit, error) {
	limit := RateLimit{Remaining: -1, Reset: -1}
	if c.apiKey == "" {
		return limit, services.Wrap(services.ErrConfiguration, "tag", "add tag", "api key is required", nil)
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return limit, services.Wrap(services.ErrValidation, "tag", "add tag", "order id is required", nil)
	}

	encoded, err := json.Marshal(map[string]any{
		"orderId": orderID,
		"tagId":   tagID,
	})
	if err != nil {
		return limit, fmt.Errorf("shipstation: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders/addtag", bytes.NewReader(encoded))
	if err != nil {
		return limit, fmt.Errorf("shipstation: request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.partnerKey != "" {
		req.Header.Set("x-partner", c.partnerKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return limit, services.Wrap(services.ErrTransient, "tag", "add tag",
			fmt.Sprintf("apply tag %d to order %s", tagID, orderID), err)
	}
	defer resp.Body.Close()

	limit.Remaining = headerInt(resp.Header, "X-Rate-Limit-Remaining")
	limit.Reset = headerInt(resp.Header, "X-Rate-Limit-Reset")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return limit, services.Wrap(services.ErrTransient, "tag", "add tag", "read response body", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return limit, services.Wrap(services.ErrTransient, "tag", "add tag",
			fmt.Sprintf("http %d applying tag %d to order %s: %s", resp.StatusCode, tagID, orderID, strings.TrimSpace(string(body))), nil)
	}
	return limit, nil
}

func headerInt(header http.Header, key string) int {
	value := strings.TrimSpace(header.Get(key))
	if value == "" {
		return -1
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return parsed
}
