// Package orderfeed fetches open order payloads from the order source API.
package orderfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"garland/internal/payload"
	"garland/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client wraps the order source API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// Option customizes the feed client.
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

// NewClient constructs an order feed client.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchOrders retrieves every open order for a product. The response body
// must be a JSON list of order objects; anything else is a validation
// failure, never silently coerced.
func (c *Client) FetchOrders(ctx context.Context, product string) ([]payload.Raw, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ingest", "fetch orders", "feed base URL is required", nil)
	}
	product = strings.TrimSpace(product)
	if product == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "fetch orders", "product is required", nil)
	}

	endpoint, err := url.Parse(c.baseURL + "/get-product-orders")
	if err != nil {
		return nil, fmt.Errorf("orderfeed: build url: %w", err)
	}
	query := endpoint.Query()
	query.Set("product", product)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("orderfeed: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ingest", "fetch orders", fmt.Sprintf("fetch orders for %s", product), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ingest", "fetch orders", "read response body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrTransient, "ingest", "fetch orders",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "fetch orders", "decode response", err)
	}
	list, ok := decoded.([]any)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "ingest", "fetch orders", "feed must return a list of orders", errors.New("unexpected payload shape"))
	}

	orders := make([]payload.Raw, 0, len(list))
	for _, entry := range list {
		orders = append(orders, payload.Decode(entry))
	}
	return orders, nil
}
