package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pos"
	"github.com/noah-isme/backend-pos/internal/resilience"
)

// ErrNotFound indicates the requested resource does not exist upstream.
var ErrNotFound = errors.New("gateway: not found")

// Client talks to the upstream POS gateway that serves catalog, configuration
// and workspace data and persists order documents.
type Client struct {
	baseURL string
	http    resilience.HTTPClient
	logger  zerolog.Logger
}

// Config groups Client dependencies.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	Breaker     *resilience.Breaker
	Logger      zerolog.Logger
}

// NewClient constructs a gateway client with an instrumented transport and
// circuit-breaker protection.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway: base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	return &Client{
		baseURL: base,
		http: resilience.HTTPClient{
			Client: &http.Client{
				Timeout:   timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     cfg.Breaker,
			MaxAttempts: attempts,
			BaseBackoff: 200 * time.Millisecond,
			Jitter:      0.2,
		},
		logger: cfg.Logger.With().Str("component", "gateway").Logger(),
	}, nil
}

// ProductsByType lists catalog products of the given type.
func (c *Client) ProductsByType(ctx context.Context, productType pos.ProductType) ([]pos.Product, error) {
	var products []pos.Product
	query := url.Values{"type": []string{string(productType)}}
	err := c.get(ctx, "products", "/products", query, &products)
	return products, err
}

// Product fetches one catalog product by OID.
func (c *Client) Product(ctx context.Context, oid string) (pos.Product, error) {
	var product pos.Product
	err := c.get(ctx, "product", "/products/"+url.PathEscape(oid), nil, &product)
	return product, err
}

// SystemConfig fetches a system configuration attribute map by key.
func (c *Client) SystemConfig(ctx context.Context, key string) (map[string]string, error) {
	var values map[string]string
	err := c.get(ctx, "system_config", "/configs/"+url.PathEscape(key), nil, &values)
	return values, err
}

// Workspace fetches the point-of-sale workspace context.
func (c *Client) Workspace(ctx context.Context, oid string) (pos.Workspace, error) {
	var ws pos.Workspace
	err := c.get(ctx, "workspace", "/workspaces/"+url.PathEscape(oid), nil, &ws)
	return ws, err
}

// CreateOrder submits an order document for persistence and returns the
// stored document including its assigned identifiers.
func (c *Client) CreateOrder(ctx context.Context, order pos.Order) (pos.Order, error) {
	var created pos.Order
	err := c.post(ctx, "create_order", "/documents/orders", order, &created)
	return created, err
}

// Ping probes the gateway health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "ping", "/health", nil, nil)
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	return c.do(ctx, operation, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) error {
	return c.do(ctx, operation, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode %s: %w", operation, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("gateway: build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.record(operation, "error")
		c.logger.Error().Err(err).Str("operation", operation).Msg("gateway request failed")
		return fmt.Errorf("gateway: %s: %w", operation, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.record(operation, "not_found")
		return fmt.Errorf("gateway: %s %s: %w", operation, path, ErrNotFound)
	case resp.StatusCode >= http.StatusMultipleChoices:
		c.record(operation, "error")
		return fmt.Errorf("gateway: %s: unexpected status %s", operation, resp.Status)
	}
	c.record(operation, "ok")
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) record(operation, result string) {
	if obs.GatewayRequestTotal != nil {
		obs.GatewayRequestTotal.WithLabelValues(operation, result).Inc()
	}
}
