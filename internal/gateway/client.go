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
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ecomdash/backoffice/internal/catalog"
	"github.com/ecomdash/backoffice/internal/config"
	"github.com/ecomdash/backoffice/internal/logger"
	"github.com/ecomdash/backoffice/internal/query"
)

var _ ProductAPI = (*Client)(nil)

// Client talks to the remote commerce API. Reads request up to fetchLimit
// rows in one go so search, sort and pagination can happen client-side; the
// remote's own row order is preserved and superseded later by the refiner.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	validate   *validator.Validate
	fetchLimit int
}

// NewClient creates a remote API client from configuration. tokens may be nil
// when requests should rely solely on per-request tokens from the context.
func NewClient(cfg config.RemoteConfig, tokens TokenSource) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote base URL is required")
	}
	if cfg.FetchLimit < 1 {
		return nil, fmt.Errorf("fetch limit must be positive, got %d", cfg.FetchLimit)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		tokens:     tokens,
		validate:   validator.New(),
		fetchLimit: cfg.FetchLimit,
	}, nil
}

// ListProducts fetches the collection for the server-relevant filter tuple.
// On failure it returns a FetchError (or UnauthorizedError) and the caller
// must not populate the cache.
func (c *Client) ListProducts(ctx context.Context, f query.Filters) (catalog.ResultSet, error) {
	f = f.Normalize()

	params := url.Values{}
	if f.Category != query.CategoryAll {
		params.Set("category", f.Category)
	}
	switch f.Status {
	case query.StatusActive:
		params.Set("active", "true")
	case query.StatusInactive:
		params.Set("active", "false")
	}
	params.Set("sort_by", string(f.Sort.Field))
	params.Set("sort_order", string(f.Sort.Dir))
	params.Set("per_page", strconv.Itoa(c.fetchLimit))

	req, err := c.newRequest(ctx, http.MethodGet, "/products?"+params.Encode(), nil)
	if err != nil {
		return catalog.ResultSet{}, &FetchError{Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return catalog.ResultSet{}, &FetchError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return catalog.ResultSet{}, &UnauthorizedError{Message: readMessage(resp.Body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return catalog.ResultSet{}, &FetchError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	var envelope catalog.ListEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return catalog.ResultSet{}, &FetchError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}

	// Fail fast on shape mismatches instead of trusting loosely typed JSON.
	if err := c.validate.Struct(&envelope); err != nil {
		return catalog.ResultSet{}, &FetchError{Status: resp.StatusCode, Message: fmt.Sprintf("unexpected response shape: %v", err)}
	}

	set := catalog.ResultSet{Products: envelope.Data, Meta: envelope.Meta}
	set.ApplyDefaults()

	logger.WithComponent("gateway").Debugf("fetched %d products for %s", len(set.Products), f.Key())
	return set, nil
}

// CreateProduct issues POST /products.
func (c *Client) CreateProduct(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	return c.mutateProduct(ctx, http.MethodPost, "/products", p)
}

// UpdateProduct issues PUT /products/{id}.
func (c *Client) UpdateProduct(ctx context.Context, id string, p catalog.Product) (*catalog.Product, error) {
	if id == "" {
		return nil, &MutationError{Message: "product id is required"}
	}
	return c.mutateProduct(ctx, http.MethodPut, "/products/"+url.PathEscape(id), p)
}

// DeleteProduct issues DELETE /products/{id}.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return &MutationError{Message: "product id is required"}
	}
	req, err := c.newRequest(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil)
	if err != nil {
		return &MutationError{Message: err.Error()}
	}
	_, err = c.doMutation(req)
	return err
}

// BulkProducts issues a single POST /products/bulk carrying the identifier
// set; one request per logical operation, never one per product.
func (c *Client) BulkProducts(ctx context.Context, bulk catalog.BulkRequest) error {
	if err := c.validate.Struct(bulk); err != nil {
		return &MutationError{Message: fmt.Sprintf("invalid bulk request: %v", err)}
	}
	if bulk.Operation == catalog.BulkDiscount && bulk.DiscountPercentage == nil {
		return &MutationError{Message: "discount operation requires discount_percentage"}
	}

	body, err := json.Marshal(bulk)
	if err != nil {
		return &MutationError{Message: err.Error()}
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/products/bulk", bytes.NewReader(body))
	if err != nil {
		return &MutationError{Message: err.Error()}
	}
	_, err = c.doMutation(req)
	return err
}

func (c *Client) mutateProduct(ctx context.Context, method, path string, p catalog.Product) (*catalog.Product, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, &MutationError{Message: err.Error()}
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return nil, &MutationError{Message: err.Error()}
	}
	envelope, err := c.doMutation(req)
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// doMutation executes a write request and maps the response onto the error
// taxonomy: 401 unauthorized, 422 validation with field errors, any other
// non-2xx a MutationError.
func (c *Client) doMutation(req *http.Request) (*catalog.MessageEnvelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &MutationError{Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &UnauthorizedError{Message: readMessage(resp.Body)}
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var failure catalog.ErrorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
			return nil, &ValidationError{Message: "validation failed"}
		}
		return nil, &ValidationError{Message: failure.Message, FieldErrors: failure.Errors}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &MutationError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	var envelope catalog.MessageEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil && err != io.EOF {
		return nil, &MutationError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return &envelope, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// bearerToken prefers a per-request token forwarded from the caller, falling
// back to the configured source.
func (c *Client) bearerToken(ctx context.Context) string {
	if token, ok := TokenFromContext(ctx); ok {
		return token
	}
	if c.tokens != nil {
		return c.tokens.Token()
	}
	return ""
}

// readMessage extracts the server-supplied message from an error body,
// falling back to the raw text when it is not the usual envelope.
func readMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope catalog.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return strings.TrimSpace(string(raw))
}
