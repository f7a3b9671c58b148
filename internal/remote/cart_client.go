package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/session"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httpclient"
)

const cartServiceName = "cart-service"

// cartRecord mirrors the cart payload returned by the storefront backend.
type cartRecord struct {
	ID     string            `json:"id"`
	UserID string            `json:"user_id"`
	Items  []domain.CartItem `json:"items"`
}

type cartEnvelope struct {
	Data *cartRecord `json:"data"`
}

type syncEnvelope struct {
	Data *struct {
		Cart            *cartRecord `json:"cart"`
		ValidProducts   []string    `json:"valid_products"`
		InvalidProducts []string    `json:"invalid_products"`
	} `json:"data"`
}

// HTTPCartClient implements CartService against the storefront backend's
// REST API, authenticating via the session's user identity.
type HTTPCartClient struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	sess    *session.Signal
}

// NewHTTPCartClient creates a cart service client rooted at baseURL.
func NewHTTPCartClient(baseURL string, client *httpclient.CircuitBreakerClient, sess *session.Signal) *HTTPCartClient {
	return &HTTPCartClient{
		baseURL: baseURL,
		http:    client,
		sess:    sess,
	}
}

// Get retrieves the authoritative cart item list.
func (c *HTTPCartClient) Get(ctx context.Context) ([]domain.CartItem, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/cart", nil, &env); err != nil {
		return nil, err
	}
	return recordItems(env.Data), nil
}

// AddItem adds (or folds) a line server-side and returns the resulting cart.
func (c *HTTPCartClient) AddItem(ctx context.Context, item domain.CartItem) ([]domain.CartItem, error) {
	body := map[string]any{
		"product_id": item.ProductID,
		"name":       item.Name,
		"price":      item.Price,
		"quantity":   item.Quantity,
		"image_url":  item.ImageURL,
	}

	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/cart/items", body, &env); err != nil {
		return nil, err
	}
	return recordItems(env.Data), nil
}

// UpdateItem sets a line's quantity server-side and returns the resulting cart.
func (c *HTTPCartClient) UpdateItem(ctx context.Context, productID string, quantity int) ([]domain.CartItem, error) {
	body := map[string]any{"quantity": quantity}

	var env cartEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/v1/cart/items/"+productID, body, &env); err != nil {
		return nil, err
	}
	return recordItems(env.Data), nil
}

// RemoveItem removes a line server-side and returns the resulting cart.
func (c *HTTPCartClient) RemoveItem(ctx context.Context, productID string) ([]domain.CartItem, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodDelete, "/api/v1/cart/items/"+productID, nil, &env); err != nil {
		return nil, err
	}
	return recordItems(env.Data), nil
}

// Clear deletes the server-side cart record.
func (c *HTTPCartClient) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/cart", nil, nil)
}

// Sync merges a guest cart into the server record. The backend resolves each
// line against the live catalog, folds valid lines into the existing cart,
// and reports the names of lines it dropped.
func (c *HTTPCartClient) Sync(ctx context.Context, items []domain.CartItem) (*CartSyncResult, error) {
	if items == nil {
		items = []domain.CartItem{}
	}
	body := map[string]any{"items": items}

	var env syncEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/cart/sync", body, &env); err != nil {
		return nil, err
	}

	res := &CartSyncResult{}
	if env.Data != nil {
		res.Items = recordItems(env.Data.Cart)
		res.ValidProducts = env.Data.ValidProducts
		res.InvalidProducts = env.Data.InvalidProducts
	}
	return res, nil
}

// do issues a request and decodes the response envelope into out (when out is
// non-nil). Transport failures and circuit-breaker rejections surface as
// service-unavailable errors so callers can treat them as retryable.
func (c *HTTPCartClient) do(ctx context.Context, method, path string, body any, out any) error {
	req, err := newJSONRequest(ctx, method, c.baseURL+path, body, c.sess.Current().UserID)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Unavailable("cart service unreachable", err)
	}

	if resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, cartServiceName)
	}

	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", cartServiceName, err)
	}
	return nil
}

func recordItems(rec *cartRecord) []domain.CartItem {
	if rec == nil || rec.Items == nil {
		return []domain.CartItem{}
	}
	return rec.Items
}

// newJSONRequest builds a request carrying the user identity header the
// backend expects from authenticated callers.
func newJSONRequest(ctx context.Context, method, url string, body any, userID string) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req, nil
}
