package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/session"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httpclient"
)

const wishlistServiceName = "wishlist-service"

type wishlistEnvelope struct {
	Data *struct {
		UserID string                `json:"user_id"`
		Items  []domain.WishlistItem `json:"items"`
	} `json:"data"`
}

// HTTPWishlistClient implements WishlistService against the storefront
// backend's REST API.
type HTTPWishlistClient struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	sess    *session.Signal
}

// NewHTTPWishlistClient creates a wishlist service client rooted at baseURL.
func NewHTTPWishlistClient(baseURL string, client *httpclient.CircuitBreakerClient, sess *session.Signal) *HTTPWishlistClient {
	return &HTTPWishlistClient{
		baseURL: baseURL,
		http:    client,
		sess:    sess,
	}
}

// Get retrieves the server-side wishlist.
func (c *HTTPWishlistClient) Get(ctx context.Context) ([]domain.WishlistItem, error) {
	var env wishlistEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/wishlist", nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.Items == nil {
		return []domain.WishlistItem{}, nil
	}
	return env.Data.Items, nil
}

// AddItem adds an entry server-side. Adding an already-present product is a
// successful no-op on the backend.
func (c *HTTPWishlistClient) AddItem(ctx context.Context, item domain.WishlistItem) error {
	body := map[string]any{
		"product_id": item.ProductID,
		"name":       item.Name,
		"price":      item.Price,
		"image_url":  item.ImageURL,
	}
	return c.do(ctx, http.MethodPost, "/api/v1/wishlist/items", body, nil)
}

// RemoveItem removes an entry server-side.
func (c *HTTPWishlistClient) RemoveItem(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/wishlist/items/"+productID, nil, nil)
}

// Clear deletes the server-side wishlist record.
func (c *HTTPWishlistClient) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/wishlist", nil, nil)
}

// MoveToCart transfers an entry into the cart server-side as a single
// logical unit: the backend adds to the cart first and removes the wishlist
// entry only if that succeeded.
func (c *HTTPWishlistClient) MoveToCart(ctx context.Context, productID string, quantity int) error {
	body := map[string]any{"quantity": quantity}
	return c.do(ctx, http.MethodPost, "/api/v1/wishlist/items/"+productID+"/move-to-cart", body, nil)
}

func (c *HTTPWishlistClient) do(ctx context.Context, method, path string, body any, out any) error {
	req, err := newJSONRequest(ctx, method, c.baseURL+path, body, c.sess.Current().UserID)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Unavailable("wishlist service unreachable", err)
	}

	if resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, wishlistServiceName)
	}

	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", wishlistServiceName, err)
	}
	return nil
}
