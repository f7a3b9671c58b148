package remote

import (
	"context"

	"github.com/utafrali/StorefrontGo/internal/domain"
)

// CartSyncResult is the outcome of merging a guest cart into the server-side
// record. Items is the resulting canonical cart; InvalidProducts lists the
// display names of guest lines dropped because their product no longer
// resolves in the catalog.
type CartSyncResult struct {
	Items           []domain.CartItem `json:"items"`
	ValidProducts   []string          `json:"valid_products"`
	InvalidProducts []string          `json:"invalid_products"`
}

// CartService is the remote per-user cart record consumed by the cart
// synchronization engine. Every mutating call returns the server's resulting
// authoritative item list; the engine replaces its in-memory state with it
// wholesale and never merges piecemeal.
type CartService interface {
	Get(ctx context.Context) ([]domain.CartItem, error)
	AddItem(ctx context.Context, item domain.CartItem) ([]domain.CartItem, error)
	UpdateItem(ctx context.Context, productID string, quantity int) ([]domain.CartItem, error)
	RemoveItem(ctx context.Context, productID string) ([]domain.CartItem, error)
	Clear(ctx context.Context) error
	Sync(ctx context.Context, items []domain.CartItem) (*CartSyncResult, error)
}

// WishlistService is the remote per-user wishlist record consumed by the
// wishlist synchronization engine.
type WishlistService interface {
	Get(ctx context.Context) ([]domain.WishlistItem, error)
	AddItem(ctx context.Context, item domain.WishlistItem) error
	RemoveItem(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
	MoveToCart(ctx context.Context, productID string, quantity int) error
}
