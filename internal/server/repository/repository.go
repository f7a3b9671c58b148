package repository

import (
	"context"

	"github.com/utafrali/StorefrontGo/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a cart by its user ID.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save persists a cart, overwriting any existing cart for the user.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes a cart from the store by the user ID.
	Delete(ctx context.Context, userID string) error
}

// WishlistRepository defines the interface for wishlist persistence operations.
type WishlistRepository interface {
	// Get retrieves a wishlist by its user ID.
	Get(ctx context.Context, userID string) (*domain.Wishlist, error)

	// Save persists a wishlist, overwriting any existing one for the user.
	Save(ctx context.Context, wishlist *domain.Wishlist) error

	// Delete removes a wishlist from the store by the user ID.
	Delete(ctx context.Context, userID string) error
}

// ProductCatalog resolves product IDs against the live catalog. Guest merge
// validation goes through here so that lines for discontinued products never
// enter an account cart.
type ProductCatalog interface {
	// Get retrieves a product by ID.
	Get(ctx context.Context, productID string) (*domain.Product, error)

	// Put inserts or replaces a product.
	Put(ctx context.Context, product *domain.Product) error
}
