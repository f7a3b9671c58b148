package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

const productKeyPrefix = "product:"

// ProductCatalog implements repository.ProductCatalog using Redis. Products
// have no TTL; the catalog is the source of truth for what still resolves.
type ProductCatalog struct {
	client *redis.Client
}

// NewProductCatalog creates a new Redis-backed product catalog.
func NewProductCatalog(client *redis.Client) *ProductCatalog {
	return &ProductCatalog{client: client}
}

// Get retrieves a product by ID from Redis.
func (r *ProductCatalog) Get(ctx context.Context, productID string) (*domain.Product, error) {
	key := productKeyPrefix + productID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, fmt.Errorf("redis get product: %w", err)
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}

	return &product, nil
}

// Put inserts or replaces a product in Redis.
func (r *ProductCatalog) Put(ctx context.Context, product *domain.Product) error {
	key := productKeyPrefix + product.ID

	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}

	return nil
}
