package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/StorefrontGo/internal/domain"
	pkgkafka "github.com/utafrali/StorefrontGo/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicCartCleared     = "storefront.cart.cleared"
	TopicCartSynced      = "storefront.cart.synced"
	TopicWishlistUpdated = "storefront.wishlist.updated"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeWishlist = "wishlist"
)

// Source identifier for events originating from the storefront backend.
const SourceStorefront = "storefrontd"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID      string            `json:"user_id"`
	Items       []domain.CartItem `json:"items"`
	ItemCount   int               `json:"item_count"`
	TotalAmount int64             `json:"total_amount"`
	Currency    string            `json:"currency"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// CartSyncedData is the payload for a cart.synced event, emitted once per
// guest-to-account merge.
type CartSyncedData struct {
	UserID          string   `json:"user_id"`
	MergedLines     int      `json:"merged_lines"`
	InvalidProducts []string `json:"invalid_products,omitempty"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	UserID    string `json:"user_id"`
	ItemCount int    `json:"item_count"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront backend.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	data := CartUpdatedData{
		UserID:      cart.UserID,
		Items:       cart.Items,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
		Currency:    cart.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cart.UserID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("user_id", cart.UserID),
		slog.Int("item_count", cart.ItemCount()),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	data := CartClearedData{UserID: userID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, userID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("user_id", userID),
	)

	return nil
}

// PublishCartSynced publishes a cart.synced event after a guest merge.
func (p *Producer) PublishCartSynced(ctx context.Context, userID string, mergedLines int, invalidProducts []string) error {
	data := CartSyncedData{
		UserID:          userID,
		MergedLines:     mergedLines,
		InvalidProducts: invalidProducts,
	}

	event, err := pkgkafka.NewEvent(TopicCartSynced, userID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.synced event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartSynced, event); err != nil {
		return fmt.Errorf("publish cart.synced event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.synced event",
		slog.String("user_id", userID),
		slog.Int("merged_lines", mergedLines),
		slog.Int("invalid_products", len(invalidProducts)),
	)

	return nil
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, wishlist *domain.Wishlist) error {
	data := WishlistUpdatedData{
		UserID:    wishlist.UserID,
		ItemCount: len(wishlist.Items),
	}

	event, err := pkgkafka.NewEvent(TopicWishlistUpdated, wishlist.UserID, AggregateTypeWishlist, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create wishlist.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicWishlistUpdated, event); err != nil {
		return fmt.Errorf("publish wishlist.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published wishlist.updated event",
		slog.String("user_id", wishlist.UserID),
		slog.Int("item_count", len(wishlist.Items)),
	)

	return nil
}
