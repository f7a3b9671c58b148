package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/server/event"
	"github.com/utafrali/StorefrontGo/internal/server/repository"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// MaxItemsPerWishlist is the maximum number of entries allowed in a wishlist.
const MaxItemsPerWishlist = 200

// AddWishlistItemInput holds the parameters for adding a wishlist entry.
type AddWishlistItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
}

// WishlistService implements the business logic for wishlist operations.
type WishlistService struct {
	repo     repository.WishlistRepository
	catalog  repository.ProductCatalog
	carts    *CartService
	producer *event.Producer
	logger   *slog.Logger
}

// NewWishlistService creates a new wishlist service. The cart service is
// required for the move-to-cart handoff.
func NewWishlistService(repo repository.WishlistRepository, catalog repository.ProductCatalog, carts *CartService, producer *event.Producer, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		repo:     repo,
		catalog:  catalog,
		carts:    carts,
		producer: producer,
		logger:   logger,
	}
}

// GetWishlist retrieves the wishlist for a user. If none exists, returns an
// empty wishlist.
func (s *WishlistService) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	wishlist, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyWishlist(userID), nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	return wishlist, nil
}

// AddItem adds an entry to the user's wishlist, resolving the product
// against the catalog. Adding an already-present product is a successful
// no-op, so clients can replay adds safely.
func (s *WishlistService) AddItem(ctx context.Context, userID string, input AddWishlistItemInput) (*domain.Wishlist, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	product, err := s.catalog.Get(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", input.ProductID)
		}
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	wishlist, err := s.getOrCreateWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	if domain.FindWishlistItem(wishlist.Items, product.ID) >= 0 {
		return wishlist, nil
	}
	if len(wishlist.Items) >= MaxItemsPerWishlist {
		return nil, apperrors.InvalidInput(fmt.Sprintf("wishlist must not contain more than %d items", MaxItemsPerWishlist))
	}

	wishlist.Items = append(wishlist.Items, domain.WishlistItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		ImageURL:  product.ImageURL,
		AddedAt:   time.Now().UTC(),
	})

	if err := s.saveWishlist(ctx, wishlist); err != nil {
		return nil, err
	}

	s.publishWishlistUpdated(ctx, wishlist)

	s.logger.InfoContext(ctx, "item added to wishlist",
		slog.String("user_id", userID),
		slog.String("product_id", product.ID),
	)

	return wishlist, nil
}

// RemoveItem removes an entry from the user's wishlist.
func (s *WishlistService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	wishlist, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist for remove: %w", err)
	}

	idx := domain.FindWishlistItem(wishlist.Items, productID)
	if idx < 0 {
		return nil, apperrors.NotFound("wishlist item", productID)
	}
	wishlist.Items = append(wishlist.Items[:idx], wishlist.Items[idx+1:]...)

	if err := s.saveWishlist(ctx, wishlist); err != nil {
		return nil, err
	}

	s.publishWishlistUpdated(ctx, wishlist)

	s.logger.InfoContext(ctx, "item removed from wishlist",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return wishlist, nil
}

// ClearWishlist removes the user's wishlist record.
func (s *WishlistService) ClearWishlist(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete wishlist: %w", err)
	}

	s.publishWishlistUpdated(ctx, &domain.Wishlist{UserID: userID})

	s.logger.InfoContext(ctx, "wishlist cleared",
		slog.String("user_id", userID),
	)

	return nil
}

// MoveToCart transfers a wishlist entry into the user's cart. The cart add
// must succeed first; only then does the entry leave the wishlist. A cart
// failure leaves the wishlist exactly as it was.
func (s *WishlistService) MoveToCart(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}

	wishlist, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist for move: %w", err)
	}

	idx := domain.FindWishlistItem(wishlist.Items, productID)
	if idx < 0 {
		return nil, apperrors.NotFound("wishlist item", productID)
	}

	cart, err := s.carts.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, fmt.Errorf("add moved item to cart: %w", err)
	}

	wishlist.Items = append(wishlist.Items[:idx], wishlist.Items[idx+1:]...)
	if err := s.saveWishlist(ctx, wishlist); err != nil {
		// The cart add already committed; surface the partial state rather
		// than pretending the move failed outright.
		return nil, apperrors.Wrap(err, "cart updated but wishlist entry could not be removed")
	}

	s.publishWishlistUpdated(ctx, wishlist)

	s.logger.InfoContext(ctx, "wishlist item moved to cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// getOrCreateWishlist retrieves the wishlist for a user, creating an empty
// one if it does not exist.
func (s *WishlistService) getOrCreateWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	wishlist, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyWishlist(userID), nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return wishlist, nil
}

// newEmptyWishlist creates a new empty wishlist for the given user.
func (s *WishlistService) newEmptyWishlist(userID string) *domain.Wishlist {
	now := time.Now().UTC()
	return &domain.Wishlist{
		UserID:    userID,
		Items:     []domain.WishlistItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *WishlistService) saveWishlist(ctx context.Context, wishlist *domain.Wishlist) error {
	wishlist.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, wishlist); err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	return nil
}

func (s *WishlistService) publishWishlistUpdated(ctx context.Context, wishlist *domain.Wishlist) {
	if err := s.producer.PublishWishlistUpdated(ctx, wishlist); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("user_id", wishlist.UserID),
			slog.String("error", err.Error()),
		)
	}
}
