package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/remote"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// MaxItemsPerWishlist is the maximum number of entries allowed in a wishlist.
const MaxItemsPerWishlist = 200

// WishlistSnapshotStore is the durable local storage for the guest wishlist.
type WishlistSnapshotStore interface {
	Load() []domain.WishlistItem
	Save(items []domain.WishlistItem) error
	Clear() error
}

// AddWishlistInput holds the parameters for adding an entry to the wishlist.
type AddWishlistInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=500"`
	Price     int64  `json:"price" validate:"gte=0"`
	ImageURL  string `json:"image_url"`
}

// WishlistEngine owns the canonical in-memory wishlist, mirroring the cart
// engine's dual-mode design: local snapshot while unauthenticated, remote
// service once signed in. A wishlist holds at most one entry per product, so
// adds are idempotent rather than quantity-folding.
type WishlistEngine struct {
	mu     sync.Mutex
	mode   Mode
	items  []domain.WishlistItem
	snap   WishlistSnapshotStore
	remote remote.WishlistService
	cart   *CartEngine
	logger *slog.Logger
	events *Notifier
	now    func() time.Time
}

// NewWishlistEngine creates a wishlist engine in guest mode, seeded from the
// local snapshot. The cart engine is required for move-to-cart handoff.
func NewWishlistEngine(snap WishlistSnapshotStore, remoteSvc remote.WishlistService, cart *CartEngine, logger *slog.Logger, events *Notifier) *WishlistEngine {
	return &WishlistEngine{
		mode:   ModeGuest,
		items:  snap.Load(),
		snap:   snap,
		remote: remoteSvc,
		cart:   cart,
		logger: logger,
		events: events,
		now:    time.Now,
	}
}

// Mode returns the currently active persistence mode.
func (e *WishlistEngine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Items returns a copy of the current in-memory wishlist.
func (e *WishlistEngine) Items() []domain.WishlistItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneWishlistItems(e.items)
}

// Contains reports whether the wishlist currently holds the product.
func (e *WishlistEngine) Contains(productID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.FindWishlistItem(e.items, productID) >= 0
}

// AddItem adds an entry to the wishlist. Adding a product that is already
// present is a successful no-op.
func (e *WishlistEngine) AddItem(ctx context.Context, input AddWishlistInput) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { recordOperation("wishlist", "add", e.mode, err) }()

	if input.ProductID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if input.Price < 0 {
		return apperrors.InvalidInput("price must not be negative")
	}
	if domain.FindWishlistItem(e.items, input.ProductID) >= 0 {
		return nil
	}
	if len(e.items) >= MaxItemsPerWishlist {
		return apperrors.InvalidInput(fmt.Sprintf("wishlist must not contain more than %d items", MaxItemsPerWishlist))
	}

	item := domain.WishlistItem{
		ProductID: input.ProductID,
		Name:      input.Name,
		Price:     input.Price,
		ImageURL:  input.ImageURL,
		AddedAt:   e.now().UTC(),
	}

	if e.mode == ModeAuthenticated {
		if remoteErr := e.remote.AddItem(ctx, item); remoteErr != nil {
			return fmt.Errorf("add item to remote wishlist: %w", remoteErr)
		}
		e.items = append(domain.CloneWishlistItems(e.items), item)
	} else {
		next := append(domain.CloneWishlistItems(e.items), item)
		if saveErr := e.snap.Save(next); saveErr != nil {
			return fmt.Errorf("save wishlist snapshot: %w", saveErr)
		}
		e.items = next
	}

	e.logger.InfoContext(ctx, "item added to wishlist",
		slog.String("product_id", item.ProductID),
		slog.String("mode", e.mode.String()),
	)
	e.events.Publish(Event{Type: EventItemAdded, Collection: "wishlist", ProductID: item.ProductID, Name: item.Name})

	return nil
}

// RemoveItem removes an entry from the wishlist. Removing an absent entry is
// not an error; the returned bool reports whether a removal occurred.
func (e *WishlistEngine) RemoveItem(ctx context.Context, productID string) (removed bool, err error) {
	if productID == "" {
		return false, apperrors.InvalidInput("product id is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { recordOperation("wishlist", "remove", e.mode, err) }()

	idx := domain.FindWishlistItem(e.items, productID)
	if idx < 0 {
		return false, nil
	}
	name := e.items[idx].Name

	if e.mode == ModeAuthenticated {
		if remoteErr := e.remote.RemoveItem(ctx, productID); remoteErr != nil {
			return false, fmt.Errorf("remove remote wishlist item: %w", remoteErr)
		}
	}

	next := domain.CloneWishlistItems(e.items)
	next = append(next[:idx], next[idx+1:]...)
	if e.mode == ModeGuest {
		if saveErr := e.snap.Save(next); saveErr != nil {
			return false, fmt.Errorf("save wishlist snapshot: %w", saveErr)
		}
	}
	e.items = next

	e.logger.InfoContext(ctx, "item removed from wishlist",
		slog.String("product_id", productID),
		slog.String("mode", e.mode.String()),
	)
	e.events.Publish(Event{Type: EventItemRemoved, Collection: "wishlist", ProductID: productID, Name: name})

	return true, nil
}

// Clear empties the wishlist and its backing store.
func (e *WishlistEngine) Clear(ctx context.Context) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { recordOperation("wishlist", "clear", e.mode, err) }()

	if e.mode == ModeAuthenticated {
		if remoteErr := e.remote.Clear(ctx); remoteErr != nil {
			return fmt.Errorf("clear remote wishlist: %w", remoteErr)
		}
	} else {
		if clearErr := e.snap.Clear(); clearErr != nil {
			return fmt.Errorf("clear wishlist snapshot: %w", clearErr)
		}
	}
	e.items = []domain.WishlistItem{}

	e.logger.InfoContext(ctx, "wishlist cleared", slog.String("mode", e.mode.String()))
	e.events.Publish(Event{Type: EventCleared, Collection: "wishlist"})

	return nil
}

// MoveToCart transfers a wishlist entry into the cart. The cart add must
// succeed before the entry leaves the wishlist; any failure on the cart side
// leaves the wishlist untouched.
func (e *WishlistEngine) MoveToCart(ctx context.Context, productID string, quantity int) (err error) {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if quantity <= 0 {
		return apperrors.InvalidInput("quantity must be greater than 0")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { recordOperation("wishlist", "move_to_cart", e.mode, err) }()

	idx := domain.FindWishlistItem(e.items, productID)
	if idx < 0 {
		return apperrors.NotFound("wishlist item", productID)
	}
	entry := e.items[idx]

	if e.mode == ModeAuthenticated {
		// The backend performs the add-then-remove as one unit.
		if remoteErr := e.remote.MoveToCart(ctx, productID, quantity); remoteErr != nil {
			return fmt.Errorf("move wishlist item to cart: %w", remoteErr)
		}
		next := domain.CloneWishlistItems(e.items)
		e.items = append(next[:idx], next[idx+1:]...)
		if refreshErr := e.cart.Refresh(ctx); refreshErr != nil {
			// The move already committed server-side; the cart will catch
			// up on the next refresh.
			e.logger.WarnContext(ctx, "cart refresh after move-to-cart failed",
				slog.String("product_id", productID),
				slog.String("error", refreshErr.Error()),
			)
		}
	} else {
		if addErr := e.cart.AddItem(ctx, AddItemInput{
			ProductID: entry.ProductID,
			Name:      entry.Name,
			Price:     entry.Price,
			Quantity:  quantity,
			ImageURL:  entry.ImageURL,
		}); addErr != nil {
			return fmt.Errorf("add moved item to cart: %w", addErr)
		}
		next := domain.CloneWishlistItems(e.items)
		next = append(next[:idx], next[idx+1:]...)
		if saveErr := e.snap.Save(next); saveErr != nil {
			return fmt.Errorf("save wishlist snapshot: %w", saveErr)
		}
		e.items = next
	}

	e.logger.InfoContext(ctx, "wishlist item moved to cart",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
		slog.String("mode", e.mode.String()),
	)
	e.events.Publish(Event{Type: EventMovedToCart, Collection: "wishlist", ProductID: productID, Name: entry.Name})

	return nil
}

// Refresh re-reads the authoritative backend and replaces the in-memory list.
func (e *WishlistEngine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == ModeAuthenticated {
		serverItems, err := e.remote.Get(ctx)
		if err != nil {
			return fmt.Errorf("refresh remote wishlist: %w", err)
		}
		e.items = serverItems
		return nil
	}

	e.items = e.snap.Load()
	return nil
}

// SignIn transitions the engine to authenticated mode, replaying the guest
// wishlist into the account wishlist. Entries whose product no longer
// resolves are dropped and reported by name; any other replay failure aborts
// the merge and leaves the guest state intact for retry. Calling SignIn
// while already authenticated is a no-op.
func (e *WishlistEngine) SignIn(ctx context.Context) (res *MergeResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == ModeAuthenticated {
		return nil, nil
	}

	defer func() {
		dropped := 0
		if res != nil {
			dropped = len(res.DroppedProducts)
		}
		recordMerge("wishlist", dropped, err)
	}()

	var dropped []string
	for _, item := range e.items {
		addErr := e.remote.AddItem(ctx, item)
		if addErr == nil {
			continue
		}
		if errors.Is(addErr, apperrors.ErrNotFound) {
			dropped = append(dropped, item.Name)
			continue
		}
		return nil, fmt.Errorf("merge guest wishlist: %w", addErr)
	}

	serverItems, getErr := e.remote.Get(ctx)
	if getErr != nil {
		return nil, fmt.Errorf("fetch remote wishlist on sign-in: %w", getErr)
	}

	e.items = serverItems
	e.mode = ModeAuthenticated
	if clearErr := e.snap.Clear(); clearErr != nil {
		e.logger.Warn("failed to clear wishlist snapshot after merge", slog.String("error", clearErr.Error()))
	}

	result := &MergeResult{DroppedProducts: dropped}
	if len(dropped) > 0 {
		e.logger.WarnContext(ctx, "wishlist merge dropped unresolvable products",
			slog.Int("dropped", len(dropped)),
			slog.Any("products", dropped),
		)
	} else {
		e.logger.InfoContext(ctx, "guest wishlist merged",
			slog.Int("items", len(e.items)),
		)
	}
	e.events.Publish(Event{Type: EventMerged, Collection: "wishlist", Dropped: dropped})

	return result, nil
}

// SignOut returns the engine to guest mode seeded from the local snapshot.
// After a completed merge the snapshot is empty, so account data never leaks
// into the guest wishlist; after an aborted merge the untouched guest
// entries come back.
func (e *WishlistEngine) SignOut() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mode = ModeGuest
	e.items = e.snap.Load()
}
