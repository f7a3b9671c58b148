package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/remote"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// Cart operation upper-bound limits to keep guest snapshots and sync
// payloads small.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct lines allowed in a cart.
	MaxItemsPerCart = 50
)

// Mode selects which persistence backend is authoritative for the engine.
type Mode int

const (
	// ModeGuest persists every mutation to the local snapshot store.
	ModeGuest Mode = iota
	// ModeAuthenticated delegates every mutation to the remote service and
	// adopts the returned server state wholesale.
	ModeAuthenticated
)

func (m Mode) String() string {
	if m == ModeAuthenticated {
		return "authenticated"
	}
	return "guest"
}

// CartSnapshotStore is the durable local storage used while no authenticated
// session exists.
type CartSnapshotStore interface {
	Load() []domain.CartItem
	Save(items []domain.CartItem) error
	Clear() error
}

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=500"`
	Price     int64  `json:"price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	ImageURL  string `json:"image_url"`
}

// MergeResult reports the outcome of a guest-to-account merge.
// DroppedProducts lists the display names of guest lines rejected because
// their product no longer resolves; a non-empty list is a warning for
// user-facing disclosure, not a failure.
type MergeResult struct {
	DroppedProducts []string
}

// CartEngine owns the canonical in-memory cart item list and keeps it
// synchronized with whichever backend is currently authoritative: the local
// snapshot while unauthenticated, the remote cart record once signed in.
//
// All operations are serialized under one mutex, so a merge in flight can
// never interleave with a mutation and a stale remote response can never
// overwrite a newer one.
type CartEngine struct {
	mu     sync.Mutex
	mode   Mode
	items  []domain.CartItem
	snap   CartSnapshotStore
	remote remote.CartService
	logger *slog.Logger
	events *Notifier
}

// NewCartEngine creates a cart engine in guest mode, seeded from the local
// snapshot. Callers with an already-authenticated session should invoke
// SignIn immediately after construction.
func NewCartEngine(snap CartSnapshotStore, remoteSvc remote.CartService, logger *slog.Logger, events *Notifier) *CartEngine {
	return &CartEngine{
		mode:   ModeGuest,
		items:  snap.Load(),
		snap:   snap,
		remote: remoteSvc,
		logger: logger,
		events: events,
	}
}

// Mode returns the currently active persistence mode.
func (e *CartEngine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Items returns a copy of the current in-memory cart list.
func (e *CartEngine) Items() []domain.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneCartItems(e.items)
}

// Totals derives the item count and total price from the current in-memory
// list. Pure read, never triggers I/O.
func (e *CartEngine) Totals() domain.Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CartTotals(e.items)
}

// AddItem adds a line to the cart, folding into the existing line when the
// product is already present. In guest mode the mutation applies in memory
// and is persisted to the snapshot; in authenticated mode it is delegated to
// the remote service and the returned server cart replaces the in-memory
// list. A failed remote call leaves the in-memory list unchanged.
func (e *CartEngine) AddItem(ctx context.Context, input AddItemInput) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { recordOperation("cart", "add", e.mode, err) }()

	if input.ProductID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if input.Quantity <= 0 {
		return apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerItem {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}
	if input.Price < 0 {
		return apperrors.InvalidInput("price must not be negative")
	}

	item := domain.CartItem{
		ProductID: input.ProductID,
		Name:      input.Name,
		Price:     input.Price,
		Quantity:  input.Quantity,
		ImageURL:  input.ImageURL,
	}

	if e.mode == ModeAuthenticated {
		serverItems, remoteErr := e.remote.AddItem(ctx, item)
		if remoteErr != nil {
			return fmt.Errorf("add item to remote cart: %w", remoteErr)
		}
		e.items = serverItems
	} else {
		next := domain.CloneCartItems(e.items)
		if idx := domain.FindCartItem(next, item.ProductID); idx >= 0 {
			newQty := next[idx].Quantity + item.Quantity
			if newQty > MaxQuantityPerItem {
				return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
			}
			next[idx].Quantity = newQty
			// Refresh the display snapshot in case it changed.
			next[idx].Name = item.Name
			next[idx].Price = item.Price
			next[idx].ImageURL = item.ImageURL
		} else {
			if len(next) >= MaxItemsPerCart {
				return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
			}
			next = append(next, item)
		}
		if saveErr := e.snap.Save(next); saveErr != nil {
			return fmt.Errorf("save cart snapshot: %w", saveErr)
		}
		e.items = next
	}

	e.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", item.ProductID),
		slog.Int("quantity", item.Quantity),
		slog.String("mode", e.mode.String()),
	)
	e.events.Publish(Event{Type: EventItemAdded, Collection: "cart", ProductID: item.ProductID, Name: item.Name})

	return nil
}

// UpdateItem sets the quantity of an existing line. A quantity of zero or
// less is redefined as removal. Returns NotFound if no line exists for the
// product.
func (e *CartEngine) UpdateItem(ctx context.Context, productID string, quantity int) (err error) {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if quantity <= 0 {
		_, err := e.RemoveItem(ctx, productID)
		return err
	}
	if quantity > MaxQuantityPerItem {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { recordOperation("cart", "update", e.mode, err) }()

	if e.mode == ModeAuthenticated {
		serverItems, remoteErr := e.remote.UpdateItem(ctx, productID, quantity)
		if remoteErr != nil {
			return fmt.Errorf("update remote cart item: %w", remoteErr)
		}
		e.items = serverItems
	} else {
		idx := domain.FindCartItem(e.items, productID)
		if idx < 0 {
			return apperrors.NotFound("cart item", productID)
		}
		next := domain.CloneCartItems(e.items)
		next[idx].Quantity = quantity
		if saveErr := e.snap.Save(next); saveErr != nil {
			return fmt.Errorf("save cart snapshot: %w", saveErr)
		}
		e.items = next
	}

	e.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
		slog.String("mode", e.mode.String()),
	)
	e.events.Publish(Event{Type: EventItemUpdated, Collection: "cart", ProductID: productID})

	return nil
}

// RemoveItem removes a line from the cart. Removing an absent line is not an
// error; the returned bool reports whether a removal actually occurred.
func (e *CartEngine) RemoveItem(ctx context.Context, productID string) (removed bool, err error) {
	if productID == "" {
		return false, apperrors.InvalidInput("product id is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { recordOperation("cart", "remove", e.mode, err) }()

	idx := domain.FindCartItem(e.items, productID)
	if idx < 0 {
		return false, nil
	}
	name := e.items[idx].Name

	if e.mode == ModeAuthenticated {
		serverItems, remoteErr := e.remote.RemoveItem(ctx, productID)
		if remoteErr != nil {
			return false, fmt.Errorf("remove remote cart item: %w", remoteErr)
		}
		e.items = serverItems
	} else {
		next := domain.CloneCartItems(e.items)
		next = append(next[:idx], next[idx+1:]...)
		if saveErr := e.snap.Save(next); saveErr != nil {
			return false, fmt.Errorf("save cart snapshot: %w", saveErr)
		}
		e.items = next
	}

	e.logger.InfoContext(ctx, "item removed from cart",
		slog.String("product_id", productID),
		slog.String("mode", e.mode.String()),
	)
	e.events.Publish(Event{Type: EventItemRemoved, Collection: "cart", ProductID: productID, Name: name})

	return true, nil
}

// Clear empties the cart and its backing store.
func (e *CartEngine) Clear(ctx context.Context) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { recordOperation("cart", "clear", e.mode, err) }()

	if e.mode == ModeAuthenticated {
		if remoteErr := e.remote.Clear(ctx); remoteErr != nil {
			return fmt.Errorf("clear remote cart: %w", remoteErr)
		}
	} else {
		if clearErr := e.snap.Clear(); clearErr != nil {
			return fmt.Errorf("clear cart snapshot: %w", clearErr)
		}
	}
	e.items = []domain.CartItem{}

	e.logger.InfoContext(ctx, "cart cleared", slog.String("mode", e.mode.String()))
	e.events.Publish(Event{Type: EventCleared, Collection: "cart"})

	return nil
}

// Refresh re-reads the authoritative backend and replaces the in-memory
// list: the remote record when authenticated, the local snapshot otherwise.
func (e *CartEngine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == ModeAuthenticated {
		serverItems, err := e.remote.Get(ctx)
		if err != nil {
			return fmt.Errorf("refresh remote cart: %w", err)
		}
		e.items = serverItems
		return nil
	}

	e.items = e.snap.Load()
	return nil
}

// SignIn transitions the engine from guest to authenticated mode, merging a
// non-empty local snapshot into the server cart. The merge runs at most once
// per sign-in transition: calling SignIn while already authenticated is a
// no-op.
//
// On sync failure the engine stays in guest mode with the snapshot and the
// in-memory list intact, and the caller may retry. On success the snapshot
// is cleared unconditionally; names of dropped lines come back in
// MergeResult for disclosure.
func (e *CartEngine) SignIn(ctx context.Context) (res *MergeResult, err error) {
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
		recordMerge("cart", dropped, err)
	}()

	local := e.items

	if len(local) == 0 {
		serverItems, getErr := e.remote.Get(ctx)
		if getErr != nil {
			return nil, fmt.Errorf("fetch remote cart on sign-in: %w", getErr)
		}
		e.items = serverItems
		e.mode = ModeAuthenticated
		if clearErr := e.snap.Clear(); clearErr != nil {
			e.logger.Warn("failed to clear cart snapshot after sign-in", slog.String("error", clearErr.Error()))
		}
		e.events.Publish(Event{Type: EventMerged, Collection: "cart"})
		return &MergeResult{}, nil
	}

	syncRes, syncErr := e.remote.Sync(ctx, local)
	if syncErr != nil {
		// Snapshot and in-memory state stay exactly as they were; the
		// caller decides whether to retry.
		return nil, fmt.Errorf("sync guest cart: %w", syncErr)
	}

	e.items = syncRes.Items
	e.mode = ModeAuthenticated
	if clearErr := e.snap.Clear(); clearErr != nil {
		e.logger.Warn("failed to clear cart snapshot after merge", slog.String("error", clearErr.Error()))
	}

	result := &MergeResult{DroppedProducts: syncRes.InvalidProducts}
	if len(result.DroppedProducts) > 0 {
		e.logger.WarnContext(ctx, "merge dropped unresolvable products",
			slog.Int("dropped", len(result.DroppedProducts)),
			slog.Any("products", result.DroppedProducts),
		)
	} else {
		e.logger.InfoContext(ctx, "guest cart merged",
			slog.Int("items", len(e.items)),
		)
	}
	e.events.Publish(Event{Type: EventMerged, Collection: "cart", Dropped: result.DroppedProducts})

	return result, nil
}

// SignOut returns the engine to guest mode seeded from the local snapshot.
// After a completed merge the snapshot is empty, so account data never leaks
// into the guest cart; after an aborted merge the untouched guest lines come
// back.
func (e *CartEngine) SignOut() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mode = ModeGuest
	e.items = e.snap.Load()
}
