package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/snapshot"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

type mockWishlistService struct {
	mock.Mock
}

func (m *mockWishlistService) Get(ctx context.Context) ([]domain.WishlistItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistService) AddItem(ctx context.Context, item domain.WishlistItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockWishlistService) RemoveItem(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *mockWishlistService) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockWishlistService) MoveToCart(ctx context.Context, productID string, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

type wishlistFixture struct {
	wishlist *WishlistEngine
	cart     *CartEngine
	store    *snapshot.WishlistStore
	svc      *mockWishlistService
	cartSvc  *mockCartService
}

func newGuestWishlist(t *testing.T) *wishlistFixture {
	t.Helper()
	dir := t.TempDir()

	cartSvc := new(mockCartService)
	cart := NewCartEngine(snapshot.NewCartStore(dir), cartSvc, testLogger(), nil)

	store := snapshot.NewWishlistStore(dir)
	svc := new(mockWishlistService)
	wl := NewWishlistEngine(store, svc, cart, testLogger(), NewNotifier())

	return &wishlistFixture{wishlist: wl, cart: cart, store: store, svc: svc, cartSvc: cartSvc}
}

func (f *wishlistFixture) signIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	signIn(t, f.cart, f.cartSvc)

	for _, item := range f.wishlist.Items() {
		f.svc.On("AddItem", mock.Anything, item).Return(nil).Once()
	}
	f.svc.On("Get", mock.Anything).Return(f.wishlist.Items(), nil).Once()

	_, err := f.wishlist.SignIn(ctx)
	require.NoError(t, err)
	require.Equal(t, ModeAuthenticated, f.wishlist.Mode())
}

func TestWishlistEngine_AddItem_Guest(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-1", Name: "Widget", Price: 1999}))

	items := f.wishlist.Items()
	require.Len(t, items, 1)
	assert.False(t, items[0].AddedAt.IsZero())
	assert.True(t, f.wishlist.Contains("prod-1"))

	// Adding the same product again is a successful no-op, never a
	// duplicate entry.
	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-1", Name: "Widget", Price: 1999}))
	assert.Len(t, f.wishlist.Items(), 1)

	persisted := f.store.Load()
	require.Len(t, persisted, 1)
	assert.Equal(t, "prod-1", persisted[0].ProductID)
}

func TestWishlistEngine_AddItem_Validation(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	err := f.wishlist.AddItem(ctx, AddWishlistInput{Name: "Widget"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	err = f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-1", Name: "Widget", Price: -5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestWishlistEngine_RemoveItem(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-1", Name: "Widget"}))

	removed, err := f.wishlist.RemoveItem(ctx, "prod-1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, f.wishlist.Items())
	assert.Empty(t, f.store.Load())

	removed, err = f.wishlist.RemoveItem(ctx, "prod-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestWishlistEngine_MoveToCart_Guest(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-1", Name: "Widget", Price: 1500, ImageURL: "https://img/widget.png"}))

	require.NoError(t, f.wishlist.MoveToCart(ctx, "prod-1", 2))

	// The entry moved: cart gained the line with the wishlist's product
	// details, wishlist lost it.
	cartItems := f.cart.Items()
	require.Len(t, cartItems, 1)
	assert.Equal(t, "prod-1", cartItems[0].ProductID)
	assert.Equal(t, "Widget", cartItems[0].Name)
	assert.Equal(t, int64(1500), cartItems[0].Price)
	assert.Equal(t, 2, cartItems[0].Quantity)
	assert.Empty(t, f.wishlist.Items())
	assert.Empty(t, f.store.Load())
}

func TestWishlistEngine_MoveToCart_NotFound(t *testing.T) {
	f := newGuestWishlist(t)

	err := f.wishlist.MoveToCart(context.Background(), "prod-missing", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestWishlistEngine_MoveToCart_InvalidQuantity(t *testing.T) {
	f := newGuestWishlist(t)

	err := f.wishlist.MoveToCart(context.Background(), "prod-1", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestWishlistEngine_MoveToCart_CartFailureKeepsEntry(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-1", Name: "Widget", Price: 1500}))

	// A quantity over the cart's per-line cap makes the cart add fail
	// before any wishlist mutation.
	err := f.wishlist.MoveToCart(ctx, "prod-1", MaxQuantityPerItem+1)
	require.Error(t, err)

	assert.True(t, f.wishlist.Contains("prod-1"))
	assert.Empty(t, f.cart.Items())
	require.Len(t, f.store.Load(), 1)
}

func TestWishlistEngine_MoveToCart_Authenticated(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-1", Name: "Widget", Price: 1500}))
	f.signIn(t)

	f.svc.On("MoveToCart", mock.Anything, "prod-1", 3).Return(nil).Once()
	f.cartSvc.On("Get", mock.Anything).Return([]domain.CartItem{
		{ProductID: "prod-1", Name: "Widget", Price: 1500, Quantity: 3},
	}, nil).Once()

	require.NoError(t, f.wishlist.MoveToCart(ctx, "prod-1", 3))

	assert.Empty(t, f.wishlist.Items())
	require.Len(t, f.cart.Items(), 1)
	assert.Equal(t, 3, f.cart.Items()[0].Quantity)
	f.svc.AssertExpectations(t)
	f.cartSvc.AssertExpectations(t)
}

func TestWishlistEngine_MoveToCart_Authenticated_RemoteFailureKeepsEntry(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-1", Name: "Widget", Price: 1500}))
	f.signIn(t)

	f.svc.On("MoveToCart", mock.Anything, "prod-1", 1).
		Return(apperrors.Unavailable("wishlist service unreachable", errors.New("dial tcp: connection refused"))).Once()

	err := f.wishlist.MoveToCart(ctx, "prod-1", 1)
	require.Error(t, err)
	assert.True(t, f.wishlist.Contains("prod-1"))
	f.svc.AssertExpectations(t)
}

func TestWishlistEngine_SignIn_ReplaysGuestEntries(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-A", Name: "Alpha", Price: 1000}))
	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-B", Name: "Beta", Price: 2000}))

	serverList := []domain.WishlistItem{
		{ProductID: "prod-A", Name: "Alpha", Price: 1000},
		{ProductID: "prod-B", Name: "Beta", Price: 2000},
		{ProductID: "prod-C", Name: "Gamma", Price: 3000},
	}
	f.svc.On("AddItem", mock.Anything, mock.Anything).Return(nil).Twice()
	f.svc.On("Get", mock.Anything).Return(serverList, nil).Once()

	res, err := f.wishlist.SignIn(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res.DroppedProducts)
	assert.Equal(t, ModeAuthenticated, f.wishlist.Mode())
	assert.Equal(t, serverList, f.wishlist.Items())
	assert.Empty(t, f.store.Load())
	f.svc.AssertExpectations(t)
}

func TestWishlistEngine_SignIn_DropsUnresolvableProducts(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-A", Name: "Alpha"}))
	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-gone", Name: "Discontinued"}))

	f.svc.On("AddItem", mock.Anything, mock.MatchedBy(func(it domain.WishlistItem) bool {
		return it.ProductID == "prod-A"
	})).Return(nil).Once()
	f.svc.On("AddItem", mock.Anything, mock.MatchedBy(func(it domain.WishlistItem) bool {
		return it.ProductID == "prod-gone"
	})).Return(apperrors.NotFound("product", "prod-gone")).Once()
	f.svc.On("Get", mock.Anything).Return([]domain.WishlistItem{
		{ProductID: "prod-A", Name: "Alpha"},
	}, nil).Once()

	res, err := f.wishlist.SignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Discontinued"}, res.DroppedProducts)
	require.Len(t, f.wishlist.Items(), 1)
	assert.Empty(t, f.store.Load())
	f.svc.AssertExpectations(t)
}

func TestWishlistEngine_SignIn_ReplayFailureIsRetryable(t *testing.T) {
	f := newGuestWishlist(t)
	ctx := context.Background()

	require.NoError(t, f.wishlist.AddItem(ctx, AddWishlistInput{ProductID: "prod-A", Name: "Alpha"}))

	f.svc.On("AddItem", mock.Anything, mock.Anything).
		Return(apperrors.Unavailable("wishlist service unreachable", errors.New("dial tcp: connection refused"))).Once()

	_, err := f.wishlist.SignIn(ctx)
	require.Error(t, err)
	assert.Equal(t, ModeGuest, f.wishlist.Mode())
	require.Len(t, f.wishlist.Items(), 1)
	require.Len(t, f.store.Load(), 1)

	f.svc.On("AddItem", mock.Anything, mock.Anything).Return(nil).Once()
	f.svc.On("Get", mock.Anything).Return(f.wishlist.Items(), nil).Once()

	res, err := f.wishlist.SignIn(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.DroppedProducts)
	assert.Equal(t, ModeAuthenticated, f.wishlist.Mode())
	f.svc.AssertExpectations(t)
}

func TestWishlistEngine_SignOut_ResetsToEmptyGuest(t *testing.T) {
	f := newGuestWishlist(t)
	require.NoError(t, f.wishlist.AddItem(context.Background(), AddWishlistInput{ProductID: "prod-1", Name: "Widget"}))
	f.signIn(t)

	f.wishlist.SignOut()

	assert.Equal(t, ModeGuest, f.wishlist.Mode())
	assert.Empty(t, f.wishlist.Items())
	assert.Empty(t, f.store.Load())
}
