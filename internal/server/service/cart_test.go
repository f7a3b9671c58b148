package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/server/event"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	pkgkafka "github.com/utafrali/StorefrontGo/pkg/kafka"
)

// --- Mock Repositories ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockProductCatalog struct {
	mock.Mock
}

func (m *mockProductCatalog) Get(ctx context.Context, productID string) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductCatalog) Put(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockCartRepository, catalog *mockProductCatalog) *CartService {
	logger := newTestLogger()
	// A Kafka producer pointed at a dead broker; publish failures are logged
	// and swallowed so tests need no real broker.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewCartService(repo, catalog, producer, logger, 30*24*time.Hour)
}

func newCartWithItem(userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:     "cart-123",
		UserID: userID,
		Items: []domain.CartItem{
			{ProductID: "prod-1", Name: "Widget", Price: 1999, Quantity: 2},
		},
		Currency:  "USD",
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
	}
}

func widget() *domain.Product {
	return &domain.Product{ID: "prod-1", Name: "Widget", Price: 1999}
}

// --- GetCart ---

func TestCartService_GetCart_ReturnsEmptyWhenMissing(t *testing.T) {
	repo := new(mockCartRepository)
	catalog := new(mockProductCatalog)
	svc := newTestService(repo, catalog)

	repo.On("Get", mock.Anything, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))

	cart, err := svc.GetCart(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	assert.Empty(t, cart.Items)
	repo.AssertExpectations(t)
}

func TestCartService_GetCart_MissingUserID(t *testing.T) {
	svc := newTestService(new(mockCartRepository), new(mockProductCatalog))

	_, err := svc.GetCart(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- AddItem ---

func TestCartService_AddItem_NewLine(t *testing.T) {
	repo := new(mockCartRepository)
	catalog := new(mockProductCatalog)
	svc := newTestService(repo, catalog)

	catalog.On("Get", mock.Anything, "prod-1").Return(widget(), nil)
	repo.On("Get", mock.Anything, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].Quantity == 3 && c.Items[0].Price == 1999
	})).Return(nil)

	cart, err := svc.AddItem(context.Background(), "user-1", AddItemInput{ProductID: "prod-1", Quantity: 3})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Widget", cart.Items[0].Name)
	repo.AssertExpectations(t)
	catalog.AssertExpectations(t)
}

func TestCartService_AddItem_MergesExistingLine(t *testing.T) {
	repo := new(mockCartRepository)
	catalog := new(mockProductCatalog)
	svc := newTestService(repo, catalog)

	catalog.On("Get", mock.Anything, "prod-1").Return(widget(), nil)
	repo.On("Get", mock.Anything, "user-1").Return(newCartWithItem("user-1"), nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].Quantity == 5
	})).Return(nil)

	cart, err := svc.AddItem(context.Background(), "user-1", AddItemInput{ProductID: "prod-1", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	repo.AssertExpectations(t)
}

func TestCartService_AddItem_UnknownProduct(t *testing.T) {
	repo := new(mockCartRepository)
	catalog := new(mockProductCatalog)
	svc := newTestService(repo, catalog)

	catalog.On("Get", mock.Anything, "prod-gone").Return(nil, apperrors.NotFound("product", "prod-gone"))

	_, err := svc.AddItem(context.Background(), "user-1", AddItemInput{ProductID: "prod-gone", Quantity: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_AddItem_Validation(t *testing.T) {
	svc := newTestService(new(mockCartRepository), new(mockProductCatalog))
	ctx := context.Background()

	tests := []struct {
		name  string
		input AddItemInput
	}{
		{"missing product id", AddItemInput{Quantity: 1}},
		{"zero quantity", AddItemInput{ProductID: "prod-1"}},
		{"excessive quantity", AddItemInput{ProductID: "prod-1", Quantity: MaxQuantityPerItem + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, "user-1", tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

// --- UpdateItemQuantity ---

func TestCartService_UpdateItemQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo, new(mockProductCatalog))

	repo.On("Get", mock.Anything, "user-1").Return(newCartWithItem("user-1"), nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.Items[0].Quantity == 7
	})).Return(nil)

	cart, err := svc.UpdateItemQuantity(context.Background(), "user-1", "prod-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)
	repo.AssertExpectations(t)
}

func TestCartService_UpdateItemQuantity_ZeroRemoves(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo, new(mockProductCatalog))

	repo.On("Get", mock.Anything, "user-1").Return(newCartWithItem("user-1"), nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 0
	})).Return(nil)

	cart, err := svc.UpdateItemQuantity(context.Background(), "user-1", "prod-1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_UpdateItemQuantity_NotFound(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo, new(mockProductCatalog))

	repo.On("Get", mock.Anything, "user-1").Return(newCartWithItem("user-1"), nil)

	_, err := svc.UpdateItemQuantity(context.Background(), "user-1", "prod-9", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- RemoveItem ---

func TestCartService_RemoveItem(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo, new(mockProductCatalog))

	repo.On("Get", mock.Anything, "user-1").Return(newCartWithItem("user-1"), nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 0
	})).Return(nil)

	cart, err := svc.RemoveItem(context.Background(), "user-1", "prod-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	repo.AssertExpectations(t)
}

// --- ClearCart ---

func TestCartService_ClearCart(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo, new(mockProductCatalog))

	repo.On("Delete", mock.Anything, "user-1").Return(nil)

	require.NoError(t, svc.ClearCart(context.Background(), "user-1"))
	repo.AssertExpectations(t)
}

// --- SyncCart ---

func TestCartService_SyncCart_DropsUnresolvableLines(t *testing.T) {
	repo := new(mockCartRepository)
	catalog := new(mockProductCatalog)
	svc := newTestService(repo, catalog)

	repo.On("Get", mock.Anything, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	catalog.On("Get", mock.Anything, "prod-A").Return(&domain.Product{ID: "prod-A", Name: "Alpha", Price: 1000}, nil)
	catalog.On("Get", mock.Anything, "prod-B").Return(nil, apperrors.NotFound("product", "prod-B"))
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].ProductID == "prod-A" && c.Items[0].Quantity == 2
	})).Return(nil)

	res, err := svc.SyncCart(context.Background(), "user-1", []domain.CartItem{
		{ProductID: "prod-A", Name: "Alpha", Price: 1000, Quantity: 2},
		{ProductID: "prod-B", Name: "Beta", Price: 2000, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, res.ValidProducts)
	assert.Equal(t, []string{"Beta"}, res.InvalidProducts)
	require.Len(t, res.Cart.Items, 1)
	repo.AssertExpectations(t)
	catalog.AssertExpectations(t)
}

func TestCartService_SyncCart_FoldsIntoExistingLines(t *testing.T) {
	repo := new(mockCartRepository)
	catalog := new(mockProductCatalog)
	svc := newTestService(repo, catalog)

	repo.On("Get", mock.Anything, "user-1").Return(newCartWithItem("user-1"), nil)
	catalog.On("Get", mock.Anything, "prod-1").Return(widget(), nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].Quantity == 5
	})).Return(nil)

	res, err := svc.SyncCart(context.Background(), "user-1", []domain.CartItem{
		{ProductID: "prod-1", Name: "Widget", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Cart.Items[0].Quantity)
	assert.Empty(t, res.InvalidProducts)
}

func TestCartService_SyncCart_StorageFailureAbortsWholeMerge(t *testing.T) {
	repo := new(mockCartRepository)
	catalog := new(mockProductCatalog)
	svc := newTestService(repo, catalog)

	repo.On("Get", mock.Anything, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	catalog.On("Get", mock.Anything, "prod-A").Return(&domain.Product{ID: "prod-A", Name: "Alpha", Price: 1000}, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(assert.AnError)

	res, err := svc.SyncCart(context.Background(), "user-1", []domain.CartItem{
		{ProductID: "prod-A", Quantity: 1},
	})
	require.Error(t, err)
	assert.Nil(t, res)
}
