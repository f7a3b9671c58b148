package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StorefrontGo/internal/domain"
)

func TestCartStore_SaveLoadRoundtrip(t *testing.T) {
	store := NewCartStore(t.TempDir())

	items := []domain.CartItem{
		{ProductID: "prod-1", Name: "Widget", Price: 1999, Quantity: 2},
		{ProductID: "prod-2", Name: "Gadget", Price: 500, Quantity: 1},
	}
	require.NoError(t, store.Save(items))

	got := store.Load()
	assert.Equal(t, items, got)
}

func TestCartStore_LoadMissing(t *testing.T) {
	store := NewCartStore(t.TempDir())
	assert.Empty(t, store.Load())
}

func TestCartStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.json"), []byte("{not json"), 0o644))

	store := NewCartStore(dir)
	assert.Empty(t, store.Load(), "corrupt snapshot must read as empty, not fail")
}

func TestCartStore_SaveOverwrites(t *testing.T) {
	store := NewCartStore(t.TempDir())

	require.NoError(t, store.Save([]domain.CartItem{{ProductID: "prod-1", Quantity: 1}}))
	require.NoError(t, store.Save([]domain.CartItem{{ProductID: "prod-2", Quantity: 3}}))

	got := store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "prod-2", got[0].ProductID)
}

func TestCartStore_Clear(t *testing.T) {
	dir := t.TempDir()
	store := NewCartStore(dir)

	require.NoError(t, store.Save([]domain.CartItem{{ProductID: "prod-1", Quantity: 1}}))
	require.NoError(t, store.Clear())

	_, err := os.Stat(filepath.Join(dir, "cart.json"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, store.Load())

	// Clearing again is a no-op.
	require.NoError(t, store.Clear())
}

func TestWishlistStore_Roundtrip(t *testing.T) {
	store := NewWishlistStore(t.TempDir())

	added := time.Now().UTC().Truncate(time.Second)
	items := []domain.WishlistItem{
		{ProductID: "prod-1", Name: "Widget", Price: 1999, AddedAt: added},
	}
	require.NoError(t, store.Save(items))

	got := store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "prod-1", got[0].ProductID)
	assert.True(t, got[0].AddedAt.Equal(added))
}

func TestStores_SeparateFiles(t *testing.T) {
	dir := t.TempDir()
	carts := NewCartStore(dir)
	wishes := NewWishlistStore(dir)

	require.NoError(t, carts.Save([]domain.CartItem{{ProductID: "prod-1", Quantity: 1}}))
	require.NoError(t, wishes.Save([]domain.WishlistItem{{ProductID: "prod-2"}}))
	require.NoError(t, carts.Clear())

	assert.Empty(t, carts.Load())
	assert.Len(t, wishes.Load(), 1)
}
