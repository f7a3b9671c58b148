package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCartTotals(t *testing.T) {
	items := []CartItem{
		{ProductID: "prod-1", Price: 1000, Quantity: 2},
		{ProductID: "prod-2", Price: 500, Quantity: 3},
	}

	totals := CartTotals(items)

	assert.Equal(t, 5, totals.TotalQuantity)
	assert.Equal(t, int64(3500), totals.TotalPrice)
}

func TestCartTotals_Empty(t *testing.T) {
	totals := CartTotals(nil)
	assert.Zero(t, totals.TotalQuantity)
	assert.Zero(t, totals.TotalPrice)
}

func TestFindCartItem(t *testing.T) {
	items := []CartItem{
		{ProductID: "prod-1"},
		{ProductID: "prod-2"},
	}

	assert.Equal(t, 1, FindCartItem(items, "prod-2"))
	assert.Equal(t, -1, FindCartItem(items, "prod-9"))
}

func TestCloneCartItems_Independent(t *testing.T) {
	items := []CartItem{{ProductID: "prod-1", Quantity: 1}}

	clone := CloneCartItems(items)
	clone[0].Quantity = 99

	assert.Equal(t, 1, items[0].Quantity)
}

func TestFindWishlistItem(t *testing.T) {
	items := []WishlistItem{
		{ProductID: "prod-1", AddedAt: time.Now()},
	}

	assert.Equal(t, 0, FindWishlistItem(items, "prod-1"))
	assert.Equal(t, -1, FindWishlistItem(items, "prod-2"))
}
