package domain

import "time"

// WishlistItem represents a single wishlist entry. Wishlist lines carry no
// quantity and are never edited after insertion, only added and removed.
type WishlistItem struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	ImageURL  string    `json:"image_url,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// FindWishlistItem returns the index of the entry matching the given product
// ID, or -1 if no such entry exists.
func FindWishlistItem(items []WishlistItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// CloneWishlistItems returns a copy of the item list.
func CloneWishlistItems(items []WishlistItem) []WishlistItem {
	out := make([]WishlistItem, len(items))
	copy(out, items)
	return out
}
