package domain

import "time"

// Cart is the server-side cart record keyed by user.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// TotalAmount calculates the total price of all items in the cart (in cents).
func (c *Cart) TotalAmount() int64 {
	return CartTotals(c.Items).TotalPrice
}

// ItemCount returns the total number of items in the cart.
func (c *Cart) ItemCount() int {
	return CartTotals(c.Items).TotalQuantity
}

// Wishlist is the server-side wishlist record keyed by user.
type Wishlist struct {
	UserID    string         `json:"user_id"`
	Items     []WishlistItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
