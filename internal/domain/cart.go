package domain

// Product is the normalized catalog snapshot used at the system boundary.
// ProductID is mandatory everywhere in the core; the display fields are a
// denormalized snapshot and may go stale relative to the catalog.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
}

// CartItem represents a single line in the cart. At most one line exists per
// product; duplicate adds fold into the existing line by summing quantity.
type CartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Totals holds the derived aggregation over a cart item list.
type Totals struct {
	TotalQuantity int   `json:"total_quantity"`
	TotalPrice    int64 `json:"total_price"`
}

// CartTotals derives item count and total price (in cents) from the given
// list. Pure, recomputed on every call.
func CartTotals(items []CartItem) Totals {
	var t Totals
	for _, item := range items {
		t.TotalQuantity += item.Quantity
		t.TotalPrice += item.Price * int64(item.Quantity)
	}
	return t
}

// FindCartItem returns the index of the line matching the given product ID,
// or -1 if no such line exists.
func FindCartItem(items []CartItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// CloneCartItems returns a copy of the item list so callers can hand it out
// without exposing the engine-owned slice to mutation.
func CloneCartItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}
