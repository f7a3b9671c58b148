package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/utafrali/StorefrontGo/internal/domain"
)

// Snapshot files live under the state directory, one JSON file per
// collection. The format matches what the remote services store per user, so
// a snapshot list can be sent to the sync endpoint as-is.
const (
	cartFile     = "cart.json"
	wishlistFile = "wishlist.json"
)

// CartStore durably persists the guest cart as a local JSON file.
type CartStore struct {
	path string
}

// NewCartStore creates a cart snapshot store rooted at dir. The directory is
// created on the first Save.
func NewCartStore(dir string) *CartStore {
	return &CartStore{path: filepath.Join(dir, cartFile)}
}

// Load returns the stored cart list. A missing or unparsable snapshot yields
// an empty list rather than an error: a corrupt file must never block the
// shopping flow.
func (s *CartStore) Load() []domain.CartItem {
	var items []domain.CartItem
	loadJSON(s.path, &items)
	return items
}

// Save overwrites the snapshot with the given list.
func (s *CartStore) Save(items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	return saveJSON(s.path, items)
}

// Clear removes the snapshot entirely. Clearing an absent snapshot is a no-op.
func (s *CartStore) Clear() error {
	return removeFile(s.path)
}

// WishlistStore durably persists the guest wishlist as a local JSON file.
type WishlistStore struct {
	path string
}

// NewWishlistStore creates a wishlist snapshot store rooted at dir.
func NewWishlistStore(dir string) *WishlistStore {
	return &WishlistStore{path: filepath.Join(dir, wishlistFile)}
}

// Load returns the stored wishlist. Missing or corrupt snapshots yield an
// empty list.
func (s *WishlistStore) Load() []domain.WishlistItem {
	var items []domain.WishlistItem
	loadJSON(s.path, &items)
	return items
}

// Save overwrites the snapshot with the given list.
func (s *WishlistStore) Save(items []domain.WishlistItem) error {
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return saveJSON(s.path, items)
}

// Clear removes the snapshot entirely.
func (s *WishlistStore) Clear() error {
	return removeFile(s.path)
}

// loadJSON reads the file at path into target, leaving target untouched when
// the file is absent or malformed.
func loadJSON(path string, target any) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, target); err != nil {
		// Corrupt snapshot: treat as empty, favoring availability over
		// strict validation.
		return
	}
}

// saveJSON writes target to path atomically (temp file + rename), so a crash
// mid-write never leaves a truncated snapshot behind.
func saveJSON(path string, target any) error {
	data, err := json.Marshal(target)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}
