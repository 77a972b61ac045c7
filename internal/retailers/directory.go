// Package retailers maintains the client-side retailer directory: a
// read-through cache over the backend's retailer list, invalidated by full
// refetch after every successful creation.
package retailers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"moneybook/internal/backend"
	"moneybook/internal/core"
)

// Directory caches the known retailers and creates new ones remotely.
type Directory struct {
	lister  backend.RetailerLister
	creator backend.RetailerCreator

	mu     sync.Mutex
	cached []core.Retailer
	loaded bool
}

func NewDirectory(lister backend.RetailerLister, creator backend.RetailerCreator) *Directory {
	return &Directory{
		lister:  lister,
		creator: creator,
	}
}

// List returns the cached retailer list, fetching from the backend when the
// cache is cold or was invalidated. A remote error leaves the cache untouched.
func (d *Directory) List(ctx context.Context) ([]core.Retailer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.loaded {
		fresh, err := d.lister.ListRetailers(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch retailer list: %w", err)
		}
		d.cached = fresh
		d.loaded = true
	}

	out := make([]core.Retailer, len(d.cached))
	copy(out, d.cached)
	return out, nil
}

// FindByID looks up a retailer in the current cache. It never makes a remote
// call; a cold cache simply misses.
func (d *Directory) FindByID(id string) (core.Retailer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.cached {
		if r.ID == id {
			return r, true
		}
	}
	return core.Retailer{}, false
}

// Create creates a retailer remotely. The name must be non-empty after
// trimming; the category defaults to ETC when empty. On success the whole
// cache is refetched so server-side defaults and derived fields stay
// consistent; on failure the cache is untouched.
func (d *Directory) Create(ctx context.Context, name string, category core.Category) (core.Retailer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Retailer{}, core.ErrEmptyName
	}
	if category == "" {
		category = core.CategoryEtc
	}
	if !category.Valid() {
		return core.Retailer{}, core.ErrInvalidCategory
	}

	created, err := d.creator.CreateRetailer(ctx, name, category)
	if err != nil {
		return core.Retailer{}, fmt.Errorf("create retailer: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	fresh, err := d.lister.ListRetailers(ctx)
	if err != nil {
		// Creation succeeded; a failed refetch only means the cache is stale.
		// Invalidate so the next List loads from the backend.
		d.loaded = false
		slog.WarnContext(ctx, "Retailer list refetch failed after create",
			"retailer_id", created.ID, "error", err)
		return created, nil
	}
	d.cached = fresh
	d.loaded = true

	return created, nil
}

// Invalidate drops the cache; the next List refetches from the backend.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
	d.cached = nil
}

// Loaded reports whether the cache currently holds a fetched list.
func (d *Directory) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}
