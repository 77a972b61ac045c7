package retailers

import (
	"context"
	"errors"
	"testing"

	"moneybook/internal/backend/memory"
	"moneybook/internal/core"
)

func seededStore() *memory.Store {
	s := memory.New()
	s.SeedRetailers(
		core.Retailer{ID: "1", Name: "Corner Mart", Category: core.CategoryGrocery},
		core.Retailer{ID: "2", Name: "City Transit", Category: core.CategoryTransportation},
	)
	return s
}

func TestListReadsThrough(t *testing.T) {
	store := seededStore()
	d := NewDirectory(store, store)

	got, err := d.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 retailers, got %d", len(got))
	}
	if !d.Loaded() {
		t.Error("cache should be loaded after List")
	}
}

func TestListErrorLeavesCacheCold(t *testing.T) {
	store := seededStore()
	store.SetListRetailersError(errors.New("backend down"))
	d := NewDirectory(store, store)

	if _, err := d.List(context.Background()); err == nil {
		t.Fatal("expected remote error")
	}
	if d.Loaded() {
		t.Error("cache must stay cold after a failed fetch")
	}

	// Backend recovers; next List succeeds.
	store.SetListRetailersError(nil)
	got, err := d.List(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("List after recovery = %v, %v", got, err)
	}
}

func TestFindByIDIsPureCacheLookup(t *testing.T) {
	store := seededStore()
	d := NewDirectory(store, store)

	// Cold cache: miss without any remote call.
	if _, ok := d.FindByID("1"); ok {
		t.Error("cold cache should miss")
	}

	if _, err := d.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	r, ok := d.FindByID("2")
	if !ok || r.Name != "City Transit" {
		t.Errorf("FindByID(2) = %+v, %v", r, ok)
	}
	if _, ok := d.FindByID("nope"); ok {
		t.Error("unknown id should miss")
	}
}

func TestCreateValidatesNameLocally(t *testing.T) {
	store := seededStore()
	store.SetCreateRetailerError(errors.New("remote must not be called"))
	d := NewDirectory(store, store)

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := d.Create(context.Background(), name, core.CategoryEtc); !errors.Is(err, core.ErrEmptyName) {
			t.Errorf("Create(%q) error = %v, want ErrEmptyName", name, err)
		}
	}
}

func TestCreateRefetchesCache(t *testing.T) {
	store := seededStore()
	d := NewDirectory(store, store)
	if _, err := d.List(context.Background()); err != nil {
		t.Fatal(err)
	}

	created, err := d.Create(context.Background(), "  Nine Diner  ", core.CategoryEatOut)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.Name != "Nine Diner" {
		t.Errorf("name should be trimmed before the remote call, got %q", created.Name)
	}

	// Cache was refetched in full: the new retailer is visible by id.
	if _, ok := d.FindByID(created.ID); !ok {
		t.Error("created retailer should be in the refreshed cache")
	}
}

func TestCreateDefaultsCategoryToEtc(t *testing.T) {
	store := seededStore()
	d := NewDirectory(store, store)

	created, err := d.Create(context.Background(), "Somewhere", "")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.Category != core.CategoryEtc {
		t.Errorf("category = %v, want ETC", created.Category)
	}
}

func TestCreateRemoteFailureLeavesCacheUntouched(t *testing.T) {
	store := seededStore()
	d := NewDirectory(store, store)
	if _, err := d.List(context.Background()); err != nil {
		t.Fatal(err)
	}

	store.SetCreateRetailerError(errors.New("duplicate name"))
	if _, err := d.Create(context.Background(), "Corner Mart", core.CategoryGrocery); err == nil {
		t.Fatal("expected remote error")
	}

	got, err := d.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("cache changed after failed create: %d entries", len(got))
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	store := seededStore()
	d := NewDirectory(store, store)
	if _, err := d.List(context.Background()); err != nil {
		t.Fatal(err)
	}

	store.SeedRetailers(core.Retailer{ID: "9", Name: "New Place", Category: core.CategoryEtc})
	d.Invalidate()
	if d.Loaded() {
		t.Error("Invalidate should drop the cache")
	}

	got, err := d.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("refetch should see the new retailer, got %d entries", len(got))
	}
}
