package stores

import (
	"context"
	"testing"

	"github.com/zoobzio/storefront"
)

func TestCartStore_AddAndDelete(t *testing.T) {
	ctx := context.Background()
	deps, _, _ := testDeps(storefront.NewMemoryStorage())
	s := NewCartStore(deps)
	headphones := Product{ID: 1, Name: "Headphones", Price: 100}
	lamp := Product{ID: 2, Name: "Lamp", Price: 30}

	s.AddToCart(ctx, headphones)
	s.AddToCart(ctx, headphones)
	s.AddToCart(ctx, lamp)

	if !s.IsAuth() {
		t.Error("expected non-empty cart")
	}
	if got := s.Model.TotalCount(1); got != 2 {
		t.Errorf("expected 2 headphones, got %d", got)
	}
	info := s.Model.CartInfo()
	if info.TotalCount != 3 || info.TotalPrice != 230 {
		t.Errorf("unexpected cart info %+v", info)
	}

	s.DeleteFromCart(ctx, lamp)
	if s.Model.IsInCart(2) {
		t.Error("expected lamp line removed at zero")
	}
	s.DeleteFromCart(ctx, lamp)
	if got := s.Model.TotalCount(1); got != 2 {
		t.Errorf("expected deleting an absent product to be a no-op, got %d", got)
	}
}

func TestCartStore_Clear(t *testing.T) {
	ctx := context.Background()
	deps, _, _ := testDeps(storefront.NewMemoryStorage())
	s := NewCartStore(deps)

	s.AddToCart(ctx, Product{ID: 1, Name: "Headphones"})
	s.Clear(ctx)

	if s.IsAuth() {
		t.Error("expected empty cart after Clear")
	}
	if s.IsEmpty() {
		t.Error("expected store to stay filled")
	}
}

func TestCartStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	storage := storefront.NewMemoryStorage()
	deps, _, _ := testDeps(storage)

	NewCartStore(deps).AddToCart(ctx, Product{ID: 5, Name: "Backpack"})

	other := NewCartStore(deps)
	other.Refresh(ctx)
	if !other.Model.IsInCart(5) {
		t.Error("expected cart to be read back from storage")
	}
}
