package stores

import (
	"context"
	"testing"

	"github.com/zoobzio/storefront"
)

func TestRegistry_FailuresLandInErrorStore(t *testing.T) {
	ctx := context.Background()
	fetcher := storefront.NoFaults()
	r := New(Deps{Fetcher: fetcher})
	defer r.Close()

	fetcher.FailureRate(1)
	r.Users.Refresh(ctx)

	if !r.AnyError() {
		t.Fatal("expected a failed store")
	}

	fetcher.FailureRate(0)
	r.Errors.Refresh(ctx)
	records := r.Errors.Records()
	if len(records) != 1 || records[0].Kind != storefront.KindFetch.String() {
		t.Errorf("expected the users failure recorded, got %+v", records)
	}
}

func TestRegistry_RetryFailed(t *testing.T) {
	ctx := context.Background()
	fetcher := storefront.NoFaults()
	r := New(Deps{Fetcher: fetcher, Reporter: &reportLog{}})

	r.RefreshAll(ctx)
	if r.AnyError() {
		t.Fatal("expected every store to refresh")
	}

	fetcher.FailureRate(1)
	r.Cart.Refresh(ctx)
	r.Products.Refresh(ctx)
	fetcher.FailureRate(0)

	if n := r.RetryFailed(ctx); n != 2 {
		t.Errorf("expected 2 retried stores, got %d", n)
	}
	if r.AnyError() {
		t.Error("expected retry to recover every store")
	}
	if n := r.RetryFailed(ctx); n != 0 {
		t.Errorf("expected nothing to retry, got %d", n)
	}
}

func TestRegistry_ProductCardFlow(t *testing.T) {
	ctx := context.Background()
	r := New(Deps{Fetcher: storefront.NoFaults()})
	r.Users.Login(ctx, "bob")
	r.Products.Refresh(ctx)

	item, ok := r.Products.GetProduct(1)
	if !ok {
		t.Fatal("expected product 1 in the default catalogue")
	}
	r.Cart.AddToCart(ctx, item)

	user, _ := r.Users.Model.SimplifiedUser()
	product, _ := r.Products.GetSimplifiedProduct(item.ID)
	e, ok := r.Events.NewEvent(EventData{
		Type:     EventAddToCart,
		User:     &user,
		Product:  &product,
		CartInfo: r.Cart.Model.CartInfo(),
	})
	if !ok {
		t.Fatal("expected event")
	}
	r.Events.AddEvent(ctx, e)

	events := r.Events.Events()
	if len(events) != 1 || events[0].CartInfo.TotalCount != 1 || events[0].User.UserName != "bob" {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestRegistry_FollowRefreshesOwner(t *testing.T) {
	ctx := context.Background()
	storage := storefront.NewMemoryStorage()
	r := New(Deps{Storage: storage, Fetcher: storefront.NoFaults()})

	other := NewCartStore(Deps{Storage: storage, Fetcher: storefront.NoFaults()})
	other.AddToCart(ctx, Product{ID: 3, Name: "Backpack"})

	keys := make(chan string, 1)
	keys <- storefront.KeyCart
	close(keys)
	if err := r.Follow(ctx, storefront.NewSyncChannelWatcher(keys)); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}

	if !r.Cart.Model.IsInCart(3) {
		t.Error("expected cart refreshed after an external write")
	}
	if r.Users.State() != storefront.StateEmpty {
		t.Errorf("expected users untouched, got %s", r.Users.State())
	}
}

func TestRegistry_AddToCartRecordsEvent(t *testing.T) {
	ctx := context.Background()
	r := New(Deps{Fetcher: storefront.NoFaults()})
	lamp := Product{ID: 4, Name: "Desk lamp", Price: 1590}

	r.AddToCart(ctx, lamp)
	if len(r.Events.Events()) != 0 {
		t.Fatalf("expected no event without a user, got %+v", r.Events.Events())
	}

	r.Users.Login(ctx, "bob")
	r.AddToCart(ctx, lamp)
	r.DeleteFromCart(ctx, lamp)

	events := r.Events.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if events[0].Type != EventAddToCart || events[0].CartInfo.TotalCount != 2 {
		t.Errorf("unexpected add event %+v", events[0])
	}
	if events[1].Type != EventDeleteFromCart || events[1].CartInfo.TotalCount != 1 {
		t.Errorf("unexpected delete event %+v", events[1])
	}
	if r.Cart.Model.TotalCount(4) != 1 {
		t.Errorf("expected one lamp left, got %d", r.Cart.Model.TotalCount(4))
	}
}

func TestNew_PipelineOptions(t *testing.T) {
	ctx := context.Background()
	fetcher := storefront.NoFaults().Seed(1).FailureRate(0.5)
	r := New(Deps{Fetcher: fetcher, Retries: 20, Reporter: &reportLog{}})

	r.RefreshAll(ctx)

	if r.AnyError() {
		t.Error("expected retries to absorb a 50% failure rate")
	}
}
