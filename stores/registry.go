package stores

import (
	"context"
	"sync"

	"github.com/zoobzio/storefront"
)

// Refresher is the part of a store the Registry drives.
type Refresher interface {
	Name() string
	State() storefront.State
	IsError() bool
	Failures() []storefront.Failure
	Refresh(ctx context.Context)
	Close()
}

// Registry holds one instance of every domain store, built at startup and
// passed explicitly to whatever needs them.
type Registry struct {
	Users    *UserStore
	Cart     *CartStore
	Products *ProductStore
	Events   *EventStore
	Errors   *ErrorStore
}

// New builds every store over the same collaborators. Unless deps.Reporter is
// set, failures of the other stores are recorded by the ErrorStore.
func New(deps Deps) *Registry {
	d := deps.withDefaults()
	errs := NewErrorStore(d)
	if deps.Reporter == nil {
		d.Reporter = errs
	}
	return &Registry{
		Users:    NewUserStore(d),
		Cart:     NewCartStore(d),
		Products: NewProductStore(d),
		Events:   NewEventStore(d),
		Errors:   errs,
	}
}

// All returns every store in a fixed order.
func (r *Registry) All() []Refresher {
	return []Refresher{r.Users, r.Cart, r.Products, r.Events, r.Errors}
}

// AnyError reports whether any store's last refresh failed.
func (r *Registry) AnyError() bool {
	for _, s := range r.All() {
		if s.IsError() {
			return true
		}
	}
	return false
}

// RetryFailed refreshes every store whose last refresh failed and returns how
// many were retried.
func (r *Registry) RetryFailed(ctx context.Context) int {
	var failed []Refresher
	for _, s := range r.All() {
		if s.IsError() {
			failed = append(failed, s)
		}
	}
	refreshAll(ctx, failed)
	return len(failed)
}

// RefreshAll refreshes every store concurrently and waits for all of them.
func (r *Registry) RefreshAll(ctx context.Context) {
	refreshAll(ctx, r.All())
}

// AddToCart adds one unit of p to the cart and records an EventAddToCart
// when a user is logged in.
func (r *Registry) AddToCart(ctx context.Context, p Product) bool {
	if !r.Cart.AddToCart(ctx, p) {
		return false
	}
	r.recordCartEvent(ctx, EventAddToCart, p)
	return true
}

// DeleteFromCart removes one unit of p from the cart and records an
// EventDeleteFromCart when a user is logged in.
func (r *Registry) DeleteFromCart(ctx context.Context, p Product) bool {
	if !r.Cart.DeleteFromCart(ctx, p) {
		return false
	}
	r.recordCartEvent(ctx, EventDeleteFromCart, p)
	return true
}

func (r *Registry) recordCartEvent(ctx context.Context, typ EventType, p Product) {
	data := EventData{
		Type:     typ,
		CartInfo: r.Cart.Model.CartInfo(),
	}
	if u, ok := r.Users.Model.SimplifiedUser(); ok {
		data.User = &u
	}
	sp := p.Simplified()
	data.Product = &sp

	if e, ok := r.Events.NewEvent(data); ok {
		r.Events.AddEvent(ctx, e)
	}
}

// Follow refreshes the store owning every key w reports until ctx is done.
func (r *Registry) Follow(ctx context.Context, w storefront.Watcher) error {
	return storefront.Follow(ctx, w, map[string]func(context.Context){
		storefront.KeyAuthUser: r.Users.Refresh,
		storefront.KeyCart:     r.Cart.Refresh,
		storefront.KeyProducts: r.Products.Refresh,
		storefront.KeyEvents:   r.Events.Refresh,
		storefront.KeyErrors:   r.Errors.Refresh,
	})
}

// Close drops the subscribers of every store.
func (r *Registry) Close() {
	for _, s := range r.All() {
		s.Close()
	}
}

func refreshAll(ctx context.Context, stores []Refresher) {
	var wg sync.WaitGroup
	for _, s := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Refresh(ctx)
		}()
	}
	wg.Wait()
}
