package stores

import (
	"context"
	"slices"

	"github.com/zoobzio/storefront"
)

// CartModel exposes the cart held by a CartStore.
type CartModel struct {
	*storefront.DataModel[[]CartItem]
}

// IsInCart reports whether productID has a line in the cart.
func (m *CartModel) IsInCart(productID int) bool {
	return m.TotalCount(productID) > 0
}

// TotalCount returns how many units of productID are in the cart.
func (m *CartModel) TotalCount(productID int) int {
	for _, item := range m.Data() {
		if item.Product.ID == productID {
			return item.Count
		}
	}
	return 0
}

// CartInfo sums the units and price of the whole cart.
func (m *CartModel) CartInfo() CartInfo {
	var info CartInfo
	for _, item := range m.Data() {
		info.TotalCount += item.Count
		info.TotalPrice += item.Product.Price * float64(item.Count)
	}
	return info
}

// CartStore holds the cart persisted under storefront.KeyCart.
type CartStore struct {
	*storefront.Store[[]CartItem]
	Model *CartModel

	deps Deps
}

// NewCartStore creates a CartStore.
func NewCartStore(deps Deps) *CartStore {
	d := deps.withDefaults()
	s := &CartStore{deps: d}
	s.Store = newStore("cart", d, loadOr[[]CartItem](d, storefront.KeyCart))
	s.Model = &CartModel{storefront.NewDataModel(storefront.Producer(s.Store.Value))}
	return s
}

// IsAuth reports whether the cart has any items.
func (s *CartStore) IsAuth() bool {
	return len(s.Model.Data()) > 0
}

// AddToCart adds one unit of p and refreshes.
func (s *CartStore) AddToCart(ctx context.Context, p Product) bool {
	return s.update(ctx, "add to cart", func(items []CartItem) []CartItem {
		if i := indexOfProduct(items, p.ID); i >= 0 {
			items[i].Count++
			return items
		}
		return append(items, CartItem{Product: p, Count: 1})
	})
}

// DeleteFromCart removes one unit of p, dropping the line at zero, and
// refreshes.
func (s *CartStore) DeleteFromCart(ctx context.Context, p Product) bool {
	return s.update(ctx, "delete from cart", func(items []CartItem) []CartItem {
		i := indexOfProduct(items, p.ID)
		if i < 0 {
			return items
		}
		items[i].Count--
		if items[i].Count <= 0 {
			return slices.Delete(items, i, i+1)
		}
		return items
	})
}

// Clear empties the cart and refreshes.
func (s *CartStore) Clear(ctx context.Context) bool {
	return s.Mutate(ctx, "clear cart", func(ctx context.Context) error {
		return storefront.Delete(ctx, s.deps.Storage, storefront.KeyCart)
	})
}

func (s *CartStore) update(ctx context.Context, op string, fn func([]CartItem) []CartItem) bool {
	return s.Mutate(ctx, op, func(ctx context.Context) error {
		items, _, err := storefront.Load[[]CartItem](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyCart)
		if err != nil {
			return err
		}
		return storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyCart, fn(items))
	})
}

func indexOfProduct(items []CartItem, id int) int {
	return slices.IndexFunc(items, func(item CartItem) bool { return item.Product.ID == id })
}
