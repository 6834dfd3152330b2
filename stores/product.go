package stores

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/zoobzio/storefront"
)

var validate = validator.New()

// DefaultCatalogue is written to storage the first time the product store
// refreshes against an empty catalogue.
func DefaultCatalogue() []Product {
	return []Product{
		{
			ID:              1,
			Name:            "Headphones",
			Description:     "Wireless over-ear headphones",
			Image:           "https://picsum.photos/id/1/600/400",
			Price:           4990,
			ProductRating:   4.6,
			QuantityOfGoods: 12,
		},
		{
			ID:              2,
			Name:            "Coffee grinder",
			Description:     "Burr grinder with 18 settings",
			Image:           "https://picsum.photos/id/2/600/400",
			Price:           3290,
			ProductRating:   4.2,
			QuantityOfGoods: 7,
		},
		{
			ID:              3,
			Name:            "Backpack",
			Description:     "Water resistant 20 l city backpack",
			Image:           "https://picsum.photos/id/3/600/400",
			Price:           2790,
			ProductRating:   4.8,
			QuantityOfGoods: 30,
		},
		{
			ID:              4,
			Name:            "Desk lamp",
			Description:     "Dimmable LED lamp",
			Image:           "https://picsum.photos/id/4/600/400",
			Price:           1590,
			ProductRating:   3.9,
			QuantityOfGoods: 0,
		},
	}
}

// ValidateProducts checks every product against its field constraints.
func ValidateProducts(products []Product) error {
	for i := range products {
		if err := validate.Struct(products[i]); err != nil {
			return fmt.Errorf("product %d: %w", products[i].ID, err)
		}
	}
	return nil
}

// ProductStore holds the catalogue persisted under storefront.KeyProducts.
type ProductStore struct {
	*storefront.Store[[]Product]

	deps Deps
}

// NewProductStore creates a ProductStore.
func NewProductStore(deps Deps) *ProductStore {
	d := deps.withDefaults()
	s := &ProductStore{deps: d}
	s.Store = newStore[[]Product]("products", d, s.load)
	return s
}

// IsAuth reports whether the last refresh delivered a non-empty catalogue.
func (s *ProductStore) IsAuth() bool {
	return len(s.Value()) > 0
}

// GetProduct returns the product with id from the last refresh.
func (s *ProductStore) GetProduct(id int) (Product, bool) {
	for _, p := range s.Value() {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// GetSimplifiedProduct returns the event reference of the product with id.
func (s *ProductStore) GetSimplifiedProduct(id int) (SimplifiedProduct, bool) {
	p, ok := s.GetProduct(id)
	if !ok {
		return SimplifiedProduct{}, false
	}
	return p.Simplified(), true
}

// Replace stores products as the catalogue and refreshes. Invalid products
// are reported and nothing is written.
func (s *ProductStore) Replace(ctx context.Context, products []Product) bool {
	return s.Mutate(ctx, "replace catalogue", func(ctx context.Context) error {
		if err := ValidateProducts(products); err != nil {
			return storefront.Wrap(storefront.KindLoadData, "validate products", err)
		}
		return storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyProducts, products)
	})
}

func (s *ProductStore) load(ctx context.Context) ([]Product, error) {
	products, ok, err := storefront.Load[[]Product](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyProducts)
	if err != nil {
		return nil, err
	}
	if !ok {
		products = DefaultCatalogue()
		if err := storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyProducts, products); err != nil {
			return nil, err
		}
	}
	if err := ValidateProducts(products); err != nil {
		return nil, storefront.Wrap(storefront.KindLoadData, "validate products", err)
	}
	return products, nil
}
