package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zoobzio/storefront"
	"github.com/zoobzio/storefront/stores"
)

// NewProductsCommand creates the products command.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := rootOpts.formatter(cmd)
			products := rootOpts.app.Stores.Products
			if err := refresh(cmd, f, products.Store); err != nil {
				return err
			}
			list := products.Value()
			return f.Success(list, func(w io.Writer) {
				for _, p := range list {
					fmt.Fprintf(w, "%3d  %-24s %10.2f  %.1f★  %d left\n",
						p.ID, p.Name, p.Price, p.ProductRating, p.QuantityOfGoods)
				}
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			p, err := lookupProduct(cmd, f, rootOpts.app.Stores, args[0])
			if err != nil {
				return err
			}
			inCart := rootOpts.app.Stores.Cart.Model.TotalCount(p.ID)
			return f.Success(p, func(w io.Writer) {
				fmt.Fprintf(w, "%s (id %d)\n", p.Name, p.ID)
				if p.Description != "" {
					fmt.Fprintf(w, "  %s\n", p.Description)
				}
				fmt.Fprintf(w, "  price:   %.2f\n", p.Price)
				fmt.Fprintf(w, "  rating:  %.1f\n", p.ProductRating)
				fmt.Fprintf(w, "  stock:   %d\n", p.QuantityOfGoods)
				fmt.Fprintf(w, "  in cart: %d\n", inCart)
			})
		},
	})

	return cmd
}

// lookupProduct refreshes the products and cart and resolves arg to a
// catalogue entry.
func lookupProduct(cmd *cobra.Command, f *OutputFormatter, r *stores.Registry, arg string) (stores.Product, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return stores.Product{}, WrapExitError(ExitCommandError, "invalid product id "+strconv.Quote(arg), err)
	}
	if err := refresh(cmd, f, r.Products.Store); err != nil {
		return stores.Product{}, err
	}
	if err := refresh(cmd, f, r.Cart.Store); err != nil {
		return stores.Product{}, err
	}
	p, ok := r.Products.GetProduct(id)
	if !ok {
		return stores.Product{}, f.Error(storefront.KindLoadData.String(), fmt.Sprintf("no product with id %d", id))
	}
	return p, nil
}
