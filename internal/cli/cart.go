package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zoobzio/storefront"
	"github.com/zoobzio/storefront/stores"
)

// CartView is the JSON shape of the cart.
type CartView struct {
	Items []stores.CartItem `json:"items"`
	Info  stores.CartInfo   `json:"info"`
}

// NewCartCommand creates the cart command and its subcommands.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := rootOpts.formatter(cmd)
			cart := rootOpts.app.Stores.Cart
			if err := refresh(cmd, f, cart.Store); err != nil {
				return err
			}
			return printCart(f, cart)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return changeCart(cmd, rootOpts, args[0], true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return changeCart(cmd, rootOpts, args[0], false)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := rootOpts.formatter(cmd)
			cart := rootOpts.app.Stores.Cart
			if !cart.Clear(cmd.Context()) {
				return f.Error(storefront.KindLoadData.String(), "clear failed, see `storefront errors`")
			}
			return printCart(f, cart)
		},
	})

	return cmd
}

func changeCart(cmd *cobra.Command, opts *RootOptions, arg string, add bool) error {
	f := opts.formatter(cmd)
	r := opts.app.Stores

	p, err := lookupProduct(cmd, f, r, arg)
	if err != nil {
		return err
	}
	// The event carries the logged in user when there is one.
	if err := refresh(cmd, f, r.Users.Store); err != nil {
		return err
	}

	var ok bool
	if add {
		ok = r.AddToCart(cmd.Context(), p)
	} else {
		ok = r.DeleteFromCart(cmd.Context(), p)
	}
	if !ok {
		return f.Error(storefront.KindLoadData.String(), "cart update failed, see `storefront errors`")
	}
	if err := checkStore(f, r.Cart.Store); err != nil {
		return err
	}
	return printCart(f, r.Cart)
}

func printCart(f *OutputFormatter, cart *stores.CartStore) error {
	view := CartView{Items: cart.Value(), Info: cart.Model.CartInfo()}
	if view.Items == nil {
		view.Items = []stores.CartItem{}
	}
	return f.Success(view, func(w io.Writer) {
		if len(view.Items) == 0 {
			fmt.Fprintln(w, "cart is empty")
			return
		}
		for _, item := range view.Items {
			fmt.Fprintf(w, "%3d  %-24s x%-3d %10.2f\n",
				item.Product.ID, item.Product.Name, item.Count, item.Product.Price*float64(item.Count))
		}
		fmt.Fprintf(w, "total: %d items, %.2f\n", view.Info.TotalCount, view.Info.TotalPrice)
	})
}
