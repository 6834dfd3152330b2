package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoobzio/storefront"
)

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List recorded cart events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := rootOpts.formatter(cmd)
			events := rootOpts.app.Stores.Events
			if err := refresh(cmd, f, events.Store); err != nil {
				return err
			}
			list := events.Events()
			return f.Success(list, func(w io.Writer) {
				for _, e := range list {
					fmt.Fprintf(w, "%s  %-14s @%-12s %-24s cart: %d items, %.2f\n",
						e.CreatedAt.Format(time.DateTime), e.Type, e.User.UserName,
						e.Product.Name, e.CartInfo.TotalCount, e.CartInfo.TotalPrice)
				}
			})
		},
	}
}

// NewErrorsCommand creates the errors command.
func NewErrorsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "List reported errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := rootOpts.formatter(cmd)
			errs := rootOpts.app.Stores.Errors
			if err := refresh(cmd, f, errs.Store); err != nil {
				return err
			}
			list := errs.Records()
			return f.Success(list, func(w io.Writer) {
				if len(list) == 0 {
					fmt.Fprintln(w, "no errors")
					return
				}
				for _, r := range list {
					fmt.Fprintf(w, "%s  %-12s %s\n", r.CreatedAt.Format(time.DateTime), r.Kind, r.Message)
				}
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every reported error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := rootOpts.formatter(cmd)
			if !rootOpts.app.Stores.Errors.Clear(cmd.Context()) {
				return f.Error(storefront.KindStorage.String(), "clear failed")
			}
			return f.Success(nil, func(w io.Writer) {
				fmt.Fprintln(w, "errors cleared")
			})
		},
	})

	return cmd
}
