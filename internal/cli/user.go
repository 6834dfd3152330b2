package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zoobzio/storefront"
	"github.com/zoobzio/storefront/stores"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Log in, creating the user on first use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			users := rootOpts.app.Stores.Users
			if !users.Login(cmd.Context(), args[0]) {
				return f.Error(storefront.KindLoadData.String(), "login failed, see `storefront errors`")
			}
			if err := checkStore(f, users.Store); err != nil {
				return err
			}
			return printUser(f, users.Value())
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Save the current user and log out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := rootOpts.formatter(cmd)
			users := rootOpts.app.Stores.Users
			if err := refresh(cmd, f, users.Store); err != nil {
				return err
			}
			if !users.IsAuth() {
				return f.Error(storefront.KindAuthMissing.String(), "not logged in")
			}
			if !users.Logout(cmd.Context()) {
				return f.Error(storefront.KindLoadData.String(), "logout failed, see `storefront errors`")
			}
			return f.Success(nil, func(w io.Writer) {
				fmt.Fprintln(w, "logged out")
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := rootOpts.formatter(cmd)
			users := rootOpts.app.Stores.Users
			if err := refresh(cmd, f, users.Store); err != nil {
				return err
			}
			return printUser(f, users.Value())
		},
	}
}

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Name    string
	Phone   string
	Address string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the logged in user's profile",
		Long: `Update the logged in user's profile.

Only the flags given are changed. The user is saved to storage before the
store reloads it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Address, "address", "", "delivery address")

	return cmd
}

func runUpdate(cmd *cobra.Command, opts *UpdateOptions) error {
	f := opts.formatter(cmd)
	users := opts.app.Stores.Users

	var fields stores.UserFields
	if cmd.Flags().Changed("name") {
		fields.Name = &opts.Name
	}
	if cmd.Flags().Changed("phone") {
		fields.Phone = &opts.Phone
	}
	if cmd.Flags().Changed("address") {
		fields.Address = &opts.Address
	}

	if !users.UpdateAuthUserFields(cmd.Context(), fields) {
		return f.Error("update", "update rejected")
	}
	if err := checkStore(f, users.Store); err != nil {
		return err
	}
	return printUser(f, users.Value())
}

func printUser(f *OutputFormatter, u *stores.User) error {
	return f.Success(u, func(w io.Writer) {
		if u == nil {
			fmt.Fprintln(w, "not logged in")
			return
		}
		display := u.Name
		if display == "" {
			display = u.UserName
		}
		fmt.Fprintf(w, "%s (@%s, id %d)\n", stores.Capitalize(display), u.UserName, u.ID)
		if u.Phone != "" {
			fmt.Fprintf(w, "  phone:   %s\n", u.Phone)
		}
		if u.Address != "" {
			fmt.Fprintf(w, "  address: %s\n", u.Address)
		}
	})
}
