package cli

import (
	"github.com/spf13/cobra"

	"github.com/zoobzio/storefront"
)

// refresh reloads s and turns a failed refresh into a command error.
func refresh[T any](cmd *cobra.Command, f *OutputFormatter, s *storefront.Store[T]) error {
	s.Refresh(cmd.Context())
	return checkStore(f, s)
}

func checkStore[T any](f *OutputFormatter, s *storefront.Store[T]) error {
	if !s.IsError() {
		return nil
	}
	err := s.Holder().LastError()
	return f.Error(storefront.KindOf(err).String(), s.Name()+": "+storefront.AlertMessage(err))
}
