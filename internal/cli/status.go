package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zoobzio/storefront"
	"github.com/zoobzio/storefront/stores"
)

// StoreStatus is one line of the status report.
type StoreStatus struct {
	Name     string   `json:"name"`
	State    string   `json:"state"`
	Failures []string `json:"failures,omitempty"`
}

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Retries int
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Refresh every store and show its state",
		Long: `Refresh every store concurrently and show its state.

Stores that fail are refreshed again up to --retries times before the
command gives up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Retries, "retries", 0, "retry failed stores this many times")

	return cmd
}

func runStatus(cmd *cobra.Command, opts *StatusOptions) error {
	f := opts.formatter(cmd)
	r := opts.app.Stores

	r.RefreshAll(cmd.Context())
	for i := 0; i < opts.Retries && r.AnyError(); i++ {
		n := r.RetryFailed(cmd.Context())
		f.VerboseLog("retry %d: %d store(s)", i+1, n)
	}

	report := statusOf(r)
	if err := f.Success(report, func(w io.Writer) {
		for _, s := range report {
			fmt.Fprintf(w, "%-10s %s\n", s.Name, s.State)
			for _, msg := range s.Failures {
				fmt.Fprintf(w, "  - %s\n", msg)
			}
		}
	}); err != nil {
		return err
	}
	if r.AnyError() {
		return NewExitError(ExitFailure, "some stores failed to refresh")
	}
	return nil
}

func statusOf(r *stores.Registry) []StoreStatus {
	all := r.All()
	out := make([]StoreStatus, 0, len(all))
	for _, s := range all {
		st := StoreStatus{Name: s.Name(), State: s.State().String()}
		for _, f := range s.Failures() {
			st.Failures = append(st.Failures, fmt.Sprintf("generation %d: %s", f.Generation, storefront.AlertMessage(f.Err)))
		}
		out = append(out, st)
	}
	return out
}
