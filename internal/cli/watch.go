package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoobzio/storefront/pkg/prometheus"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the stores in sync with storage",
		Long: `Refresh every store, then refresh a store again whenever another
process writes its key. Serves Prometheus metrics on metrics.addr when set.

Runs until interrupted. The memory backend has nothing to watch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, rootOpts)
		},
	}
}

func runWatch(cmd *cobra.Command, opts *RootOptions) error {
	app := opts.app
	if app.Watcher == nil {
		return NewExitError(ExitCommandError, "backend "+app.Config.Backend+" cannot be watched")
	}

	ctx := cmd.Context()

	if addr := app.Config.Metrics.Addr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           prometheus.Handler(app.Gatherer),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Log.WithError(err).Error("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		app.Log.WithField("addr", addr).Info("serving metrics")
	}

	app.Stores.RefreshAll(ctx)
	app.Log.WithField("backend", app.Config.Backend).Info("watching")
	return app.Stores.Follow(ctx, app.Watcher)
}
