package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/storefront"
)

var (
	observeOnce sync.Once
	observer    atomic.Pointer[logrus.Logger]
)

// observe routes storefront signals to log. Hooks are registered once per
// process; later calls only swap the destination logger.
func observe(log *logrus.Logger) {
	observer.Store(log)
	observeOnce.Do(func() {
		capitan.Hook(storefront.HolderStateChanged, func(_ context.Context, e *capitan.Event) {
			from, _ := storefront.KeyOldState.From(e)
			to, _ := storefront.KeyNewState.From(e)
			entry(e).WithFields(logrus.Fields{"from": from, "to": to}).Debug("state changed")
		})
		capitan.Hook(storefront.StoreRefreshSucceeded, func(_ context.Context, e *capitan.Event) {
			d, _ := storefront.KeyDuration.From(e)
			entry(e).WithField("duration", d).Info("refreshed")
		})
		capitan.Hook(storefront.HolderFailed, func(_ context.Context, e *capitan.Event) {
			kind, _ := storefront.KeyKind.From(e)
			msg, _ := storefront.KeyError.From(e)
			entry(e).WithField("kind", kind).Warn(msg)
		})
		capitan.Hook(storefront.HolderStaleDropped, func(_ context.Context, e *capitan.Event) {
			gen, _ := storefront.KeyGeneration.From(e)
			entry(e).WithField("generation", gen).Debug("stale result dropped")
		})
		capitan.Hook(storefront.StoreFetchAttemptFailed, func(_ context.Context, e *capitan.Event) {
			msg, _ := storefront.KeyError.From(e)
			entry(e).Debug("fetch attempt failed: " + msg)
		})
		capitan.Hook(storefront.StoreMutationFailed, func(_ context.Context, e *capitan.Event) {
			op, _ := storefront.KeyOp.From(e)
			msg, _ := storefront.KeyError.From(e)
			entry(e).WithField("op", op).Error(msg)
		})
		capitan.Hook(storefront.ErrorReported, func(_ context.Context, e *capitan.Event) {
			kind, _ := storefront.KeyKind.From(e)
			msg, _ := storefront.KeyError.From(e)
			entry(e).WithField("kind", kind).Debug("reported: " + msg)
		})
	})
}

func entry(e *capitan.Event) *logrus.Entry {
	holder, _ := storefront.KeyHolder.From(e)
	fields := logrus.Fields{}
	if holder != "" {
		fields["holder"] = holder
	}
	return observer.Load().WithFields(fields)
}

// newAlerter prints user-facing alerts to w.
func newAlerter(w io.Writer) storefront.Alerter {
	return storefront.AlertFunc(func(_ context.Context, title, message string) {
		fmt.Fprintf(w, "! %s: %s\n", title, message)
	})
}
