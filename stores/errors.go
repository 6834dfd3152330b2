package stores

import (
	"context"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/storefront"
)

// MaxErrorRecords bounds the persisted error log.
const MaxErrorRecords = 100

// ErrorStore persists error reports under storefront.KeyErrors and serves as
// the Reporter of the other stores.
type ErrorStore struct {
	*storefront.Store[[]ErrorRecord]

	deps Deps
}

// NewErrorStore creates an ErrorStore. Its own refresh failures are only
// emitted as signals; deps.Reporter is ignored.
func NewErrorStore(deps Deps) *ErrorStore {
	d := deps.withDefaults()
	d.Reporter = storefront.ReporterFunc(storefront.EmitReport)
	s := &ErrorStore{deps: d}
	s.Store = newStore("errors", d, loadOr[[]ErrorRecord](d, storefront.KeyErrors))
	return s
}

// Report records rep and alerts unless rep.WithoutAlerts is set. The store is
// not refreshed; call Refresh to observe new records.
func (s *ErrorStore) Report(ctx context.Context, rep storefront.Report) {
	storefront.EmitReport(ctx, rep)

	record := ErrorRecord{
		ID:        uuid.New(),
		Kind:      rep.Kind.String(),
		Message:   storefront.AlertMessage(rep.Err),
		CreatedAt: s.deps.Clock.Now(),
	}
	err := s.Exclusive(ctx, func(ctx context.Context) error {
		records, _, err := storefront.Load[[]ErrorRecord](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyErrors)
		if err != nil {
			return err
		}
		records = append(records, record)
		if over := len(records) - MaxErrorRecords; over > 0 {
			records = records[over:]
		}
		return storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyErrors, records)
	})
	if err != nil {
		capitan.Emit(ctx, storefront.StoreMutationFailed,
			storefront.KeyHolder.Field(s.Name()),
			storefront.KeyOp.Field("report"),
			storefront.KeyError.Field(err.Error()),
		)
	}

	if !rep.WithoutAlerts {
		storefront.RaiseAlert(ctx, s.deps.Alerter, "Error", storefront.AlertMessage(rep.Err))
	}
}

// IsAuth reports whether any error record is held.
func (s *ErrorStore) IsAuth() bool {
	return len(s.Value()) > 0
}

// Records returns the error log from the last refresh.
func (s *ErrorStore) Records() []ErrorRecord {
	return s.Value()
}

// Clear drops every record and refreshes.
func (s *ErrorStore) Clear(ctx context.Context) bool {
	return s.Mutate(ctx, "clear errors", func(ctx context.Context) error {
		return storefront.Delete(ctx, s.deps.Storage, storefront.KeyErrors)
	})
}

var _ storefront.Reporter = (*ErrorStore)(nil)
