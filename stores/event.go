package stores

import (
	"context"

	"github.com/google/uuid"

	"github.com/zoobzio/storefront"
)

// EventData is the input of NewEvent. User and Product are required.
type EventData struct {
	Type     EventType
	User     *SimplifiedUser
	Product  *SimplifiedProduct
	CartInfo CartInfo
}

// EventStore holds the event log persisted under storefront.KeyEvents.
type EventStore struct {
	*storefront.Store[[]Event]

	deps Deps
}

// NewEventStore creates an EventStore.
func NewEventStore(deps Deps) *EventStore {
	d := deps.withDefaults()
	s := &EventStore{deps: d}
	s.Store = newStore("events", d, loadOr[[]Event](d, storefront.KeyEvents))
	return s
}

// NewEvent builds an event from data. It returns false when the user or the
// product is missing.
func (s *EventStore) NewEvent(data EventData) (Event, bool) {
	if data.User == nil || data.Product == nil {
		return Event{}, false
	}
	return Event{
		ID:        uuid.New(),
		Type:      data.Type,
		User:      *data.User,
		Product:   *data.Product,
		CartInfo:  data.CartInfo,
		CreatedAt: s.deps.Clock.Now(),
	}, true
}

// AddEvent appends e to the log and refreshes.
func (s *EventStore) AddEvent(ctx context.Context, e Event) bool {
	return s.Mutate(ctx, "add event", func(ctx context.Context) error {
		events, _, err := storefront.Load[[]Event](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyEvents)
		if err != nil {
			return err
		}
		return storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyEvents, append(events, e))
	})
}

// IsAuth reports whether the event log holds any event.
func (s *EventStore) IsAuth() bool {
	return len(s.Value()) > 0
}

// Events returns the log from the last refresh.
func (s *EventStore) Events() []Event {
	return s.Value()
}
