package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"github.com/zoobzio/storefront"
)

func TestEventStore_NewEventRequiresUserAndProduct(t *testing.T) {
	deps, _, _ := testDeps(storefront.NewMemoryStorage())
	s := NewEventStore(deps)

	if _, ok := s.NewEvent(EventData{Type: EventAddToCart, Product: &SimplifiedProduct{ID: 1}}); ok {
		t.Error("expected no event without a user")
	}
	if _, ok := s.NewEvent(EventData{Type: EventAddToCart, User: &SimplifiedUser{ID: 1}}); ok {
		t.Error("expected no event without a product")
	}
}

func TestEventStore_AddEvent(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	deps, _, _ := testDeps(storefront.NewMemoryStorage())
	deps.Clock = clock
	s := NewEventStore(deps)

	e, ok := s.NewEvent(EventData{
		Type:     EventDeleteFromCart,
		User:     &SimplifiedUser{ID: 1, UserName: "bob"},
		Product:  &SimplifiedProduct{ID: 2, Name: "Lamp", Price: 30},
		CartInfo: CartInfo{TotalCount: 1, TotalPrice: 30},
	})
	if !ok {
		t.Fatal("expected event")
	}
	if e.ID == uuid.Nil {
		t.Error("expected event id")
	}
	if !e.CreatedAt.Equal(clock.Now()) {
		t.Errorf("expected timestamp from clock, got %v", e.CreatedAt)
	}

	s.AddEvent(ctx, e)
	s.AddEvent(ctx, e)

	events := s.Events()
	if len(events) != 2 || events[0].Type != EventDeleteFromCart || events[1].User.UserName != "bob" {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestEventStore_IsAuth(t *testing.T) {
	ctx := context.Background()
	deps, _, _ := testDeps(storefront.NewMemoryStorage())
	s := NewEventStore(deps)

	s.Refresh(ctx)
	if s.IsAuth() {
		t.Error("expected empty log")
	}

	e, _ := s.NewEvent(EventData{
		Type:    EventAddToCart,
		User:    &SimplifiedUser{ID: 1, UserName: "bob"},
		Product: &SimplifiedProduct{ID: 3, Name: "Backpack", Price: 2790},
	})
	s.AddEvent(ctx, e)
	if !s.IsAuth() {
		t.Error("expected log with an event")
	}
}
