package nats

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"

	"github.com/zoobzio/storefront"
)

func setupNATS(t *testing.T) jetstream.JetStream {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcnats.Run(ctx, "nats:2.10-alpine")
	if err != nil {
		t.Fatalf("failed to start nats container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get endpoint: %v", err)
	}

	nc, err := nats.Connect(endpoint)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() {
		nc.Close()
	})

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("failed to create jetstream: %v", err)
	}
	return js
}

func TestStorage_RoundTrip(t *testing.T) {
	js := setupNATS(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Open(ctx, js, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, ok, err := s.Get(ctx, storefront.KeyUsers); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, storefront.KeyUsers, []byte(`[]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := s.Get(ctx, storefront.KeyUsers)
	if err != nil || !ok || string(v) != `[]` {
		t.Errorf("unexpected value %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Remove(ctx, storefront.KeyUsers); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, storefront.KeyUsers); ok {
		t.Error("expected key removed")
	}
	if err := s.Remove(ctx, storefront.KeyUsers); err != nil {
		t.Errorf("expected removing an absent key to succeed, got %v", err)
	}
}

func TestWatcher_EmitsKeyOnChange(t *testing.T) {
	js := setupNATS(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Open(ctx, js, "watched")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Set(ctx, storefront.KeyCart, []byte(`[]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ch, err := s.Watcher().Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := s.Set(ctx, storefront.KeyEvents, []byte(`[]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	select {
	case key := <-ch:
		if key != storefront.KeyEvents {
			t.Errorf("expected only the new write, got %s", key)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for key")
	}
}

func TestWatcher_ClosesOnContextCancel(t *testing.T) {
	js := setupNATS(t)
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Open(ctx, js, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ch, err := s.Watcher().Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}
