package etcd

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zoobzio/storefront"
)

func setupEtcd(t *testing.T) *clientv3.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "gcr.io/etcd-development/etcd:v3.5.17",
			ExposedPorts: []string{"2379/tcp"},
			Cmd: []string{
				"etcd",
				"--listen-client-urls=http://0.0.0.0:2379",
				"--advertise-client-urls=http://0.0.0.0:2379",
			},
			WaitingFor: wait.ForListeningPort("2379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start etcd container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "2379/tcp", "http")
	if err != nil {
		t.Fatalf("failed to get endpoint: %v", err)
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{endpoint},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestStorage_RoundTrip(t *testing.T) {
	client := setupEtcd(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := New(client)

	if _, ok, err := s.Get(ctx, storefront.KeyCart); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, storefront.KeyCart, []byte(`[]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	resp, err := client.Get(ctx, DefaultPrefix+storefront.KeyCart)
	if err != nil || len(resp.Kvs) != 1 {
		t.Fatalf("expected prefixed key in etcd, err=%v", err)
	}

	v, ok, err := s.Get(ctx, storefront.KeyCart)
	if err != nil || !ok || string(v) != `[]` {
		t.Errorf("unexpected value %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Remove(ctx, storefront.KeyCart); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, storefront.KeyCart); ok {
		t.Error("expected key removed")
	}
}

func TestWatcher_EmitsKeyOnChange(t *testing.T) {
	client := setupEtcd(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := New(client, WithPrefix("/shop1/"))
	ch, err := s.Watcher().Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Outside the prefix; must not be reported.
	if _, err := client.Put(ctx, "/other/Cart", "x"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Set(ctx, storefront.KeyProducts, []byte(`[]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Remove(ctx, storefront.KeyProducts); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case key := <-ch:
			if key != storefront.KeyProducts {
				t.Errorf("expected %s, got %s", storefront.KeyProducts, key)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for key")
		}
	}
}

func TestWatcher_ClosesOnContextCancel(t *testing.T) {
	client := setupEtcd(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := New(client).Watcher().Watch(ctx)
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
