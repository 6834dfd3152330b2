package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/zoobzio/storefront"
	"github.com/zoobzio/storefront/stores"
)

func BenchmarkHolder_Transitions(b *testing.B) {
	ctx := context.Background()
	h := storefront.NewHolder[int]("bench")

	b.ResetTimer()
	for i := range b.N {
		gen := h.Begin(ctx)
		h.Resolve(ctx, gen, storefront.Payload[int]{Data: i})
	}
}

func BenchmarkHolder_Read(b *testing.B) {
	ctx := context.Background()
	h := storefront.NewHolder[int]("bench")
	h.SetData(ctx, storefront.Payload[int]{Data: 1})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = h.Data()
			_ = h.IsLoading()
		}
	})
}

func BenchmarkStore_Refresh(b *testing.B) {
	ctx := context.Background()
	storage := storefront.NewMemoryStorage()
	for _, size := range []int{1, 100, 1000} {
		users := make([]stores.User, size)
		for i := range users {
			users[i] = stores.User{ID: i + 1, UserName: fmt.Sprintf("user%d", i)}
		}
		if err := storefront.Save(ctx, storage, storefront.JSONCodec{}, storefront.KeyUsers, users); err != nil {
			b.Fatal(err)
		}
		s := stores.NewUserStore(stores.Deps{Storage: storage, Fetcher: storefront.NoFaults()})
		s.Login(ctx, "user0")

		b.Run(fmt.Sprintf("users=%d", size), func(b *testing.B) {
			for range b.N {
				s.Refresh(ctx)
			}
		})
	}
}

func BenchmarkUserStore_Login(b *testing.B) {
	ctx := context.Background()
	s := stores.NewUserStore(stores.Deps{Fetcher: storefront.NoFaults()})

	b.ResetTimer()
	for i := range b.N {
		s.Login(ctx, fmt.Sprintf("user%d", i%50))
	}
}
