package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/storefront"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, ok, err := s.Get(ctx, storefront.KeyAuthUser)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, storefront.KeyAuthUser, []byte(`{"id":1}`)))
	require.NoError(t, s.Set(ctx, storefront.KeyAuthUser, []byte(`{"id":2}`)))

	v, ok, err := s.Get(ctx, storefront.KeyAuthUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":2}`, string(v))

	require.NoError(t, s.Remove(ctx, storefront.KeyAuthUser))
	_, ok, err = s.Get(ctx, storefront.KeyAuthUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_Keys(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Set(ctx, storefront.KeyUsers, []byte(`[]`)))
	require.NoError(t, s.Set(ctx, storefront.KeyCart, []byte(`[]`)))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{storefront.KeyCart, storefront.KeyUsers}, keys)
}

func TestStorage_TypedHelpers(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, storefront.Save(ctx, s, storefront.JSONCodec{}, storefront.KeyEvents, []int{1, 2}))
	got, ok, err := storefront.Load[[]int](ctx, s, storefront.JSONCodec{}, storefront.KeyEvents)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, got)
}
