package prometheus

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/storefront"
)

func TestProvider_RecordsRefreshes(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	p, err := New(reg)
	require.NoError(t, err)

	fetcher := storefront.NoFaults()
	s := storefront.NewStore("nums", func(context.Context) (int, error) { return 1, nil }, fetcher, nil).Metrics(p)

	s.Refresh(ctx)
	fetcher.FailureRate(1)
	s.Refresh(ctx)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.refreshes.WithLabelValues("nums", "success", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.refreshes.WithLabelValues("nums", "failure", "fetch")))
	assert.Equal(t, float64(storefront.StateError), testutil.ToFloat64(p.state.WithLabelValues("nums")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.transitions.WithLabelValues("nums", "filled", "loading"))+
		testutil.ToFloat64(p.transitions.WithLabelValues("nums", "empty", "loading")))
}

func TestProvider_StaleDropped(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	p, err := New(reg)
	require.NoError(t, err)

	h := storefront.NewHolder[int]("h").Metrics(p)
	first := h.Begin(ctx)
	h.Begin(ctx)
	h.Resolve(ctx, first, storefront.Payload[int]{Data: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(p.stale.WithLabelValues("h")))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := New(reg)
	require.NoError(t, err)
	p.OnStaleDropped("users")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `storefront_store_stale_results_total{holder="users"} 1`))
}
