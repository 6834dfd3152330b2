package storefront

import "testing"

func TestSignalNames(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{HolderStateChanged.Name(), "storefront.holder.state.changed"},
		{HolderFailed.Name(), "storefront.holder.failed"},
		{HolderStaleDropped.Name(), "storefront.holder.stale.dropped"},
		{StoreRefreshStarted.Name(), "storefront.store.refresh.started"},
		{StoreRefreshSucceeded.Name(), "storefront.store.refresh.succeeded"},
		{StoreFetchAttemptFailed.Name(), "storefront.store.fetch.attempt.failed"},
		{StoreMutationFailed.Name(), "storefront.store.mutation.failed"},
		{ErrorReported.Name(), "storefront.error.reported"},
		{AlertRaised.Name(), "storefront.alert.raised"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected name %q, got %q", tt.want, tt.got)
		}
	}
}
