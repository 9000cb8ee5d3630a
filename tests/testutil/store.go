package testutil

import (
	"testing"

	"github.com/pradeeshk/bus-tracker/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations
// applied and the default retention limit. It automatically closes the
// store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	return NewTestStoreWithLimit(t, store.DefaultRetentionLimit)
}

// NewTestStoreWithLimit is NewTestStore with an explicit retention
// limit, for trimming tests that want a small window.
func NewTestStoreWithLimit(t *testing.T, limit int) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", limit)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
