// Package test provides store test helpers backed by a throwaway SQLite
// database.
package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/triageai/voicetriage/internal/profile"
	"github.com/triageai/voicetriage/store"
	"github.com/triageai/voicetriage/store/db"
)

// NewTestingStore creates a store over a fresh SQLite database under the
// test's temp dir and applies the schema.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:   "demo",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "voicetriage_test.db"),
	}

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	ts := store.New(driver, p)
	require.NoError(t, ts.Migrate(ctx))
	t.Cleanup(func() {
		require.NoError(t, ts.Close())
	})
	return ts
}
