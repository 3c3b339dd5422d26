package storagetest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/sentinelai/sentinel-alerts/internal/storage"
	"github.com/stretchr/testify/require"
)

// NewStore returns a migrated store backed by a private in-memory sqlite database
func NewStore(tb testing.TB) *storage.Store {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := storage.Open("sqlite", dsn, false)
	require.NoError(tb, err)

	store := storage.NewStore(db)
	require.NoError(tb, store.Migrate())

	tb.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
