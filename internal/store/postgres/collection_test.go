package postgres_test

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/store/postgres"
)

// newStore connects to the database named by DOPALIST_TEST_DSN and skips the
// test when it is unset.
func newStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DOPALIST_TEST_DSN")
	if dsn == "" {
		t.Skip("DOPALIST_TEST_DSN not set")
	}

	store, err := postgres.New(t.Context(), dsn, 2)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Migrate(t.Context()))
	return store
}

func TestCollectionRepo_GetMissing(t *testing.T) {
	t.Parallel()

	repo := newStore(t).Collections()

	_, err := repo.Get(t.Context(), "missing_"+uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionRepo_SetOverwrites(t *testing.T) {
	t.Parallel()

	repo := newStore(t).Collections()
	key := "test_" + uuid.NewString()

	require.NoError(t, repo.Set(t.Context(), key, []byte(`[{"id":"a"}]`)))
	require.NoError(t, repo.Set(t.Context(), key, []byte(`[{"id":"b"}]`)))

	got, err := repo.Get(t.Context(), key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, string(got))
}

func TestMigrate_IsIdempotent(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	assert.NoError(t, store.Migrate(t.Context()))
}
