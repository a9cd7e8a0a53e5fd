package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/repo"
	"github.com/pkordes/eld-planner/testutil"
)

// newTestRepo returns a GeocodeRepo inside a transaction that is rolled back
// when the test finishes.
func newTestRepo(t *testing.T) repo.GeocodeRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	return repo.NewGeocodeRepo(tx)
}

func TestGeocodeRepo_PutThenGet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	want := domain.Coordinate{Lng: -96.797, Lat: 32.7767}
	require.NoError(t, r.Put(ctx, "dallas, tx", want))

	got, err := r.Get(ctx, "dallas, tx")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGeocodeRepo_PutOverwrites(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "amarillo", domain.Coordinate{Lng: 1, Lat: 1}))
	require.NoError(t, r.Put(ctx, "amarillo", domain.Coordinate{Lng: -101.8313, Lat: 35.222}))

	got, err := r.Get(ctx, "amarillo")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Lng: -101.8313, Lat: 35.222}, got)
}

func TestGeocodeRepo_GetMissing(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.Get(context.Background(), "nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGeocodeRepo_PutEmptyQuery(t *testing.T) {
	r := newTestRepo(t)

	err := r.Put(context.Background(), "", domain.Coordinate{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
