package chartdb

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "charts.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testChart() *Chart {
	return &Chart{
		Name:     "example",
		BirthUTC: time.Date(1990, 6, 15, 8, 30, 0, 0, time.UTC),
		JDUT:     2448057.854166667,
		Lat:      51.5,
		Lon:      -0.12,
		HouseSys: "P",
		Zodiac:   "tropical",
		Bodies: []BodyEntry{
			{Body: 0, Name: "Sun", Lon: 84.1, Dist: 1.015, Slon: 0.955},
			{Body: 1, Name: "Moon", Lon: 310.2, Lat: -3.1, Dist: 0.00261, Slon: 12.8},
		},
		Cusps:  []float64{0, 123.4, 150.1, 178.9, 210.0, 243.2, 276.0, 303.4, 330.1, 358.9, 30.0, 63.2, 96.0},
		Angles: Angles{Asc: 123.4, MC: 30.0, ARMC: 28.2, Vtx: 250.1},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, testChart())
	require.NoError(t, err)
	require.Len(t, id, 26, "ULID ids are 26 characters")

	got, err := s.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "example", got.Name)
	assert.Equal(t, "P", got.HouseSys)
	assert.True(t, got.BirthUTC.Equal(time.Date(1990, 6, 15, 8, 30, 0, 0, time.UTC)))
	assert.InDelta(t, 2448057.854166667, got.JDUT, 1e-9)
	require.Len(t, got.Bodies, 2)
	assert.Equal(t, "Moon", got.Bodies[1].Name)
	assert.InDelta(t, 310.2, got.Bodies[1].Lon, 1e-12)
	require.Len(t, got.Cusps, 13)
	assert.InDelta(t, 123.4, got.Angles.Asc, 1e-12)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.Get(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		ch := testChart()
		ch.Name = string(rune('a' + i))
		id, err := s.Save(ctx, ch)
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond) // distinct created_at
	}

	charts, err := s.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, charts, 3)
	assert.Equal(t, ids[2], charts[0].ID, "newest chart first")
	assert.Equal(t, ids[0], charts[2].ID)

	// Pagination.
	page, err := s.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, testChart())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = s.Save(ctx, testChart())
	require.NoError(t, err)

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMigrationIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "charts.db")

	s1, err := Open(path, logger)
	require.NoError(t, err)
	id, err := s1.Save(context.Background(), testChart())
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Reopening must not recreate or wipe the schema.
	s2, err := Open(path, logger)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "example", got.Name)
}
