package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	store, err := New(context.Background(), "Cache", &redis.Options{Addr: mr.Addr()}, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func newSeries(id string, n int) *domain.TimeSeries {
	ts := domain.NewTimeSeries(domain.MustParseTSID(id))
	points := make([]domain.Point, n)
	for i := range points {
		points[i] = domain.Point{Time: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC), Value: float64(i)}
	}
	ts.SetPoints(points)
	return ts
}

func TestNew_PingFails(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), "Cache", &redis.Options{Addr: addr}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping")
}

func TestStore_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestStore(t)

	series := []*domain.TimeSeries{
		newSeries("LOC1.USGS.Streamflow.Day", 3),
		newSeries("LOC2.USGS.Streamflow.Day", 2),
	}
	require.NoError(t, store.WriteTimeSeries(ctx, series))

	assert.True(t, mr.Exists("tsproc:ts:loc1.usgs.streamflow.day"))
	members, err := mr.SMembers("tsproc:ts:index")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"loc1.usgs.streamflow.day", "loc2.usgs.streamflow.day"}, members)

	got, err := store.ReadTimeSeries(ctx, "*.USGS.Streamflow.Day", domain.Period{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "LOC1", got[0].ID.Location)
	assert.Len(t, got[0].Points, 3)

	got, err = store.ReadTimeSeries(ctx, "LOC2.USGS.Streamflow.Day", domain.Period{})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestStore_ReadEmpty(t *testing.T) {
	store, _ := setupTestStore(t)
	got, err := store.ReadTimeSeries(context.Background(), "*", domain.Period{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_SkipsKeysDeletedOutOfBand(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestStore(t)
	require.NoError(t, store.WriteTimeSeries(ctx, []*domain.TimeSeries{
		newSeries("A.X.Flow.Day", 1),
		newSeries("B.X.Flow.Day", 1),
	}))
	mr.Del("tsproc:ts:a.x.flow.day")

	got, err := store.ReadTimeSeries(ctx, "*", domain.Period{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].ID.Location)
}

func TestStore_Namespace(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := New(context.Background(), "Cache", &redis.Options{Addr: mr.Addr()}, "hydro")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.WriteTimeSeries(context.Background(), []*domain.TimeSeries{newSeries("A.X.Flow.Day", 1)}))
	assert.True(t, mr.Exists("hydro:ts:a.x.flow.day"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(redis.Nil))
	assert.False(t, IsNotFound(assert.AnError))
}
