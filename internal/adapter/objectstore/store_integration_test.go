//go:build integration

package objectstore

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startMinIO(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "tsproc",
			"MINIO_ROOT_PASSWORD": "tsproc-secret",
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("terminate minio container: %v", err)
		}
	})
	endpoint, err := c.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err)
	return endpoint
}

func TestStore_RoundTrip(t *testing.T) {
	endpoint := startMinIO(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := New(ctx, "Archive", Options{
		Endpoint:  endpoint,
		Bucket:    "hydro",
		Prefix:    "series",
		AccessKey: "tsproc",
		SecretKey: "tsproc-secret",
	})
	require.NoError(t, err)

	a := domain.NewTimeSeries(domain.MustParseTSID("LOC1.USGS.Streamflow.Day"))
	a.SetPoints([]domain.Point{{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 3}})
	b := domain.NewTimeSeries(domain.MustParseTSID("LOC1.USGS.Stage.Day"))
	require.NoError(t, store.WriteTimeSeries(ctx, []*domain.TimeSeries{a, b}))

	got, err := store.ReadTimeSeries(ctx, "LOC1.USGS.Streamflow.Day", domain.Period{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Points, 1)

	got, err = store.ReadTimeSeries(ctx, "LOC1.*.*.Day", domain.Period{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
