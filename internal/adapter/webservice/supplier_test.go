package webservice

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/adapter/waterml"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowDocument = `<?xml version="1.0" encoding="UTF-8"?>
<timeSeriesResponse xmlns="http://www.cuahsi.org/waterML/1.1/">
  <timeSeries>
    <sourceInfo>
      <siteName>Test Site</siteName>
      <siteCode agencyCode="USGS">LOC1</siteCode>
    </sourceInfo>
    <variable>
      <variableCode>FLOW</variableCode>
      <unit><unitCode>CFS</unitCode></unit>
      <noDataValue>-999999</noDataValue>
    </variable>
    <values>
      <value dateTime="2024-01-01T00:00:00Z">100</value>
      <value dateTime="2024-01-02T00:00:00Z">-999999</value>
      <value dateTime="2024-01-03T00:00:00Z">200</value>
    </values>
  </timeSeries>
</timeSeriesResponse>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSupplier(t *testing.T, handler http.HandlerFunc) (*Supplier, *observability.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	metrics := observability.NewMetricsForTesting()
	dec := waterml.NewDecoder(discardLogger(), metrics)
	s := New(Options{BaseURL: srv.URL + "/", Timeout: 5 * time.Second, RateLimit: 100, CacheSize: 10}, dec, metrics, discardLogger())
	return s, metrics
}

func TestSupplier_ReadTimeSeries(t *testing.T) {
	var gotQuery map[string]string
	s, metrics := newTestSupplier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GetValues", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"location":  q.Get("location"),
			"variable":  q.Get("variable"),
			"startDate": q.Get("startDate"),
			"endDate":   q.Get("endDate"),
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = io.WriteString(w, flowDocument)
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	series, err := s.ReadTimeSeries(context.Background(), domain.SupplierQuery{
		Location: "LOC1",
		DataType: "FLOW",
		Interval: "Day",
		Start:    &start,
		End:      &end,
		ReadData: true,
	})
	require.NoError(t, err)
	require.Len(t, series, 1)

	assert.Equal(t, map[string]string{
		"location":  "LOC1",
		"variable":  "FLOW",
		"startDate": "2024-01-01T00:00:00",
		"endDate":   "2024-01-03T00:00:00",
	}, gotQuery)
	assert.Equal(t, "LOC1.USGS.FLOW.Day", series[0].ID.String())
	require.Len(t, series[0].Points, 3)
	assert.True(t, series[0].IsMissing(series[0].Points[1].Value))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.WebServiceRequests.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.WebServiceEnabled), 0)
}

func TestSupplier_ConvertsUnits(t *testing.T) {
	s, _ := newTestSupplier(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, flowDocument)
	})
	series, err := s.ReadTimeSeries(context.Background(), domain.SupplierQuery{
		Location: "LOC1", DataType: "FLOW", Units: "CMS", ReadData: true,
	})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "CMS", series[0].Units)
	assert.InDelta(t, 2.8316846592, series[0].Points[0].Value, 1e-9)
	assert.True(t, series[0].IsMissing(series[0].Points[1].Value))
}

func TestSupplier_IncompatibleUnits(t *testing.T) {
	s, _ := newTestSupplier(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, flowDocument)
	})
	_, err := s.ReadTimeSeries(context.Background(), domain.SupplierQuery{
		Location: "LOC1", DataType: "FLOW", Units: "DEGC", ReadData: true,
	})
	assert.ErrorIs(t, err, domain.ErrIncompatibleUnits)
}

func TestSupplier_CachesDocuments(t *testing.T) {
	calls := 0
	s, _ := newTestSupplier(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = io.WriteString(w, flowDocument)
	})
	q := domain.SupplierQuery{Location: "LOC1", DataType: "FLOW", ReadData: true}
	_, err := s.ReadTimeSeries(context.Background(), q)
	require.NoError(t, err)
	_, err = s.ReadTimeSeries(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSupplier_HTTPError(t *testing.T) {
	s, metrics := newTestSupplier(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unknown site", http.StatusNotFound)
	})
	_, err := s.ReadTimeSeries(context.Background(), domain.SupplierQuery{Location: "X", DataType: "FLOW"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.WebServiceRequests.WithLabelValues("error")), 0)
}

func TestSupplier_EmptyDocument(t *testing.T) {
	s, _ := newTestSupplier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	series, err := s.ReadTimeSeries(context.Background(), domain.SupplierQuery{Location: "X", DataType: "FLOW"})
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestSupplier_UnrecognizedFormat(t *testing.T) {
	s, _ := newTestSupplier(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html xmlns="http://www.w3.org/1999/xhtml"><body>maintenance</body></html>`)
	})
	_, err := s.ReadTimeSeries(context.Background(), domain.SupplierQuery{Location: "X", DataType: "FLOW"})
	assert.ErrorIs(t, err, domain.ErrUnrecognizedFormat)
}

func TestSupplier_RequiresLocationAndVariable(t *testing.T) {
	s, _ := newTestSupplier(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := s.ReadTimeSeries(context.Background(), domain.SupplierQuery{Location: "X"})
	assert.Error(t, err)
}

func TestClient_ContextCanceled(t *testing.T) {
	c := NewClient(time.Second, 1, observability.NewMetricsForTesting(), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, "http://127.0.0.1:1/GetValues")
	assert.Error(t, err)
}
