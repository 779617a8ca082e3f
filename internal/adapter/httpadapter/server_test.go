package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/adapter/httpadapter"
	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	readyErr error
	summary  *processor.Summary
	err      error
	script   string
	phase    command.Phase
}

func (m *mockRunner) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockRunner) RunScript(_ context.Context, script string, phase command.Phase) (*processor.Summary, error) {
	m.script, m.phase = script, phase
	return m.summary, m.err
}

func newTestServer(r httpadapter.ScriptRunner) *httpadapter.Server {
	return httpadapter.NewServer(":0", r, time.Minute, slog.New(slog.DiscardHandler))
}

func post(srv *httpadapter.Server, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockRunner{readyErr: fmt.Errorf("runner is shutting down")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRun_ReturnsSummary(t *testing.T) {
	m := &mockRunner{summary: &processor.Summary{Phase: "RUN", Severity: command.SeverityWarning, Warnings: 1, Results: []string{"A.X.Flow.Day"}}}
	srv := newTestServer(m)

	rec := post(srv, "/v1/run", `NewTimeSeries(NewTSID="A.X.Flow.Day")`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, command.PhaseRun, m.phase)
	assert.Equal(t, `NewTimeSeries(NewTSID="A.X.Flow.Day")`, m.script)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "WARNING", body["severity"])
	assert.Equal(t, []any{"A.X.Flow.Day"}, body["results"])
}

func TestRun_DiscoveryMode(t *testing.T) {
	m := &mockRunner{summary: &processor.Summary{Phase: "DISCOVERY"}}
	srv := newTestServer(m)

	rec := post(srv, "/v1/run?mode=Discovery", "Exit()")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, command.PhaseDiscovery, m.phase)
}

func TestRun_BadRequests(t *testing.T) {
	srv := newTestServer(&mockRunner{summary: &processor.Summary{}})

	assert.Equal(t, http.StatusBadRequest, post(srv, "/v1/run?mode=fast", "Exit()").Code)
	assert.Equal(t, http.StatusBadRequest, post(srv, "/v1/run", "  \n").Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(srv, "/v1/run", strings.Repeat("#", 2<<20)).Code)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRun_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		summary *processor.Summary
		err     error
		want    int
	}{
		{"threshold", &processor.Summary{Failures: 2}, processor.ErrFailureThreshold, http.StatusUnprocessableEntity},
		{"timeout", &processor.Summary{}, context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"closed", nil, fmt.Errorf("runner is closed"), http.StatusServiceUnavailable},
		{"cancelled", &processor.Summary{}, context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&mockRunner{summary: tt.summary, err: tt.err})
			rec := post(srv, "/v1/run", "Exit()")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRun_WithProcessorRunner(t *testing.T) {
	r := processor.NewRunner(processor.Options{}, 0)
	srv := newTestServer(r)

	rec := post(srv, "/v1/run", "NewTimeSeries(NewTSID=\"A.X.Flow.Day\")\nCopy(Alias=\"b\",TSID=\"A.X.Flow.Day\")\n")

	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Severity string   `json:"severity"`
		Results  []string `json:"results"`
		Commands []struct {
			Name string `json:"name"`
		} `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "SUCCESS", summary.Severity)
	assert.Equal(t, []string{"A.X.Flow.Day", "b"}, summary.Results)
	assert.Len(t, summary.Commands, 2)

	require.NoError(t, r.Close())
	rec = post(srv, "/v1/run", "Exit()")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
