package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	httpadapter "github.com/couchcryptid/wu-history-viewer/internal/adapter/http"
	"github.com/couchcryptid/wu-history-viewer/internal/adapter/wu"
	"github.com/couchcryptid/wu-history-viewer/internal/domain"
	"github.com/couchcryptid/wu-history-viewer/internal/observability"
	"github.com/couchcryptid/wu-history-viewer/internal/pipeline"
	"github.com/couchcryptid/wu-history-viewer/internal/report"
)

const historyBody = `{"observations":[
 {"obsTimeUtc":"2024-05-01T12:00:00Z","humidityAvg":45,"metric":{"tempAvg":20.5,"pressureMax":1015.2}},
 {"obsTimeUtc":"2024-05-01T12:05:00Z","metric":{"tempAvg":22.1}}
]}`

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockFetcher struct {
	body []byte
	err  error
}

func (m *mockFetcher) FetchHistory(_ context.Context, _, _ string) ([]byte, error) {
	return m.body, m.err
}

// busyLoader always reports a load in flight.
type busyLoader struct{}

func (busyLoader) Load(_ context.Context, _, _ string) (pipeline.Snapshot, error) {
	return pipeline.Snapshot{State: pipeline.StateLoading, Status: pipeline.StatusLoading}, pipeline.ErrLoadInProgress
}

func (busyLoader) Snapshot() pipeline.Snapshot {
	return pipeline.Snapshot{State: pipeline.StateLoading, Status: pipeline.StatusLoading}
}

type testEnv struct {
	srv     *httpadapter.Server
	metrics *observability.Metrics
}

func newTestEnv(f pipeline.Fetcher, readyErr error, loader httpadapter.DashboardLoader) testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	n := domain.NewNormalizer(domain.NewLocalizer(domain.DefaultZone))
	svc := pipeline.NewService(f, n, nil, logger, metrics)
	if loader == nil {
		loader = pipeline.NewLoader(svc, nil, logger, metrics)
	}
	srv := httpadapter.NewServer(":0", httpadapter.Deps{
		Service:     svc,
		Loader:      loader,
		Formatter:   report.NewFormatter(language.English),
		DisplayZone: domain.DefaultZone,
		Ready:       &mockReadiness{err: readyErr},
		Metrics:     metrics,
		Logger:      logger,
	})
	return testEnv{srv: srv, metrics: metrics}
}

func newTestServer(readyErr error) *httpadapter.Server {
	return newTestEnv(&mockFetcher{body: []byte(historyBody)}, readyErr, nil).srv
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(wu.ErrMissingAPIKey), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHistoryProxy_ForwardsBody(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/wu/history?stationId=IMADRI123&date=20240501")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, historyBody, rec.Body.String())
}

func TestHistoryProxy_BadRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing station", "?date=20240501"},
		{"missing date", "?stationId=IMADRI123"},
		{"dashed date", "?stationId=IMADRI123&date=2024-05-01"},
		{"short date", "?stationId=IMADRI123&date=2024051"},
	}
	srv := newTestServer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, "/api/wu/history"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHistoryProxy_MissingAPIKey(t *testing.T) {
	env := newTestEnv(&mockFetcher{err: wu.ErrMissingAPIKey}, nil, nil)
	rec := get(t, env.srv, "/api/wu/history?stationId=IMADRI123&date=20240501")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "WU_API_KEY")
}

func TestHistoryProxy_ForwardsUpstreamStatus(t *testing.T) {
	upstream := &wu.UpstreamError{
		StatusCode:  http.StatusUnauthorized,
		ContentType: "application/json;charset=UTF-8",
		Body:        []byte(`{"errors":[{"error":{"code":"CDN-0001","message":"Invalid apiKey."}}]}`),
	}
	env := newTestEnv(&mockFetcher{err: fmt.Errorf("fetch: %w", upstream)}, nil, nil)
	rec := get(t, env.srv, "/api/wu/history?stationId=IMADRI123&date=20240501")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json;charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, string(upstream.Body), rec.Body.String())
}

func TestHistoryProxy_TransportError(t *testing.T) {
	env := newTestEnv(&mockFetcher{err: errors.New("dial tcp: connection refused")}, nil, nil)
	rec := get(t, env.srv, "/api/wu/history?stationId=IMADRI123&date=20240501")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestObservations_ReturnsNormalizedDay(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/observations?stationId=IMADRI123&date=2024-05-01")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		StationID    string           `json:"stationId"`
		Date         string           `json:"date"`
		Observations []map[string]any `json:"observations"`
		Summary      struct {
			Count   int      `json:"count"`
			MinTemp *float64 `json:"minTemp"`
			MaxTemp *float64 `json:"maxTemp"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "IMADRI123", body.StationID)
	assert.Equal(t, "20240501", body.Date)
	require.Len(t, body.Observations, 2)
	assert.Equal(t, "14:00", body.Observations[0]["whenMadrid"])
	assert.InDelta(t, 1015.2, body.Observations[0]["pres"], 1e-9)
	assert.Nil(t, body.Observations[1]["humidity"])
	assert.Equal(t, 2, body.Summary.Count)
	require.NotNil(t, body.Summary.MinTemp)
	assert.InDelta(t, 20.5, *body.Summary.MinTemp, 1e-9)
	require.NotNil(t, body.Summary.MaxTemp)
	assert.InDelta(t, 22.1, *body.Summary.MaxTemp, 1e-9)
}

func TestObservations_BadDate(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/observations?stationId=IMADRI123&date=20240501")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard_EmptyState(t *testing.T) {
	rec := get(t, newTestServer(nil), "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Time (Europe/Madrid)")
	assert.Contains(t, rec.Body.String(), `<strong id="kpi-count">—</strong>`)
}

func TestDashboard_LoadRendersTable(t *testing.T) {
	rec := get(t, newTestServer(nil), "/?stationId=IMADRI123&date=2024-05-01")
	require.Equal(t, http.StatusOK, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, "Ready (2 records)")
	assert.Contains(t, page, "<td>14:00</td>")
	assert.Contains(t, page, "<td>14:05</td>")
	assert.Contains(t, page, "<td>45</td>")
	assert.Contains(t, page, "<td>1015.2</td>")
	assert.Contains(t, page, `<strong id="kpi-count">2</strong>`)
	assert.Contains(t, page, `<strong id="kpi-min">20.50</strong>`)
	assert.Contains(t, page, `<strong id="kpi-max">22.10</strong>`)
	assert.Contains(t, page, `value="IMADRI123"`)
}

func TestDashboard_LoadFailureKeepsPreviousTable(t *testing.T) {
	f := &mockFetcher{body: []byte(historyBody)}
	env := newTestEnv(f, nil, nil)

	rec := get(t, env.srv, "/?stationId=IMADRI123&date=2024-05-01")
	require.Equal(t, http.StatusOK, rec.Code)

	f.err = errors.New("timeout")
	rec = get(t, env.srv, "/?stationId=IMADRI123&date=2024-05-02")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, pipeline.StatusError)
	assert.Contains(t, page, "<td>14:00</td>")
	assert.NotContains(t, page, "timeout")
}

func TestDashboard_MissingInput(t *testing.T) {
	rec := get(t, newTestServer(nil), "/?stationId=IMADRI123&date=")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), pipeline.StatusSelectInput)
}

func TestDashboard_ConflictWhileLoading(t *testing.T) {
	env := newTestEnv(&mockFetcher{}, nil, busyLoader{})
	rec := get(t, env.srv, "/?stationId=IMADRI123&date=2024-05-01")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "disabled"))
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := get(t, newTestServer(nil), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestsAreCountedByRoute(t *testing.T) {
	env := newTestEnv(&mockFetcher{body: []byte(historyBody)}, nil, nil)
	get(t, env.srv, "/api/wu/history?stationId=IMADRI123&date=20240501")
	get(t, env.srv, "/api/wu/history?stationId=IMADRI123&date=bad")

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues("GET /api/wu/history", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues("GET /api/wu/history", "400")), 0)
}
