package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/timekeeper/pkg/api"
	"github.com/psantana5/timekeeper/pkg/auth"
	"github.com/psantana5/timekeeper/pkg/logging"
	"github.com/psantana5/timekeeper/pkg/metrics"
	"github.com/psantana5/timekeeper/pkg/ratelimit"
	"github.com/psantana5/timekeeper/pkg/report"
	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

func newTestServer(t *testing.T, opts api.RouterOptions) (*httptest.Server, *timekeeper.Timekeeper) {
	t.Helper()

	tk := timekeeper.New("api", timekeeper.WithClock(clockwork.NewFakeClock()))
	router := api.NewRouter(api.NewHandler(tk, logging.Discard()), opts)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, tk
}

func do(t *testing.T, method, url, apiKey string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestTimingLifecycle(t *testing.T) {
	srv, tk := newTestServer(t, api.RouterOptions{})

	resp := do(t, http.MethodPost, srv.URL+"/timings/render/start", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[report.Summary](t, resp)
	assert.Equal(t, "render", started.Name)
	assert.Equal(t, "running", started.State)

	resp = do(t, http.MethodPost, srv.URL+"/timings/render/lap", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lapped := decode[report.Summary](t, resp)
	assert.Len(t, lapped.Laps, 1)
	assert.Equal(t, started.ID, lapped.ID)

	resp = do(t, http.MethodGet, srv.URL+"/timings/render", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, started.ID, decode[report.Summary](t, resp).ID)

	resp = do(t, http.MethodPost, srv.URL+"/timings/render/stop", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stopped := decode[report.Summary](t, resp)
	assert.Equal(t, "stopped", stopped.State)
	require.NotNil(t, stopped.Total)
	assert.Len(t, stopped.LapTimes, 2)
	assert.Equal(t, 0, tk.Len())
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t, api.RouterOptions{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/timings/missing"},
		{http.MethodPost, "/timings/missing/lap"},
		{http.MethodPost, "/timings/missing/stop"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := do(t, tc.method, srv.URL+tc.path, "")
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)

			body := decode[api.ErrorResponse](t, resp)
			assert.Equal(t, timekeeper.ErrTimingNotFound.Error(), body.Error)
			assert.Equal(t, "missing", body.Name)
		})
	}
}

func TestListStopAllAndClear(t *testing.T) {
	srv, tk := newTestServer(t, api.RouterOptions{})
	tk.Start("b")
	tk.Start("a")

	resp := do(t, http.MethodGet, srv.URL+"/timings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[api.ListResponse](t, resp)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "a", list.Timings[0].Name)
	assert.Equal(t, "b", list.Timings[1].Name)

	resp = do(t, http.MethodPost, srv.URL+"/timings/stop-all", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stopped := decode[api.ListResponse](t, resp)
	require.Equal(t, 2, stopped.Count)
	assert.Equal(t, "a", stopped.Timings[0].Name)
	// one shared end instant
	assert.Equal(t, *stopped.Timings[0].End, *stopped.Timings[1].End)
	assert.Equal(t, 0, tk.Len())

	tk.Start("c")
	resp = do(t, http.MethodDelete, srv.URL+"/timings", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, tk.Len())
}

func TestHealth(t *testing.T) {
	srv, tk := newTestServer(t, api.RouterOptions{})
	tk.Start("a")

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[api.HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "api", health.Label)
	assert.Equal(t, 1, health.Running)
	assert.Positive(t, health.System.CPUCount)
}

func TestAuthentication(t *testing.T) {
	hash, err := auth.HashAPIKey("secret")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	srv, _ := newTestServer(t, api.RouterOptions{
		Authenticator: auth.NewAuthenticator(hash),
		Metrics:       metrics.Handler(reg),
		MetricsPath:   "/metrics",
	})

	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, srv.URL+"/timings", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, srv.URL+"/timings", "wrong").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/timings", "secret").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/health", "").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/metrics", "").StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	exporter := metrics.NewExporter(reg, "api")

	tk := timekeeper.New("api", timekeeper.WithObserver(exporter))
	router := api.NewRouter(api.NewHandler(tk, logging.Discard()), api.RouterOptions{
		Metrics:     metrics.Handler(reg),
		MetricsPath: "/custom-metrics",
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	do(t, http.MethodPost, srv.URL+"/timings/render/start", "")

	resp := do(t, http.MethodGet, srv.URL+"/custom-metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `timekeeper_timings_started_total{name="render",timekeeper="api"} 1`))
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, api.RouterOptions{Limiter: ratelimit.NewLimiter(0.001, 2)})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, http.MethodGet, srv.URL+"/timings", "").StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
