package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

func newTestExporter(t *testing.T) (*Exporter, *prometheus.Registry, *timekeeper.Timekeeper, clockwork.FakeClock) {
	t.Helper()

	reg := prometheus.NewRegistry()
	exporter := NewExporter(reg, "test")
	clock := clockwork.NewFakeClock()
	tk := timekeeper.New("test", timekeeper.WithClock(clock), timekeeper.WithObserver(exporter))
	return exporter, reg, tk, clock
}

func TestExporterCountsLifecycle(t *testing.T) {
	e, _, tk, clock := newTestExporter(t)

	tk.Start("a")
	tk.Start("b")
	clock.Advance(time.Second)
	tk.Lap("a")
	tk.Lap("a")
	tk.Stop("a")
	tk.Start("b")
	tk.Clear()

	assert.Equal(t, 1.0, testutil.ToFloat64(e.started.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.started.WithLabelValues("b")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.lapped.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.stopped.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.discarded.WithLabelValues("b")))
	assert.Equal(t, 0.0, testutil.ToFloat64(e.running))
}

func TestExporterObservesDurations(t *testing.T) {
	_, reg, tk, clock := newTestExporter(t)

	tk.Start("a")
	clock.Advance(2 * time.Second)
	tk.Lap("a")
	clock.Advance(time.Second)
	tk.Stop("a")

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]uint64{}
	sums := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if h := m.GetHistogram(); h != nil {
				counts[mf.GetName()] = h.GetSampleCount()
				sums[mf.GetName()] = h.GetSampleSum()
			}
		}
	}

	assert.Equal(t, uint64(2), counts["timekeeper_lap_duration_seconds"])
	assert.Equal(t, 3.0, sums["timekeeper_lap_duration_seconds"])
	assert.Equal(t, uint64(1), counts["timekeeper_timing_duration_seconds"])
	assert.Equal(t, 3.0, sums["timekeeper_timing_duration_seconds"])
}

func TestExporterRunningGauge(t *testing.T) {
	e, _, tk, _ := newTestExporter(t)

	tk.Start("a")
	tk.Start("b")
	tk.Start("c")
	assert.Equal(t, 3.0, testutil.ToFloat64(e.running))

	tk.StopAll()
	assert.Equal(t, 0.0, testutil.ToFloat64(e.running))
}

func TestHandler(t *testing.T) {
	_, reg, tk, _ := newTestExporter(t)
	tk.Start("served")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `timekeeper_timings_started_total{name="served",timekeeper="test"} 1`)
}
