// Package metrics exports timing lifecycle events as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

// Exporter is a timekeeper.Observer that counts starts, laps, stops and
// discards per timing name and records lap and total durations
type Exporter struct {
	timekeeper.NopObserver

	started   *prometheus.CounterVec
	lapped    *prometheus.CounterVec
	stopped   *prometheus.CounterVec
	discarded *prometheus.CounterVec
	running   prometheus.Gauge
	lapTime   *prometheus.HistogramVec
	total     *prometheus.HistogramVec
}

// NewExporter creates an exporter whose metrics carry the constant label
// timekeeper=label and registers them with reg
func NewExporter(reg prometheus.Registerer, label string) *Exporter {
	constLabels := prometheus.Labels{"timekeeper": label}

	e := &Exporter{
		started: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "timekeeper_timings_started_total",
				Help:        "Total number of timings started",
				ConstLabels: constLabels,
			},
			[]string{"name"},
		),
		lapped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "timekeeper_laps_total",
				Help:        "Total number of laps recorded",
				ConstLabels: constLabels,
			},
			[]string{"name"},
		),
		stopped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "timekeeper_timings_stopped_total",
				Help:        "Total number of timings stopped",
				ConstLabels: constLabels,
			},
			[]string{"name"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "timekeeper_timings_discarded_total",
				Help:        "Total number of running timings dropped by clear or restart",
				ConstLabels: constLabels,
			},
			[]string{"name"},
		),
		running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "timekeeper_timings_running",
				Help:        "Number of timings currently running",
				ConstLabels: constLabels,
			},
		),
		lapTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "timekeeper_lap_duration_seconds",
				Help:        "Lap times of stopped timings in seconds",
				Buckets:     prometheus.ExponentialBuckets(0.001, 4, 10),
				ConstLabels: constLabels,
			},
			[]string{"name"},
		),
		total: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "timekeeper_timing_duration_seconds",
				Help:        "Total duration of stopped timings in seconds",
				Buckets:     prometheus.ExponentialBuckets(0.001, 4, 10),
				ConstLabels: constLabels,
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		e.started,
		e.lapped,
		e.stopped,
		e.discarded,
		e.running,
		e.lapTime,
		e.total,
	)

	return e
}

func (e *Exporter) TimingStarted(t timekeeper.Timing) {
	e.started.WithLabelValues(t.Name()).Inc()
	e.running.Inc()
}

func (e *Exporter) TimingLapped(t timekeeper.Timing) {
	e.lapped.WithLabelValues(t.Name()).Inc()
}

// TimingStopped observes every lap time of t, including the final one
// between the last lap and the end
func (e *Exporter) TimingStopped(t timekeeper.Timing) {
	e.stopped.WithLabelValues(t.Name()).Inc()
	e.running.Dec()

	lapTime := e.lapTime.WithLabelValues(t.Name())
	for _, d := range t.LapTimes() {
		lapTime.Observe(d.Seconds())
	}
	if total, ok := t.TotalDuration(); ok {
		e.total.WithLabelValues(t.Name()).Observe(total.Seconds())
	}
}

func (e *Exporter) TimingDiscarded(t timekeeper.Timing) {
	e.discarded.WithLabelValues(t.Name()).Inc()
	e.running.Dec()
}

// Handler serves the metrics gathered by g in the Prometheus exposition format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
