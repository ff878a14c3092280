package tracing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

// SpanObserver records every timing as a span that starts at the timing's
// start instant and ends at its end instant, with one event per lap.
//
// Laps are added when the timing stops, so a discarded timing carries none.
// A stop notification that overtakes the start notification produces the
// complete span and the late start is ignored.
type SpanObserver struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[uuid.UUID]trace.Span
	ended map[uuid.UUID]struct{}
}

// NewSpanObserver creates an observer that starts spans on provider
func NewSpanObserver(provider *Provider) *SpanObserver {
	return &SpanObserver{
		tracer: provider.Tracer(),
		spans:  make(map[uuid.UUID]trace.Span),
		ended:  make(map[uuid.UUID]struct{}),
	}
}

func (o *SpanObserver) TimingStarted(t timekeeper.Timing) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.ended[t.ID()]; ok {
		delete(o.ended, t.ID())
		return
	}
	o.spans[t.ID()] = o.startSpan(t)
}

func (o *SpanObserver) TimingLapped(timekeeper.Timing) {}

func (o *SpanObserver) TimingStopped(t timekeeper.Timing) {
	span := o.take(t)

	lapTimes := t.LapTimes()
	for i, lap := range t.Laps() {
		span.AddEvent("lap", trace.WithTimestamp(lap), trace.WithAttributes(
			attribute.Int("timing.lap", i+1),
			attribute.Float64("timing.lap_seconds", lapTimes[i].Seconds()),
		))
	}

	total, _ := t.TotalDuration()
	attrs := []attribute.KeyValue{
		attribute.Int("timing.laps", len(t.Laps())),
		attribute.Float64("timing.total_seconds", total.Seconds()),
	}
	if avg, ok := t.LapTimeAverage(); ok {
		attrs = append(attrs, attribute.Float64("timing.average_seconds", avg.Seconds()))
	}
	if median, ok := t.LapTimeMedian(); ok {
		attrs = append(attrs, attribute.Float64("timing.median_seconds", median.Seconds()))
	}
	span.SetAttributes(attrs...)

	end, _ := t.End()
	span.End(trace.WithTimestamp(end))
}

func (o *SpanObserver) TimingDiscarded(t timekeeper.Timing) {
	span := o.take(t)
	span.SetAttributes(
		attribute.Bool("timing.discarded", true),
		attribute.Int("timing.laps", len(t.Laps())),
	)
	span.End()
}

// take removes and returns the span of t. Without one, a span is started
// retroactively and the pending start notification is marked to be skipped.
func (o *SpanObserver) take(t timekeeper.Timing) trace.Span {
	o.mu.Lock()
	defer o.mu.Unlock()

	span, ok := o.spans[t.ID()]
	if ok {
		delete(o.spans, t.ID())
		return span
	}
	o.ended[t.ID()] = struct{}{}
	return o.startSpan(t)
}

func (o *SpanObserver) startSpan(t timekeeper.Timing) trace.Span {
	_, span := o.tracer.Start(context.Background(), "timing "+t.Name(),
		trace.WithTimestamp(t.Start()),
		trace.WithAttributes(
			attribute.String("timing.id", t.ID().String()),
			attribute.String("timing.name", t.Name()),
		),
	)
	return span
}
