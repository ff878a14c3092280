package report

import (
	"time"

	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

// Summary is the serializable view of a timing and its statistics.
// Durations are in seconds; statistics that are undefined are omitted.
type Summary struct {
	ID        string      `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	State     string      `json:"state" yaml:"state"`
	Start     time.Time   `json:"start" yaml:"start"`
	End       *time.Time  `json:"end,omitempty" yaml:"end,omitempty"`
	Laps      []time.Time `json:"laps,omitempty" yaml:"laps,omitempty"`
	LapTimes  []float64   `json:"lap_times" yaml:"lap_times"`
	Total     *float64    `json:"total_seconds,omitempty" yaml:"total_seconds,omitempty"`
	Average   *float64    `json:"average_seconds,omitempty" yaml:"average_seconds,omitempty"`
	Median    *float64    `json:"median_seconds,omitempty" yaml:"median_seconds,omitempty"`
	Variance  *float64    `json:"variance_seconds2,omitempty" yaml:"variance_seconds2,omitempty"`
	StdDev    *float64    `json:"stddev_seconds,omitempty" yaml:"stddev_seconds,omitempty"`
	Formatted string      `json:"formatted" yaml:"formatted"`
}

// Summarize builds the Summary of t
func Summarize(t timekeeper.Timing) Summary {
	s := Summary{
		ID:        t.ID().String(),
		Name:      t.Name(),
		State:     t.State().String(),
		Start:     t.Start(),
		Laps:      t.Laps(),
		Formatted: t.String(),
	}

	if end, ok := t.End(); ok {
		s.End = &end
	}

	lapTimes := t.LapTimes()
	s.LapTimes = make([]float64, len(lapTimes))
	for i, lt := range lapTimes {
		s.LapTimes[i] = lt.Seconds()
	}

	s.Total = seconds(t.TotalDuration())
	s.Average = seconds(t.LapTimeAverage())
	s.Median = seconds(t.LapTimeMedian())
	s.StdDev = seconds(t.LapTimeStandardDeviation())
	if v, ok := t.LapTimeVariance(); ok {
		s.Variance = &v
	}

	return s
}

// SummarizeAll summarizes every timing, keeping their order
func SummarizeAll(timings []timekeeper.Timing) []Summary {
	summaries := make([]Summary, 0, len(timings))
	for _, t := range timings {
		summaries = append(summaries, Summarize(t))
	}
	return summaries
}

func seconds(d time.Duration, ok bool) *float64 {
	if !ok {
		return nil
	}
	s := d.Seconds()
	return &s
}
