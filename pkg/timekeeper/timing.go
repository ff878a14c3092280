package timekeeper

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State represents the lifecycle state of a timing
type State int

const (
	// Running timings have no end time and accept laps
	Running State = iota
	// Stopped timings have an end time and accept no further changes
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Timing is one named measurement: a start instant, an optional end
// instant and the lap instants recorded in between.
//
// Timings are values. The registry hands out copies, so a Timing obtained
// from it never changes afterwards.
type Timing struct {
	id    uuid.UUID
	name  string
	start time.Time
	end   time.Time
	laps  []time.Time
	// stopped marks end as set; the zero instant is a valid end
	stopped bool
}

func newTiming(name string, now time.Time) Timing {
	return Timing{
		id:    uuid.New(),
		name:  name,
		start: now,
	}
}

// ID returns the unique identifier assigned when the timing was started
func (t Timing) ID() uuid.UUID {
	return t.id
}

// Name returns the name of the timing
func (t Timing) Name() string {
	return t.name
}

// Start returns the instant the timing was started
func (t Timing) Start() time.Time {
	return t.start
}

// End returns the instant the timing was stopped.
// The boolean is false while the timing is running.
func (t Timing) End() (time.Time, bool) {
	return t.end, t.stopped
}

// Laps returns the absolute lap instants in the order they were recorded.
// Use LapTimes for the deltas between them.
func (t Timing) Laps() []time.Time {
	if len(t.laps) == 0 {
		return nil
	}
	laps := make([]time.Time, len(t.laps))
	copy(laps, t.laps)
	return laps
}

// State returns Stopped once an end time is set, Running otherwise
func (t Timing) State() State {
	if t.stopped {
		return Stopped
	}
	return Running
}

// lap appends now to the laps. Only valid while running.
func (t *Timing) lap(now time.Time) {
	t.laps = append(t.laps, now)
}

// stop sets the end time. Only valid once.
func (t *Timing) stop(now time.Time) {
	t.end = now
	t.stopped = true
}

func (t Timing) clone() Timing {
	t.laps = t.Laps()
	return t
}

// TotalDuration returns end minus start.
// The boolean is false while the timing is running.
func (t Timing) TotalDuration() (time.Duration, bool) {
	if !t.stopped {
		return 0, false
	}
	return t.end.Sub(t.start), true
}

// LapTimes returns the deltas between all consecutive measurement points:
// start, every lap and, once stopped, the end.
//
// A running timing with n laps has n lap times, a stopped one n+1. A
// stopped timing without laps therefore has exactly one lap time.
func (t Timing) LapTimes() []time.Duration {
	points := t.laps
	if t.stopped {
		points = append(t.Laps(), t.end)
	}

	lapTimes := make([]time.Duration, 0, len(points))
	previous := t.start
	for _, point := range points {
		lapTimes = append(lapTimes, point.Sub(previous))
		previous = point
	}
	return lapTimes
}

// String renders "[name]", the latest lap time and, once stopped, the
// total duration, e.g. "[render] - Lap #2: 0.5s - Total: 1.25s".
func (t Timing) String() string {
	items := []string{"[" + t.name + "]"}

	lapTimes := t.LapTimes()
	if len(lapTimes) > 0 {
		latest := lapTimes[len(lapTimes)-1]
		items = append(items, "Lap #"+strconv.Itoa(len(lapTimes))+": "+formatSeconds(latest))
	}

	if total, ok := t.TotalDuration(); ok {
		items = append(items, "Total: "+formatSeconds(total))
	}

	return strings.Join(items, " - ")
}

// formatSeconds prints d in seconds, always with a fractional part
func formatSeconds(d time.Duration) string {
	s := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "s"
}
