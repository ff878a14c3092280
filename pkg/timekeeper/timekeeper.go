package timekeeper

import (
	"errors"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
)

// ErrTimingNotFound is returned by adapters when a timing expected to be
// running under a name does not exist.
var ErrTimingNotFound = errors.New("timing not found")

// Timekeeper is a concurrency-safe registry of named, running timings.
// A name maps to at most one timing; starting a name again replaces it.
type Timekeeper struct {
	label     string
	clock     clockwork.Clock
	observers []Observer

	mu      sync.RWMutex
	timings map[string]Timing
}

// Option configures a Timekeeper
type Option func(*Timekeeper)

// WithClock sets the clock used for start, lap and end instants
func WithClock(clock clockwork.Clock) Option {
	return func(tk *Timekeeper) {
		tk.clock = clock
	}
}

// WithObserver registers an observer. Observers are notified in the order
// they were registered.
func WithObserver(o Observer) Option {
	return func(tk *Timekeeper) {
		tk.observers = append(tk.observers, o)
	}
}

// New creates an empty Timekeeper. The label only identifies it in logs.
func New(label string, opts ...Option) *Timekeeper {
	tk := &Timekeeper{
		label:   label,
		clock:   clockwork.NewRealClock(),
		timings: make(map[string]Timing),
	}
	for _, opt := range opts {
		opt(tk)
	}
	return tk
}

var (
	defaultOnce sync.Once
	defaultTK   *Timekeeper
)

// Default returns the process-wide Timekeeper labelled "default", creating
// it on first use. Prefer passing a Timekeeper explicitly.
func Default() *Timekeeper {
	defaultOnce.Do(func() {
		defaultTK = New("default")
	})
	return defaultTK
}

// Label returns the label given to New
func (tk *Timekeeper) Label() string {
	return tk.label
}

func (tk *Timekeeper) String() string {
	return "Timekeeper[" + tk.label + "]"
}

// Start begins a new timing and returns it. A running timing with the same
// name is discarded.
func (tk *Timekeeper) Start(name string) Timing {
	timing, replaced, ok := tk.start(name)

	if ok {
		tk.notify(func(o Observer) { o.TimingDiscarded(replaced) })
	}
	tk.notify(func(o Observer) { o.TimingStarted(timing) })

	return timing
}

func (tk *Timekeeper) start(name string) (Timing, Timing, bool) {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	replaced, ok := tk.timings[name]
	timing := newTiming(name, tk.clock.Now())
	tk.timings[name] = timing

	return timing, replaced, ok
}

// Lap records a lap on the running timing with the given name and returns
// the updated timing. The boolean is false if no such timing exists.
func (tk *Timekeeper) Lap(name string) (Timing, bool) {
	timing, ok := tk.lap(name)
	if !ok {
		return Timing{}, false
	}

	tk.notify(func(o Observer) { o.TimingLapped(timing) })
	return timing, true
}

func (tk *Timekeeper) lap(name string) (Timing, bool) {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	timing, ok := tk.timings[name]
	if !ok {
		return Timing{}, false
	}

	timing.lap(tk.clock.Now())
	tk.timings[name] = timing

	return timing.clone(), true
}

// Stop removes the running timing with the given name, sets its end time
// and returns it. The boolean is false if no such timing exists.
func (tk *Timekeeper) Stop(name string) (Timing, bool) {
	timing, ok := tk.stop(name)
	if !ok {
		return Timing{}, false
	}

	tk.notify(func(o Observer) { o.TimingStopped(timing) })
	return timing, true
}

func (tk *Timekeeper) stop(name string) (Timing, bool) {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	timing, ok := tk.timings[name]
	if !ok {
		return Timing{}, false
	}
	delete(tk.timings, name)

	timing.stop(tk.clock.Now())
	return timing, true
}

// Get returns the running timing with the given name without changing it.
// The boolean is false if no such timing exists.
func (tk *Timekeeper) Get(name string) (Timing, bool) {
	tk.mu.RLock()
	defer tk.mu.RUnlock()

	timing, ok := tk.timings[name]
	if !ok {
		return Timing{}, false
	}
	return timing.clone(), true
}

// StopAll stops every running timing with one shared end time, empties the
// registry and returns the stopped timings in no particular order.
func (tk *Timekeeper) StopAll() []Timing {
	timings := tk.stopAll()

	for _, timing := range timings {
		timing := timing
		tk.notify(func(o Observer) { o.TimingStopped(timing) })
	}
	return timings
}

func (tk *Timekeeper) stopAll() []Timing {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	now := tk.clock.Now()
	timings := make([]Timing, 0, len(tk.timings))
	for _, timing := range tk.timings {
		timing.stop(now)
		timings = append(timings, timing)
	}
	tk.timings = make(map[string]Timing)

	return timings
}

// Clear drops every running timing without stopping it
func (tk *Timekeeper) Clear() {
	discarded := tk.clear()

	for _, timing := range discarded {
		timing := timing
		tk.notify(func(o Observer) { o.TimingDiscarded(timing) })
	}
}

func (tk *Timekeeper) clear() []Timing {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	var discarded []Timing
	if len(tk.observers) > 0 {
		discarded = make([]Timing, 0, len(tk.timings))
		for _, timing := range tk.timings {
			discarded = append(discarded, timing)
		}
	}
	tk.timings = make(map[string]Timing)

	return discarded
}

// Timings returns all running timings sorted by name
func (tk *Timekeeper) Timings() []Timing {
	tk.mu.RLock()
	timings := make([]Timing, 0, len(tk.timings))
	for _, timing := range tk.timings {
		timings = append(timings, timing.clone())
	}
	tk.mu.RUnlock()

	sort.Slice(timings, func(i, j int) bool { return timings[i].name < timings[j].name })
	return timings
}

// Len returns the number of running timings
func (tk *Timekeeper) Len() int {
	tk.mu.RLock()
	defer tk.mu.RUnlock()

	return len(tk.timings)
}

func (tk *Timekeeper) notify(fn func(Observer)) {
	for _, o := range tk.observers {
		fn(o)
	}
}
