package timekeeper

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestStartNewTiming(t *testing.T) {
	tk := New("Chrono")

	timing := tk.Start("measurement")

	got, ok := tk.Get("measurement")
	require.True(t, ok)
	assert.Equal(t, timing, got)
	assert.Equal(t, Running, got.State())
	assert.Empty(t, got.Laps())
	_, stopped := got.End()
	assert.False(t, stopped)
}

func TestStartNewTimingReplacesExisting(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	tk := New("Chrono", WithClock(clock))

	first := tk.Start("measurement")
	clock.Advance(time.Second)
	second := tk.Start("measurement")

	assert.NotEqual(t, first.ID(), second.ID())
	assert.True(t, second.Start().After(first.Start()))

	got, ok := tk.Get("measurement")
	require.True(t, ok)
	assert.Equal(t, second.ID(), got.ID())
	assert.Equal(t, 1, tk.Len())
}

func TestStartTwiceWithSameInstantYieldsDistinctTimings(t *testing.T) {
	tk := New("Chrono", WithClock(clockwork.NewFakeClockAt(epoch)))

	first := tk.Start("measurement")
	second := tk.Start("measurement")

	assert.NotEqual(t, first, second)
}

func TestLapOnMissingTiming(t *testing.T) {
	tk := New("Chrono")
	tk.Start("other")

	_, ok := tk.Lap("measurement")

	assert.False(t, ok)
	assert.Equal(t, 1, tk.Len())
	_, ok = tk.Get("measurement")
	assert.False(t, ok)
}

func TestLap(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	tk := New("Chrono", WithClock(clock))

	tk.Start("measurement")
	clock.Advance(2 * time.Second)
	timing, ok := tk.Lap("measurement")

	require.True(t, ok)
	assert.Len(t, timing.Laps(), 1)
	assert.Equal(t, []time.Duration{2 * time.Second}, timing.LapTimes())
	assert.Equal(t, Running, timing.State())
}

func TestLapResultIsNotChangedByLaterLaps(t *testing.T) {
	tk := New("Chrono")
	tk.Start("measurement")

	first, _ := tk.Lap("measurement")
	tk.Lap("measurement")
	tk.Lap("measurement")

	assert.Len(t, first.Laps(), 1)
	current, _ := tk.Get("measurement")
	assert.Len(t, current.Laps(), 3)
}

func TestStopOnMissingTiming(t *testing.T) {
	tk := New("Chrono")

	_, ok := tk.Stop("measurement")

	assert.False(t, ok)
}

func TestStop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	tk := New("Chrono", WithClock(clock))

	tk.Start("measurement")
	clock.Advance(time.Second)
	tk.Lap("measurement")
	clock.Advance(3 * time.Second)
	timing, ok := tk.Stop("measurement")

	require.True(t, ok)
	assert.Equal(t, Stopped, timing.State())
	end, ok := timing.End()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(4*time.Second), end)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, timing.LapTimes())
}

func TestStopRemovesTiming(t *testing.T) {
	tk := New("Chrono")

	tk.Start("measurement")
	tk.Stop("measurement")

	_, ok := tk.Get("measurement")
	assert.False(t, ok)
	_, ok = tk.Stop("measurement")
	assert.False(t, ok, "second stop should not find the timing")
}

func TestStopWithZeroInstantClock(t *testing.T) {
	tk := New("Chrono", WithClock(clockwork.NewFakeClockAt(time.Time{})))

	tk.Start("measurement")
	timing, ok := tk.Stop("measurement")

	require.True(t, ok)
	assert.Equal(t, Stopped, timing.State())
	end, ok := timing.End()
	require.True(t, ok)
	assert.Equal(t, time.Time{}, end)
	assert.Equal(t, []time.Duration{0}, timing.LapTimes())
	total, ok := timing.TotalDuration()
	require.True(t, ok)
	assert.Zero(t, total)
}

func TestStopAll(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	tk := New("Chrono", WithClock(clock))

	tk.Start("measurement1")
	clock.Advance(time.Second)
	tk.Start("measurement2")
	clock.Advance(time.Second)

	timings := tk.StopAll()

	require.Len(t, timings, 2)
	assert.Equal(t, 0, tk.Len())
	_, ok := tk.Get("measurement1")
	assert.False(t, ok)
	_, ok = tk.Get("measurement2")
	assert.False(t, ok)

	end1, ok1 := timings[0].End()
	end2, ok2 := timings[1].End()
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, end1, end2)
	assert.Equal(t, epoch.Add(2*time.Second), end1)
}

func TestStopAllSharesEndInstantWithRealClock(t *testing.T) {
	tk := New("Chrono")
	for i := 0; i < 10; i++ {
		tk.Start(fmt.Sprintf("measurement%d", i))
	}

	timings := tk.StopAll()

	require.Len(t, timings, 10)
	end, _ := timings[0].End()
	for _, timing := range timings {
		got, ok := timing.End()
		require.True(t, ok)
		assert.True(t, end.Equal(got))
	}
}

func TestClear(t *testing.T) {
	tk := New("Chrono")

	tk.Start("measurement1")
	tk.Start("measurement2")
	tk.Clear()

	assert.Equal(t, 0, tk.Len())
	_, ok := tk.Get("measurement1")
	assert.False(t, ok)
	_, ok = tk.Get("measurement2")
	assert.False(t, ok)
}

func TestTimingsSortedByName(t *testing.T) {
	tk := New("Chrono")
	tk.Start("b")
	tk.Start("c")
	tk.Start("a")

	timings := tk.Timings()

	require.Len(t, timings, 3)
	assert.Equal(t, "a", timings[0].Name())
	assert.Equal(t, "b", timings[1].Name())
	assert.Equal(t, "c", timings[2].Name())
}

func TestTimekeeperString(t *testing.T) {
	tk := New("Chrono")

	assert.Equal(t, "Chrono", tk.Label())
	assert.Equal(t, "Timekeeper[Chrono]", tk.String())
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.Equal(t, "default", Default().Label())
}

// TestConcurrentLapsAreNotLost tests that concurrent laps on one name all land
func TestConcurrentLapsAreNotLost(t *testing.T) {
	tk := New("Chrono")
	tk.Start("measurement")

	const workers, lapsPerWorker = 20, 100
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := 0; j < lapsPerWorker; j++ {
				if _, ok := tk.Lap("measurement"); !ok {
					return fmt.Errorf("lap %d: timing not found", j)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	timing, ok := tk.Stop("measurement")
	require.True(t, ok)
	assert.Len(t, timing.Laps(), workers*lapsPerWorker)
	assert.Len(t, timing.LapTimes(), workers*lapsPerWorker+1)
}

// TestReadersDoNotBlockEachOther holds a read lock while other readers run
func TestReadersDoNotBlockEachOther(t *testing.T) {
	tk := New("Chrono")
	tk.Start("measurement")

	tk.mu.RLock()
	defer tk.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		tk.Get("measurement")
		tk.Timings()
		tk.Len()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("readers blocked while another read lock was held")
	}
}

// TestConcurrentReads runs many Get and Timings calls in parallel with laps
func TestConcurrentReads(t *testing.T) {
	tk := New("Chrono")
	tk.Start("measurement")

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			for j := 0; j < 200; j++ {
				if _, ok := tk.Get("measurement"); !ok {
					return fmt.Errorf("get %d: timing not found", j)
				}
				if n := len(tk.Timings()); n != 1 {
					return fmt.Errorf("timings %d: got %d entries", j, n)
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for j := 0; j < 200; j++ {
			tk.Lap("measurement")
		}
		return nil
	})
	require.NoError(t, g.Wait())

	timing, ok := tk.Get("measurement")
	require.True(t, ok)
	assert.Len(t, timing.Laps(), 200)
}

// TestConcurrentMixedOperations exercises every operation from many goroutines
func TestConcurrentMixedOperations(t *testing.T) {
	tk := New("Chrono")

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		name := fmt.Sprintf("measurement%d", i%4)
		g.Go(func() error {
			for j := 0; j < 200; j++ {
				tk.Start(name)
				tk.Lap(name)
				if timing, ok := tk.Get(name); ok && timing.State() != Running {
					return fmt.Errorf("registry returned a stopped timing for %s", name)
				}
				if timing, ok := tk.Stop(name); ok && timing.State() != Stopped {
					return fmt.Errorf("stop returned a running timing for %s", name)
				}
				tk.Timings()
			}
			return nil
		})
	}
	g.Go(func() error {
		for j := 0; j < 50; j++ {
			tk.StopAll()
			tk.Clear()
		}
		return nil
	})
	require.NoError(t, g.Wait())

	for _, timing := range tk.Timings() {
		assert.Equal(t, Running, timing.State())
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) record(event string, t Timing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+":"+t.Name())
}

func (r *recordingObserver) TimingStarted(t Timing)   { r.record("started", t) }
func (r *recordingObserver) TimingLapped(t Timing)    { r.record("lapped", t) }
func (r *recordingObserver) TimingStopped(t Timing)   { r.record("stopped", t) }
func (r *recordingObserver) TimingDiscarded(t Timing) { r.record("discarded", t) }

func TestObserverNotifications(t *testing.T) {
	obs := &recordingObserver{}
	tk := New("Chrono", WithObserver(obs))

	tk.Start("a")
	tk.Lap("a")
	tk.Lap("missing")
	tk.Start("a")
	tk.Stop("a")
	tk.Stop("missing")
	tk.Start("b")
	tk.Clear()
	tk.Start("c")
	tk.StopAll()

	assert.Equal(t, []string{
		"started:a",
		"lapped:a",
		"discarded:a",
		"started:a",
		"stopped:a",
		"started:b",
		"discarded:b",
		"started:c",
		"stopped:c",
	}, obs.events)
}

type lappedOnly struct {
	NopObserver
	count int
}

func (l *lappedOnly) TimingLapped(Timing) { l.count++ }

func TestNopObserverEmbedding(t *testing.T) {
	obs := &lappedOnly{}
	tk := New("Chrono", WithObserver(obs))

	tk.Start("a")
	tk.Lap("a")
	tk.Lap("a")
	tk.Stop("a")

	assert.Equal(t, 2, obs.count)
}
