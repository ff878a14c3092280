package measure

import (
	"context"

	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

// Element pairs a pipeline value with the timing current when it passed
type Element[T any] struct {
	Value  T
	Timing timekeeper.Timing
}

// Stream starts a timing named name right away and forwards every value
// of in. When in is closed or ctx is done the timing is stopped, unless
// WithoutStop is given, and the returned channel is closed.
func Stream[T any](ctx context.Context, tk *timekeeper.Timekeeper, name string, in <-chan T, opts ...Option) <-chan T {
	o := newOptions(opts)
	out := make(chan T)

	tk.Start(name)
	go func() {
		defer close(out)
		forward(ctx, in, out, nil)
		if o.stopOnCompletion {
			o.stop(tk, name)
		}
	}()

	return out
}

// StartEach starts a new timing for every value of in, replacing the
// previous one.
func StartEach[T any](ctx context.Context, tk *timekeeper.Timekeeper, name string, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		forward(ctx, in, out, func(T) { tk.Start(name) })
	}()
	return out
}

// LapEach records a lap for every value of in
func LapEach[T any](ctx context.Context, tk *timekeeper.Timekeeper, name string, in <-chan T, opts ...Option) <-chan T {
	o := newOptions(opts)
	out := make(chan T)
	go func() {
		defer close(out)
		forward(ctx, in, out, func(T) { o.lap(tk, name) })
	}()
	return out
}

// StopEach stops the timing for every value of in. Values after the first
// find no timing unless something started it again.
func StopEach[T any](ctx context.Context, tk *timekeeper.Timekeeper, name string, in <-chan T, opts ...Option) <-chan T {
	o := newOptions(opts)
	out := make(chan T)
	go func() {
		defer close(out)
		forward(ctx, in, out, func(T) { o.stop(tk, name) })
	}()
	return out
}

// WithLap records a lap and pairs value with the resulting timing.
// It fails with timekeeper.ErrTimingNotFound when no timing is running.
func WithLap[T any](tk *timekeeper.Timekeeper, name string, value T) (Element[T], error) {
	timing, ok := tk.Lap(name)
	if !ok {
		return Element[T]{Value: value}, timekeeper.ErrTimingNotFound
	}
	return Element[T]{Value: value, Timing: timing}, nil
}

// WithStop stops the timing and pairs value with it.
// It fails with timekeeper.ErrTimingNotFound when no timing is running.
func WithStop[T any](tk *timekeeper.Timekeeper, name string, value T) (Element[T], error) {
	timing, ok := tk.Stop(name)
	if !ok {
		return Element[T]{Value: value}, timekeeper.ErrTimingNotFound
	}
	return Element[T]{Value: value, Timing: timing}, nil
}

// forward copies in to out until in is closed or ctx is done, calling each
// before a value is passed on.
func forward[T any](ctx context.Context, in <-chan T, out chan<- T, each func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				return
			}
			if each != nil {
				each(v)
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}
}
