// Package measure connects a Timekeeper to code regions and channel
// pipelines: start a timing when work begins, lap on every value, stop
// when the work completes.
package measure

import (
	"context"
	"errors"

	"github.com/psantana5/timekeeper/pkg/report"
	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

// Callback receives the timing produced by a lap or stop. ok is false when
// no timing with the name was running.
type Callback func(t timekeeper.Timing, ok bool)

type options struct {
	printer          *report.Printer
	callback         Callback
	stopOnCompletion bool
}

// Option configures an adapter
type Option func(*options)

// WithPrinter logs laps and stops through p when no callback is set
func WithPrinter(p *report.Printer) Option {
	return func(o *options) {
		o.printer = p
	}
}

// WithCallback hands laps and stops to fn instead of logging them
func WithCallback(fn Callback) Option {
	return func(o *options) {
		o.callback = fn
	}
}

// WithoutStop leaves the timing started by Stream running on completion
func WithoutStop() Option {
	return func(o *options) {
		o.stopOnCompletion = false
	}
}

func newOptions(opts []Option) options {
	o := options{stopOnCompletion: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) lap(tk *timekeeper.Timekeeper, name string) {
	switch {
	case o.callback != nil:
		o.callback(tk.Lap(name))
	case o.printer != nil:
		o.printer.Lap(name)
	default:
		tk.Lap(name)
	}
}

func (o options) stop(tk *timekeeper.Timekeeper, name string) {
	switch {
	case o.callback != nil:
		o.callback(tk.Stop(name))
	case o.printer != nil:
		o.printer.Stop(name)
	default:
		tk.Stop(name)
	}
}

// Func starts a timing, runs fn and stops the timing. The error of fn is
// returned as is. If the timing was stopped elsewhere while fn ran, the
// returned error also matches timekeeper.ErrTimingNotFound.
func Func(tk *timekeeper.Timekeeper, name string, fn func() error) (timekeeper.Timing, error) {
	return FuncContext(context.Background(), tk, name, func(context.Context) error {
		return fn()
	})
}

// FuncContext is Func for functions taking a context. The timing is also
// stopped when fn panics; the panic is then propagated.
func FuncContext(ctx context.Context, tk *timekeeper.Timekeeper, name string, fn func(context.Context) error) (timing timekeeper.Timing, err error) {
	tk.Start(name)
	defer func() {
		var ok bool
		if timing, ok = tk.Stop(name); !ok {
			err = errors.Join(err, timekeeper.ErrTimingNotFound)
		}
	}()

	return timing, fn(ctx)
}
