package report

import (
	"github.com/psantana5/timekeeper/pkg/logging"
	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

// Printer layers "and print" operations over a Timekeeper: it performs the
// operation and logs the resulting timing.
type Printer struct {
	tk     *timekeeper.Timekeeper
	logger *logging.Logger
}

// NewPrinter creates a Printer logging through logger
func NewPrinter(tk *timekeeper.Timekeeper, logger *logging.Logger) *Printer {
	return &Printer{
		tk:     tk,
		logger: logger.WithField("timekeeper", tk.Label()),
	}
}

// Lap records a lap and logs the timing
func (p *Printer) Lap(name string) (timekeeper.Timing, bool) {
	timing, ok := p.tk.Lap(name)
	if !ok {
		p.notFound(name)
		return timing, false
	}
	p.Print(timing)
	return timing, true
}

// Stop stops the timing and logs it
func (p *Printer) Stop(name string) (timekeeper.Timing, bool) {
	timing, ok := p.tk.Stop(name)
	if !ok {
		p.notFound(name)
		return timing, false
	}
	p.Print(timing)
	return timing, true
}

// StopAll stops every running timing and logs each of them
func (p *Printer) StopAll() []timekeeper.Timing {
	timings := p.tk.StopAll()
	for _, timing := range timings {
		p.Print(timing)
	}
	return timings
}

// Print logs t at info level
func (p *Printer) Print(t timekeeper.Timing) {
	fields := map[string]interface{}{
		"timing_id": t.ID().String(),
		"state":     t.State().String(),
		"laps":      len(t.Laps()),
	}
	if total, ok := t.TotalDuration(); ok {
		fields["total_seconds"] = total.Seconds()
	}
	p.logger.Info(p.tk.String()+" "+t.String(), fields)
}

func (p *Printer) notFound(name string) {
	p.logger.Debug("No timing with name "+name+" found.", map[string]interface{}{"name": name})
}
