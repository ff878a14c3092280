package timekeeper

// Observer is notified after the registry changed.
//
// Notifications are delivered by the goroutine that performed the
// operation, after the registry lock has been released. Notifications for
// one timing coming from different goroutines can therefore arrive out of
// order.
type Observer interface {
	// TimingStarted is called with the timing created by Start
	TimingStarted(t Timing)
	// TimingLapped is called with the timing returned by Lap
	TimingLapped(t Timing)
	// TimingStopped is called with every timing finalized by Stop or StopAll
	TimingStopped(t Timing)
	// TimingDiscarded is called for running timings dropped by Clear or
	// replaced by a Start with the same name
	TimingDiscarded(t Timing)
}

// NopObserver ignores all notifications. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) TimingStarted(Timing)   {}
func (NopObserver) TimingLapped(Timing)    {}
func (NopObserver) TimingStopped(Timing)   {}
func (NopObserver) TimingDiscarded(Timing) {}
