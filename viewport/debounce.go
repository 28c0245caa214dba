package viewport

import (
	"sync"
	"time"
)

// Debouncer delays fn until Trigger has not been called for the interval.
// A burst of triggers yields one call, on the trailing edge. Safe for
// concurrent use.
type Debouncer struct {
	interval time.Duration
	fn       func()

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer returns a Debouncer for fn. A non-positive interval uses
// DefaultInterval.
func NewDebouncer(fn func(), interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer{interval: interval, fn: fn}
}

// Trigger (re)schedules fn, cancelling any pending call.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() { d.fire(seq) })
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Interval returns the quiet period.
func (d *Debouncer) Interval() time.Duration { return d.interval }

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	// A timer that already fired while being replaced must not run.
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	if d.fn != nil {
		d.fn()
	}
}
