// Package util holds small concurrency helpers.
package util

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of Reset calls into a single tick on C, fired
// once the calls have been quiet for the configured duration. A new debouncer
// is disarmed until the first Reset.
//
//	d := util.NewDebouncer(250 * time.Millisecond)
//	defer d.Stop()
//
//	for {
//	    select {
//	    case <-changes:
//	        d.Reset()
//	    case <-d.C():
//	        rebuild()
//	    }
//	}
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	armed    bool
	stopped  bool
}

// NewDebouncer creates a disarmed debouncer.
func NewDebouncer(duration time.Duration) *Debouncer {
	d := &Debouncer{duration: duration, timer: time.NewTimer(duration)}
	d.drainLocked()
	return d
}

// Reset (re)arms the timer. No-op after Stop.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.drainLocked()
	d.timer.Reset(d.duration)
	d.armed = true
}

// Cancel disarms a pending tick without stopping the debouncer.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.drainLocked()
	d.armed = false
}

// Pending reports whether a tick is scheduled and not yet observed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Fired must be called after receiving from C.
func (d *Debouncer) Fired() {
	d.mu.Lock()
	d.armed = false
	d.mu.Unlock()
}

// C returns the tick channel.
func (d *Debouncer) C() <-chan time.Time {
	return d.timer.C
}

// Stop disarms the debouncer permanently. Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.stopped {
		d.drainLocked()
		d.armed = false
		d.stopped = true
	}
}

func (d *Debouncer) drainLocked() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
}
