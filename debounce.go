package homepage

import (
	"time"
)

// Clock schedules deferred calls.  Tests substitute a manual clock.
type Clock interface {
	// AfterFunc calls f in its own goroutine after d and returns a function
	// that cancels the call if it has not started yet.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// debouncer is a trailing-edge debounce timer.  Every schedule supersedes
// the previous one; a firing is delivered on fired tagged with its
// generation, and only the newest generation is live.  It is owned by a
// single goroutine.
type debouncer struct {
	clock Clock
	quiet time.Duration
	fired chan uint64
	done  <-chan struct{}

	gen     uint64
	pending bool
	stop    func() bool
}

func newDebouncer(clk Clock, quiet time.Duration, done <-chan struct{}) *debouncer {
	return &debouncer{clock: clk, quiet: quiet, fired: make(chan uint64), done: done}
}

// schedule cancels any pending firing and starts a new quiet period.
func (d *debouncer) schedule() {
	d.cancel()
	d.gen++
	gen := d.gen
	d.pending = true
	d.stop = d.clock.AfterFunc(d.quiet, func() {
		select {
		case d.fired <- gen:
		case <-d.done:
		}
	})
}

// cancel drops the pending firing, if any.
func (d *debouncer) cancel() {
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
	d.pending = false
}

// take reports whether gen is the live firing, consuming it.
func (d *debouncer) take(gen uint64) bool {
	if !d.pending || gen != d.gen {
		return false
	}
	d.pending = false
	d.stop = nil
	return true
}
