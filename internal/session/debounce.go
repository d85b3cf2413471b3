package session

import (
	"sync"
	"time"
)

// debouncer collapses rapid calls into the latest one: each Schedule cancels
// the previously scheduled fn, so only the most recent value is ever applied.
// A zero interval runs fn synchronously, which keeps tests deterministic.
type debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) Schedule(fn func()) {
	if d.interval <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// Stop cancels any pending scheduled call.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
