package search

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid query updates and delivers only the last one
// after the input has been quiet for the configured interval.
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	deliver func(string)
	timer   *time.Timer
}

// NewDebouncer returns a Debouncer that calls deliver from its own
// goroutine.
func NewDebouncer(wait time.Duration, deliver func(string)) *Debouncer {
	return &Debouncer{wait: wait, deliver: deliver}
}

// Push schedules q, replacing any pending query.
func (d *Debouncer) Push(q string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { d.deliver(q) })
}

// Stop cancels any pending delivery.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
