package search

import (
	"sync"
	"time"
)

// Debouncer fires a callback once per burst of triggers: each Trigger
// replaces the pending timer, so after a quiet period the callback runs
// exactly once with the last value seen. Superseded triggers are cancelled,
// never queued.
type Debouncer[T any] struct {
	quiet time.Duration
	fn    func(T)

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer that invokes fn with the most recent
// value once quiet time has elapsed since the last Trigger.
func NewDebouncer[T any](quiet time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{quiet: quiet, fn: fn}
}

// Trigger records v and (re)starts the quiet-period timer, cancelling any
// pending fire.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fn(v) })
}

// Stop cancels any pending fire. Safe to call multiple times.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
