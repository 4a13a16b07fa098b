// Package editor holds the client-side engine behind an open note: per-field
// debouncing, the load-guard state machine and the autosave controller.
package editor

import (
	"sync"
	"time"
)

// Debouncer coalesces a rapidly-changing value into trailing-edge settles:
// the output channel receives a value only after Set has not been called for
// the full delay. There is no leading-edge emission.
//
// The output channel has capacity one and conflates: if the consumer has not
// drained a previous settle, the newer value replaces it.
type Debouncer[T any] struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	stopped bool
	out     chan T
}

func NewDebouncer[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, out: make(chan T, 1)}
}

// C is the settled-value channel.
func (d *Debouncer[T]) C() <-chan T { return d.out }

// Set records a new input value and restarts the delay timer.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.emit)
}

func (d *Debouncer[T]) emit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	select {
	case d.out <- d.pending:
	default:
		select {
		case <-d.out:
		default:
		}
		select {
		case d.out <- d.pending:
		default:
		}
	}
}

// Cancel discards any pending timer and any undelivered settled value,
// without stopping the debouncer: later Set calls debounce as usual.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	select {
	case <-d.out:
	default:
	}
}

// Stop cancels any pending timer and makes all further Set calls no-ops.
// It must be called on every exit path of the consuming scope so a torn-down
// consumer never receives a late settle.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
