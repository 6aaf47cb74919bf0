// Package sync_ holds synchronisation primitives missing from the standard library.
package sync_

import "sync"

// Event is inspired by Python's `threading.Event`: a set-once flag that goroutines can wait on. The zero value is an
// unset Event ready for use.
type Event struct {
	mu    sync.Mutex
	ch    chan struct{}
	value bool
}

// Set ensures the Event is true, waking any waiters. Returns true if this call changed the state.
func (e *Event) Set() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.value {
		return false
	}
	e.value = true
	close(e.channel())
	return true
}

// Wait returns a channel that is closed once the Event is set (which may be immediately).
func (e *Event) Wait() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channel()
}

// channel must be called with mu held.
func (e *Event) channel() chan struct{} {
	if e.ch == nil {
		e.ch = make(chan struct{})
	}
	return e.ch
}
