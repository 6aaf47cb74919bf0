// Package pubsub fans values out from one sender to any number of subscribers over closable channels.
package pubsub

import (
	"context"
	"sync"
)

type Sender[T any] interface {
	Send(T) bool
	SendContext(context.Context, T) bool
}

type Receiver[T any] interface {
	Receive() <-chan T
}

type Closer interface {
	Close()
	Closed() <-chan struct{}
}

type SenderCloser[T any] interface {
	Sender[T]
	Closer
}

type ReceiverCloser[T any] interface {
	Receiver[T]
	Closer
}

type Channel[T any] interface {
	Sender[T]
	Receiver[T]
	Closer
}

// channel wraps a primitive `chan` in some concurrency-safe state management.
type channel[T any] struct {
	mu      sync.RWMutex
	ch      chan T
	done    chan struct{}
	closed  bool
	waiting sync.WaitGroup
}

// NewChannel creates a new channel of the specified type and buffer size.
func NewChannel[T any](bufSize int) Channel[T] {
	return &channel[T]{
		ch:   make(chan T, bufSize),
		done: make(chan struct{}),
	}
}

// Receive returns the underlying channel, which is closed when the Channel is closed.
func (c *channel[T]) Receive() <-chan T {
	return c.ch
}

// Send blocks until the message is accepted (true) or the channel is closed (false).
func (c *channel[T]) Send(msg T) bool {
	return c.SendContext(context.Background(), msg)
}

// SendContext is like Send, but also gives up (false) once ctx is done. A message that fits in the buffer is always
// accepted, even if ctx is already done.
func (c *channel[T]) SendContext(ctx context.Context, msg T) bool {
	// Either the send is never attempted, or Close() waits for it to finish
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return false
	}
	c.waiting.Add(1)
	defer c.waiting.Done()
	c.mu.RUnlock()

	select {
	case c.ch <- msg:
		return true
	default:
	}
	select {
	case c.ch <- msg:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close idempotently ends the channel so that all current and future Send calls fail.
func (c *channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.waiting.Wait()
	close(c.ch)
}

func (c *channel[T]) Closed() <-chan struct{} {
	return c.done
}
