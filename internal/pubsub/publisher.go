package pubsub

import (
	"context"
	"errors"
	"sync"
)

const DefaultSubscriberBufSize = 16

var (
	ErrPublisherClosed = errors.New("publisher closed")
)

type Publisher[T any] interface {
	SenderCloser[T]
	Subscribe() (ReceiverCloser[T], error)
}

// publisher delivers each message to every subscriber from the sending goroutine, so a single sender sees its
// messages arrive in order.
type publisher[T any] struct {
	mu          sync.Mutex
	subscribers map[Channel[T]]struct{}
	sending     sync.WaitGroup // Send calls in progress
	done        chan struct{}
	closed      bool
}

func NewPublisher[T any]() Publisher[T] {
	return &publisher[T]{
		subscribers: make(map[Channel[T]]struct{}),
		done:        make(chan struct{}),
	}
}

// Send publishes msg to all subscribers, waiting for each to accept it. Returns false if the publisher is closed.
func (p *publisher[T]) Send(msg T) bool {
	return p.SendContext(context.Background(), msg)
}

// SendContext is like Send, but once ctx is done a subscriber with a full buffer is dropped and closed instead of
// being waited for.
func (p *publisher[T]) SendContext(ctx context.Context, msg T) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.sending.Add(1)
	defer p.sending.Done()
	list := make([]Channel[T], 0, len(p.subscribers))
	for s := range p.subscribers {
		list = append(list, s)
	}
	p.mu.Unlock()

	for _, s := range list {
		if ok := s.SendContext(ctx, msg); !ok {
			p.drop(s)
		}
	}
	return true
}

func (p *publisher[T]) Subscribe() (ReceiverCloser[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}
	s := NewChannel[T](DefaultSubscriberBufSize)
	p.subscribers[s] = struct{}{}
	return s, nil
}

func (p *publisher[T]) drop(s Channel[T]) {
	p.mu.Lock()
	delete(p.subscribers, s)
	p.mu.Unlock()
	s.Close()
}

// Close idempotently shuts down the publisher and closes every subscriber. A Send still in progress is abandoned
// for subscribers that haven't accepted it yet.
func (p *publisher[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	list := make([]Channel[T], 0, len(p.subscribers))
	for s := range p.subscribers {
		list = append(list, s)
	}
	p.subscribers = make(map[Channel[T]]struct{})
	p.mu.Unlock()

	for _, s := range list {
		s.Close()
	}
	p.sending.Wait()
}

func (p *publisher[T]) Closed() <-chan struct{} {
	return p.done
}
