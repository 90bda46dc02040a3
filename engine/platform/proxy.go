package platform

import (
	"errors"
	"sync/atomic"
)

var (
	ErrLoopClosed = errors.New("event loop is not running")
	ErrProxyFull  = errors.New("wake queue is full")
)

// Proxy is the one safe way to reach the loop from another goroutine. Send
// queues a payload and wakes a sleeping pump; the loop drains the queue once
// per iteration and processes each payload as a user event.
type Proxy[T any] struct {
	ch     chan T
	wake   func()
	closed atomic.Bool
}

func newProxy[T any](wake func()) *Proxy[T] {
	return &Proxy[T]{
		ch:   make(chan T, 64),
		wake: wake,
	}
}

// Send never blocks. It fails once the loop has shut down, or when the loop
// is so far behind that the queue is full.
func (p *Proxy[T]) Send(v T) error {
	if p.closed.Load() {
		return ErrLoopClosed
	}
	select {
	case p.ch <- v:
	default:
		return ErrProxyFull
	}
	p.wake()
	return nil
}

// drain appends every queued payload to dst as a user event. Loop thread
// only.
func (p *Proxy[T]) drain(dst []Event) []Event {
	for {
		select {
		case v := <-p.ch:
			dst = append(dst, UserEvent[T]{Payload: v})
		default:
			return dst
		}
	}
}

func (p *Proxy[T]) close() {
	p.closed.Store(true)
}
