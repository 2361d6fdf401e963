package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DefaultCapacity is used when Options.Capacity is not positive.
const DefaultCapacity = 256

// Policy selects what Send does when the queue is full.
type Policy int

// Backpressure policies.
const (
	// Block makes Send wait for free space.
	Block Policy = iota

	// Reject makes Send fail with ErrQueueFull.
	Reject
)

// String returns the config name of the policy.
func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a config value ("block" or "reject") to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block", "":
		return Block, nil
	case "reject":
		return Reject, nil
	default:
		return Block, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Options configures a Queue.
type Options struct {
	// Capacity is the number of items the queue holds before backpressure
	// applies. Defaults to DefaultCapacity.
	Capacity int

	// Policy is the backpressure policy. Defaults to Block.
	Policy Policy

	// Metrics is optional; nil disables Prometheus reporting.
	Metrics *Metrics
}

// Queue is a bounded multi-producer, single-consumer FIFO.
//
// Thread Safety: Send, Len and Close are safe for concurrent use. Receive
// and Drain are meant for the single consumer.
type Queue[T any] struct {
	items   chan T
	policy  Policy
	metrics *Metrics

	// mu orders Close after every in-flight Send, so an item accepted by
	// Send is always buffered before Receive can observe done.
	mu        sync.RWMutex
	closed    bool
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a queue with the given options.
func New[T any](opts Options) *Queue[T] {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	q := &Queue[T]{
		items:   make(chan T, capacity),
		policy:  opts.Policy,
		metrics: opts.Metrics,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	q.metrics.setCapacity(capacity)
	return q
}

// Send enqueues an item.
//
// Below capacity it never blocks. At capacity it waits (Block) or returns
// ErrQueueFull (Reject). A blocked Send returns ctx.Err() when ctx is done
// and ErrQueueClosed when the queue is closed.
func (q *Queue[T]) Send(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	// Fast path: space available
	select {
	case q.items <- item:
		q.metrics.recordEnqueue(len(q.items))
		return nil
	default:
	}

	if q.policy == Reject {
		q.metrics.recordReject()
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(q.items))
	}

	q.metrics.recordBlocked()
	select {
	case q.items <- item:
		q.metrics.recordEnqueue(len(q.items))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closing:
		return ErrQueueClosed
	}
}

// Receive removes the oldest item, waiting until one is available.
//
// After Close, Receive keeps returning buffered items and then
// ErrQueueClosed once the queue is empty.
func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	select {
	case item := <-q.items:
		q.metrics.recordDequeue(len(q.items))
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-q.done:
		select {
		case item := <-q.items:
			q.metrics.recordDequeue(len(q.items))
			return item, nil
		default:
			return zero, ErrQueueClosed
		}
	}
}

// Drain removes and returns every buffered item without waiting.
func (q *Queue[T]) Drain() []T {
	var out []T
	for {
		select {
		case item := <-q.items:
			q.metrics.recordDequeue(len(q.items))
			out = append(out, item)
		default:
			return out
		}
	}
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.items)
}

// Policy returns the backpressure policy.
func (q *Queue[T]) Policy() Policy {
	return q.policy
}

// Close stops the queue from accepting new items and wakes blocked senders
// and the consumer. Buffered items can still be received. Close is idempotent.
//
// A Send that returned nil before Close returned is always delivered to
// Receive; a Send racing Close either succeeds that way or fails with
// ErrQueueClosed.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		// Wake blocked senders so they release the read lock
		close(q.closing)

		q.mu.Lock()
		q.closed = true
		close(q.done)
		q.mu.Unlock()
	})
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
