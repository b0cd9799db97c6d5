// Package queue provides the in-memory FIFO used between the engine and its units.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// Policy decides what Push does when a bounded queue is full.
type Policy string

const (
	// PolicyBlock makes Push wait for space or for its context to end.
	PolicyBlock Policy = "block"
	// PolicyDropOldest evicts the head to make room. Push never fails.
	PolicyDropOldest Policy = "drop_oldest"
	// PolicyDropNewest rejects the pushed value with ErrCodeQueueFull.
	PolicyDropNewest Policy = "drop_newest"
)

// Config bounds a queue. A zero Capacity means unbounded and the policy is never consulted.
type Config struct {
	Capacity int    `yaml:"capacity" json:"capacity" jsonschema:"minimum=0,default=0" validate:"gte=0"`
	Overflow Policy `yaml:"overflow" json:"overflow" jsonschema:"enum=block,enum=drop_oldest,enum=drop_newest,default=block" validate:"omitempty,oneof=block drop_oldest drop_newest"`
}

// Queue is a multi-producer FIFO. Consumers either poll it with a bounded wait
// or share a notify channel across several queues.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	policy   Policy
	closed   bool

	ready  chan struct{}
	space  chan struct{}
	done   chan struct{}
	notify chan struct{}

	dropped atomic.Uint64
}

// New creates a queue. notify may be nil; when set it receives a non-blocking
// send after every successful push.
func New[T any](cfg Config, notify chan struct{}) *Queue[T] {
	policy := cfg.Overflow
	if policy == "" {
		policy = PolicyBlock
	}

	return &Queue[T]{
		mu:       sync.Mutex{},
		items:    nil,
		capacity: cfg.Capacity,
		policy:   policy,
		closed:   false,
		ready:    make(chan struct{}, 1),
		space:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		notify:   notify,
		dropped:  atomic.Uint64{},
	}
}

// Push appends v following the overflow policy.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	for {
		q.mu.Lock()

		if q.closed {
			q.mu.Unlock()

			return errors.New(errors.ErrCodeQueueClosed, "queue is closed")
		}

		if q.capacity == 0 || len(q.items) < q.capacity {
			q.items = append(q.items, v)
			q.mu.Unlock()
			q.wake()

			return nil
		}

		switch q.policy {
		case PolicyDropOldest:
			var zero T

			q.items[0] = zero
			q.items = append(q.items[1:], v)
			q.mu.Unlock()
			q.dropped.Add(1)
			q.wake()

			return nil
		case PolicyDropNewest:
			q.mu.Unlock()
			q.dropped.Add(1)

			return errors.New(errors.ErrCodeQueueFull, "queue is full")
		case PolicyBlock:
			q.mu.Unlock()

			select {
			case <-q.space:
			case <-q.done:
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			q.mu.Unlock()

			return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported overflow policy %q", q.policy)
		}
	}
}

// TryPop removes the head without waiting.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()

	if len(q.items) == 0 {
		q.mu.Unlock()

		var zero T

		return zero, false
	}

	v := q.items[0]

	var zero T

	q.items[0] = zero
	q.items = q.items[1:]
	q.mu.Unlock()

	select {
	case q.space <- struct{}{}:
	default:
	}

	return v, true
}

// Poll waits up to timeout for a value. It returns false on timeout,
// when ctx ends or when the queue is closed and drained.
func (q *Queue[T]) Poll(ctx context.Context, timeout time.Duration) (T, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if v, ok := q.TryPop(); ok {
			return v, true
		}

		if q.Closed() {
			var zero T

			return zero, false
		}

		select {
		case <-q.ready:
		case <-q.done:
		case <-timer.C:
			return q.TryPop()
		case <-ctx.Done():
			var zero T

			return zero, false
		}
	}
}

// Close rejects further pushes and releases every blocked Push. Values already
// queued can still be popped. Close may be called more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return
	}

	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.wake()
}

// Closed reports whether Close was called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Dropped returns how many values the overflow policy discarded.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}

func (q *Queue[T]) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}

	if q.notify != nil {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
}
