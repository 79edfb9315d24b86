package param

import (
	"errors"
	"runtime"
	"sync/atomic"
)

const (
	// DefaultQueueCapacity matches the depth used by the stereo plugin.
	DefaultQueueCapacity = 2048
	// DefaultSendRetries bounds how long Send spins on a full queue.
	DefaultSendRetries = 64
)

var (
	// ErrQueueFull means the change was dropped after all retries.
	ErrQueueFull = errors.New("param: queue full")
	// ErrQueueClosed means the consumer is gone and the change was abandoned.
	ErrQueueClosed = errors.New("param: queue closed")
)

// Queue is a bounded multi-producer/single-consumer channel of changes.
//
// Send, TrySend and Close may be called from any goroutine. TryRecv and
// Drain must only be called by the single consumer and never block.
type Queue struct {
	ch      chan Change
	closed  atomic.Bool
	retries int
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithSendRetries sets how many extra attempts Send makes on a full queue.
func WithSendRetries(n int) QueueOption {
	return func(q *Queue) {
		if n >= 0 {
			q.retries = n
		}
	}
}

// NewQueue creates a queue with a fixed capacity. Non-positive capacities
// select DefaultQueueCapacity.
func NewQueue(capacity int, opts ...QueueOption) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	q := &Queue{
		ch:      make(chan Change, capacity),
		retries: DefaultSendRetries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}

	return q
}

// TrySend enqueues c if there is room and reports whether it did.
func (q *Queue) TrySend(c Change) bool {
	if q.closed.Load() {
		return false
	}

	select {
	case q.ch <- c:
		return true
	default:
		return false
	}
}

// Send enqueues c, yielding and retrying a bounded number of times while
// the queue is full. It returns ErrQueueFull if the change was dropped and
// ErrQueueClosed if the consumer has closed the queue.
func (q *Queue) Send(c Change) error {
	for attempt := 0; ; attempt++ {
		if q.closed.Load() {
			return ErrQueueClosed
		}

		select {
		case q.ch <- c:
			return nil
		default:
		}

		if attempt >= q.retries {
			return ErrQueueFull
		}

		runtime.Gosched()
	}
}

// TryRecv dequeues one change without blocking.
func (q *Queue) TryRecv() (Change, bool) {
	select {
	case c := <-q.ch:
		return c, true
	default:
		return Change{}, false
	}
}

// Drain applies queued changes in arrival order and returns how many were
// applied. At most Cap changes are taken per call, so producers that keep
// the queue busy cannot stall the consumer.
func (q *Queue) Drain(apply func(Change)) int {
	n := 0
	for limit := cap(q.ch); n < limit; n++ {
		c, ok := q.TryRecv()
		if !ok {
			break
		}
		apply(c)
	}
	return n
}

// Close marks the consumer as gone. Later sends are abandoned. Changes that
// are still queued are left in place.
func (q *Queue) Close() {
	q.closed.Store(true)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool { return q.closed.Load() }

// Len returns the number of queued changes.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the fixed queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
