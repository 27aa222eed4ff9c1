package transfer

import (
	"sync"

	"github.com/imalexlee/vk-async-transfer/internal/ringbuf"
)

// requestQueue is the bounded FIFO the worker goroutine drains and
// application goroutines feed. It is a mutex+condvar wrapper around
// internal/ringbuf, matching the concurrency primitives the reference
// implementation's producer/consumer queue uses (not channels): Enqueue
// publishes StatusPending under the same lock that appends the request,
// so a caller querying Status immediately after Enqueue never observes a
// stale StatusReady.
type requestQueue struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	ring     *ringbuf.Ring[Request]
	closed   bool
	handles  handlePublisher
}

// handlePublisher is the narrow slice of *Engine (its handle pool) the
// queue needs in order to publish StatusPending at enqueue time, without
// importing the engine package back (avoids a cycle and keeps the queue
// independently testable).
type handlePublisher interface {
	publishPending(h Handle)
}

func newRequestQueue(initialCapacity int, handles handlePublisher) *requestQueue {
	q := &requestQueue{
		ring:    ringbuf.New[Request](initialCapacity),
		handles: handles,
	}
	q.notEmpty.L = &q.mu
	return q
}

// Enqueue appends req and publishes StatusPending for its handle, both
// under the queue's lock, then wakes one waiting worker.
func (q *requestQueue) Enqueue(req Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.ring.Push(req)
	q.handles.publishPending(req.Handle)
	q.notEmpty.Signal()
	return nil
}

// Dequeue blocks until a request is available or the queue is closed and
// drained, per the spec's close-then-drain shutdown semantics: a closed
// queue still yields whatever requests were enqueued before Close, and
// only returns ok=false once it is both closed and empty.
func (q *requestQueue) Dequeue() (req Request, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.ring.Len() == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	if q.ring.Len() == 0 {
		return Request{}, false
	}

	req, _ = q.ring.Pop()
	return req, true
}

// Close marks the queue closed and wakes all waiters; no further
// Enqueue calls succeed, but pending entries already in the ring are
// still delivered by Dequeue until it drains.
func (q *requestQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

// Stats returns the current length and capacity, for the metrics
// reporter.
func (q *requestQueue) Stats() (length, capacity int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Len(), q.ring.Cap()
}
