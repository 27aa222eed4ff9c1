// Package handlepool allocates small integer transfer handles backed by
// slot records carrying an atomically-updated status, error detail, and a
// fence reference. It is what lets submitter goroutines and the worker
// goroutine communicate completion safely without pointer aliasing.
package handlepool

import (
	"sync"

	"github.com/imalexlee/vk-async-transfer/internal/dynseq"
	"github.com/imalexlee/vk-async-transfer/internal/gpu"
	"go.uber.org/atomic"
)

// Handle is an opaque integer identifier, valid only for the pool that
// issued it. Invalid is the reserved sentinel never returned by Allocate.
type Handle uint32

// Invalid is the reserved handle value never handed out by Allocate.
const Invalid Handle = 0

// Status is the lifecycle state of a handle.
type Status int32

const (
	Ready Status = iota
	Pending
	Executing
	Complete
	Error
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Pending:
		return "Pending"
	case Executing:
		return "Executing"
	case Complete:
		return "Complete"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrorKind tags what kind of error is recorded on a handle.
type ErrorKind int32

const (
	ErrorNone ErrorKind = iota
	ErrorInternal
	ErrorGPU
)

// InternalCode enumerates non-GPU failure causes.
type InternalCode int32

const (
	InternalNone InternalCode = iota
	InternalThreadCreateFailed
	InternalDequeueFailed
)

// HandleError is the tagged error record attached to a slot; meaningful
// only when Status is Error.
type HandleError struct {
	Kind     ErrorKind
	Internal InternalCode
	GPU      gpu.Result
}

// FenceRef snapshots the rotation slot a handle's submission was bound to,
// for the generation-check in the status-query protocol.
type FenceRef struct {
	Fence      gpu.Fence
	Generation uint64
	SlotIndex  int
}

// slot is owned exclusively by the pool. status is atomic; the remaining
// fields are written under the invariant that they precede the status
// store that makes them observable (error before Error, fenceRef before
// Executing).
type slot struct {
	valid    bool
	status   *atomic.Int32
	errVal   HandleError
	fenceRef FenceRef
}

func newSlot() *slot {
	s := &slot{status: atomic.NewInt32(int32(Ready))}
	s.reset()
	return s
}

func (s *slot) reset() {
	s.status.Store(int32(Ready))
	s.errVal = HandleError{Kind: ErrorNone, GPU: gpu.Success}
	s.fenceRef = FenceRef{}
}

// Pool allocates handles backed by a growable slot sequence, with a LIFO
// stack of free indices for cache locality.
//
// Per spec: growth of the slot sequence from submitter goroutines happens
// concurrently with the worker indexing into already-issued slots. mu
// guards the slot sequence and free-index stack (allocate/free/grow);
// it does NOT guard per-slot fields, which use their own atomics. This
// matches the documented contract that allocate/free must be externally
// serialized with respect to in-flight operations on the SAME handle, but
// growth must never race a read of an already-issued slot's identity.
type Pool struct {
	mu        sync.Mutex
	slots     *dynseq.Seq[*slot]
	freeStack []int
}

// New creates a pool with initialCapacity slots (minimum 1). Index 0 is
// permanently reserved as the Invalid sentinel and is never pushed onto
// the free stack; indices [1, initialCapacity) are freed in descending
// order so the first allocation yields index 1.
func New(initialCapacity int) *Pool {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	p := &Pool{slots: dynseq.New[*slot](initialCapacity)}
	p.growSlots(initialCapacity)
	// Index 0 was just pushed (descending order puts it at the stack
	// top); drop it so Allocate can never return the Invalid sentinel.
	if n := len(p.freeStack); n > 0 && p.freeStack[n-1] == 0 {
		p.freeStack = p.freeStack[:n-1]
	}
	return p
}

// growSlots extends the slot sequence to newCount, appending fresh slots
// and pushing their indices onto the free stack in descending order.
func (p *Pool) growSlots(newCount int) {
	old := p.slots.Len()
	p.slots.Resize(newCount)
	for i := old; i < newCount; i++ {
		*p.slots.At(i) = newSlot()
	}
	for i := newCount - 1; i >= old; i-- {
		p.freeStack = append(p.freeStack, i)
	}
}

// Allocate pops a free index, doubling capacity first if none is
// available. Fails only if newCount would be non-positive, which cannot
// happen for a pool created via New.
func (p *Pool) Allocate() (Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeStack) == 0 {
		current := p.slots.Len()
		next := current * 2
		if next <= current {
			next = current + 1
		}
		p.growSlots(next)
	}

	n := len(p.freeStack)
	idx := p.freeStack[n-1]
	p.freeStack = p.freeStack[:n-1]

	s := *p.slots.At(idx)
	s.valid = true
	s.reset()

	return Handle(idx), true
}

// Free resets the slot and returns its index to the free stack. A no-op
// if the handle is out of range or already free.
func (p *Pool) Free(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := int(h)
	if idx < 0 || idx >= p.slots.Len() {
		return
	}
	s := *p.slots.At(idx)
	if !s.valid {
		return
	}
	s.reset()
	s.valid = false
	p.freeStack = append(p.freeStack, idx)
}

// lookup returns the slot for h, or nil if out of range, unallocated, or
// the reserved Invalid sentinel.
func (p *Pool) lookup(h Handle) *slot {
	if h == Invalid {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx := int(h)
	if idx < 0 || idx >= p.slots.Len() {
		return nil
	}
	s := *p.slots.At(idx)
	if !s.valid {
		return nil
	}
	return s
}

// Reset restores the slot to defaults (Ready, no error, no fence ref)
// without freeing it. A no-op on an invalid handle.
func (p *Pool) Reset(h Handle) {
	s := p.lookup(h)
	if s == nil {
		return
	}
	s.reset()
}

// SetFence stores the fence reference. Must be called before the
// corresponding PublishStatus(h, Executing) — see package doc.
func (p *Pool) SetFence(h Handle, ref FenceRef) {
	s := p.lookup(h)
	if s == nil {
		return
	}
	s.fenceRef = ref
}

// PublishStatus atomically stores status with release ordering (Go's
// atomic.Int32.Store already guarantees at least this on every supported
// architecture).
func (p *Pool) PublishStatus(h Handle, status Status) {
	s := p.lookup(h)
	if s == nil {
		return
	}
	s.status.Store(int32(status))
}

// Status atomically loads the handle's status. ok is false if h is not a
// currently-allocated handle.
func (p *Pool) Status(h Handle) (status Status, ok bool) {
	s := p.lookup(h)
	if s == nil {
		return 0, false
	}
	return Status(s.status.Load()), true
}

// FenceRef returns the handle's stored fence reference. ok is false if h
// is not currently allocated.
func (p *Pool) FenceRef(h Handle) (ref FenceRef, ok bool) {
	s := p.lookup(h)
	if s == nil {
		return FenceRef{}, false
	}
	return s.fenceRef, true
}

// Error returns the handle's error record. ok is false if h is not
// currently allocated; the record is only meaningful when Status == Error.
func (p *Pool) Error(h Handle) (herr HandleError, ok bool) {
	s := p.lookup(h)
	if s == nil {
		return HandleError{}, false
	}
	return s.errVal, true
}

// SetErrorGPU fills the error record with a GPU result, then publishes
// Error. Writes to the error field precede the status store, so any
// observer seeing Error also sees the matching payload.
func (p *Pool) SetErrorGPU(h Handle, code gpu.Result) {
	s := p.lookup(h)
	if s == nil {
		return
	}
	s.errVal = HandleError{Kind: ErrorGPU, GPU: code}
	s.status.Store(int32(Error))
}

// SetErrorInternal fills the error record with an internal code, then
// publishes Error.
func (p *Pool) SetErrorInternal(h Handle, code InternalCode) {
	s := p.lookup(h)
	if s == nil {
		return
	}
	s.errVal = HandleError{Kind: ErrorInternal, Internal: code}
	s.status.Store(int32(Error))
}

// Len reports the current slot count (allocated + free), mainly for
// metrics.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slots.Len()
}

// Free count, mainly for metrics.
func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.freeStack)
}
