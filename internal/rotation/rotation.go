// Package rotation implements the fixed-size command-buffer/fence/
// generation rotation the worker claims slots from. Each fence starts
// signaled so the first claim succeeds immediately; the generation
// counter is bumped every time a slot is claimed for a new submission,
// which is what lets the status-query protocol detect "my fence has
// been reused by a later submission" (the ABA-breaker).
package rotation

import (
	"context"
	"fmt"

	"github.com/imalexlee/vk-async-transfer/internal/gpu"
	"go.uber.org/atomic"
)

type slot struct {
	cmd        gpu.CommandBuffer
	fence      gpu.Fence
	generation *atomic.Uint64
}

// Rotation is a fixed-size ring of (command buffer, fence, generation)
// triples.
type Rotation struct {
	device gpu.Device
	cap    gpu.Capability
	slots  []slot
	cursor *atomic.Uint64 // round-robin scan start, advanced once per ClaimAvailable call
}

// New allocates a command pool on queueFamily, n primary command buffers,
// and n initially-signaled fences.
func New(ctx context.Context, cp gpu.Capability, device gpu.Device, queueFamily uint32, n int) (*Rotation, gpu.CommandPool, error) {
	if n < 1 {
		return nil, 0, fmt.Errorf("rotation: size must be positive, got %d", n)
	}

	pool, err := cp.CreateCommandPool(device, queueFamily)
	if err != nil {
		return nil, 0, fmt.Errorf("rotation: create command pool: %w", err)
	}

	bufs, err := cp.AllocateCommandBuffers(device, pool, n)
	if err != nil {
		cp.DestroyCommandPool(device, pool)
		return nil, 0, fmt.Errorf("rotation: allocate command buffers: %w", err)
	}

	r := &Rotation{device: device, cap: cp, slots: make([]slot, n), cursor: atomic.NewUint64(0)}
	for i := 0; i < n; i++ {
		fence, err := cp.CreateFence(device, true)
		if err != nil {
			r.destroyFencesUpTo(i)
			cp.DestroyCommandPool(device, pool)
			return nil, 0, fmt.Errorf("rotation: create fence %d: %w", i, err)
		}
		r.slots[i].cmd = bufs[i]
		r.slots[i].fence = fence
		r.slots[i].generation = atomic.NewUint64(0)
	}

	return r, pool, nil
}

func (r *Rotation) destroyFencesUpTo(n int) {
	for i := 0; i < n; i++ {
		r.cap.DestroyFence(r.device, r.slots[i].fence)
	}
}

// Len returns the rotation size (N).
func (r *Rotation) Len() int {
	return len(r.slots)
}

// CommandBuffer returns the command buffer for slot index.
func (r *Rotation) CommandBuffer(index int) gpu.CommandBuffer {
	return r.slots[index].cmd
}

// Fence returns the fence for slot index.
func (r *Rotation) Fence(index int) gpu.Fence {
	return r.slots[index].fence
}

// Generation atomically loads slot index's current generation.
func (r *Rotation) Generation(index int) uint64 {
	return r.slots[index].generation.Load()
}

// ClaimAvailable scans the rotation round-robin for a signaled fence,
// bumping its generation on success and returning its index. It does not
// sleep between attempts (the worker is single-threaded and the number of
// inflight transfers is bounded by N, so a spin is acceptable per the
// design), but it checks ctx between sweeps so a caller can bound the
// spin rather than diverge forever when no fence ever signals.
func (r *Rotation) ClaimAvailable(ctx context.Context) (int, error) {
	n := uint64(len(r.slots))
	start := r.cursor.Add(1) % n

	for {
		for i := uint64(0); i < n; i++ {
			idx := (start + i) % n
			res := r.cap.FenceStatus(r.device, r.slots[idx].fence)
			switch res {
			case gpu.Success:
				r.slots[idx].generation.Add(1)
				return int(idx), nil
			case gpu.NotReady:
				continue
			default:
				return 0, fmt.Errorf("rotation: fence status: %s", res)
			}
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
	}
}

// Destroy releases all fences (the command pool is owned and released by
// the caller, since it is allocated alongside the rotation in New but the
// caller may still be using it for other bookkeeping at teardown time).
func (r *Rotation) Destroy() {
	for i := range r.slots {
		r.cap.DestroyFence(r.device, r.slots[i].fence)
	}
}
