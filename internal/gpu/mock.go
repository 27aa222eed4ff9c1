package gpu

import "sync"

var _ Capability = (*Mock)(nil)

// Mock is an in-memory Capability implementation for tests. Fences start
// in the signaled/unsignaled state requested at creation and are flipped
// by the test via Signal; nothing here touches a real GPU.
//
// Per-call failures can be injected by setting the matching Fail* field
// before the call is expected to occur.
type Mock struct {
	mu       sync.Mutex
	nextID   uint64
	signaled map[Fence]bool

	FailCreateCommandPool     error
	FailAllocateCommandBuffer error
	FailCreateFence           error
	FailResetFence            error
	FailBeginCommandBuffer    error
	FailEndCommandBuffer      error
	FailQueueSubmit           error

	// FenceStatusOverride, when non-nil for a fence, is returned verbatim
	// instead of the tracked signaled/not-ready state (used to simulate
	// FenceStatus errors other than Success/NotReady).
	FenceStatusOverride map[Fence]Result

	SubmitCount int
}

// NewMock creates a ready-to-use mock capability.
func NewMock() *Mock {
	return &Mock{
		signaled:            make(map[Fence]bool),
		FenceStatusOverride: make(map[Fence]Result),
	}
}

func (m *Mock) newID() uint64 {
	m.nextID++
	return m.nextID
}

func (m *Mock) CreateCommandPool(Device, uint32) (CommandPool, error) {
	if m.FailCreateCommandPool != nil {
		return 0, m.FailCreateCommandPool
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return CommandPool(m.newID()), nil
}

func (m *Mock) DestroyCommandPool(Device, CommandPool) {}

func (m *Mock) AllocateCommandBuffers(_ Device, _ CommandPool, count int) ([]CommandBuffer, error) {
	if m.FailAllocateCommandBuffer != nil {
		return nil, m.FailAllocateCommandBuffer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bufs := make([]CommandBuffer, count)
	for i := range bufs {
		bufs[i] = CommandBuffer(m.newID())
	}
	return bufs, nil
}

func (m *Mock) GetQueue(_ Device, _, _ uint32) Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Queue(m.newID())
}

func (m *Mock) CreateFence(_ Device, signaled bool) (Fence, error) {
	if m.FailCreateFence != nil {
		return 0, m.FailCreateFence
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := Fence(m.newID())
	m.signaled[f] = signaled
	return f, nil
}

func (m *Mock) DestroyFence(_ Device, f Fence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.signaled, f)
	delete(m.FenceStatusOverride, f)
}

func (m *Mock) ResetFence(_ Device, f Fence) error {
	if m.FailResetFence != nil {
		return m.FailResetFence
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signaled[f] = false
	return nil
}

func (m *Mock) FenceStatus(_ Device, f Fence) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if override, ok := m.FenceStatusOverride[f]; ok {
		return override
	}
	if m.signaled[f] {
		return Success
	}
	return NotReady
}

func (m *Mock) WaitIdle(Device) error { return nil }

func (m *Mock) BeginCommandBuffer(CommandBuffer) error { return m.FailBeginCommandBuffer }

func (m *Mock) EndCommandBuffer(CommandBuffer) error { return m.FailEndCommandBuffer }

func (m *Mock) CmdPipelineBarrierBuffer(CommandBuffer, AccessFlags, PipelineStageFlags, Buffer) {}

func (m *Mock) CmdCopyBuffer(CommandBuffer, Buffer, Buffer) {}

func (m *Mock) CmdPipelineBarrierImage(CommandBuffer, AccessFlags, PipelineStageFlags, Image) {}

func (m *Mock) CmdCopyBufferToImage(CommandBuffer, Buffer, Image) {}

func (m *Mock) CmdCopyImage(CommandBuffer, Image, Image) {}

func (m *Mock) QueueSubmit(_ Queue, _ CommandBuffer, fence Fence) error {
	if m.FailQueueSubmit != nil {
		return m.FailQueueSubmit
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCount++
	// Leaves the fence unsignaled: the test drives completion explicitly
	// via Signal, standing in for the real GPU finishing the work.
	m.signaled[fence] = false
	return nil
}

// Signal marks fence as completed, as if the GPU had finished the
// submission it was attached to.
func (m *Mock) Signal(f Fence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signaled[f] = true
}
