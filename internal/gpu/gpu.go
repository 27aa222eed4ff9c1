// Package gpu defines the narrow capability interface the transfer engine
// consumes from the underlying graphics API. It intentionally models only
// the subset of Vulkan-shaped operations the engine needs: command pools,
// command buffers, fences, and queue submission. A real binding (e.g. over
// cgo/Vulkan) is out of scope for this module; internal/gpu/mock.go is the
// only concrete implementation shipped here, for tests.
package gpu

import "errors"

// Result mirrors the three-way outcome of a non-blocking fence query.
type Result int32

const (
	Success Result = iota
	NotReady
	Timeout
	ErrorDeviceLost
	ErrorUnknown
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case NotReady:
		return "NotReady"
	case Timeout:
		return "Timeout"
	case ErrorDeviceLost:
		return "ErrorDeviceLost"
	default:
		return "ErrorUnknown"
	}
}

// ErrDeviceLost is returned when a capability call observes device loss.
var ErrDeviceLost = errors.New("gpu: device lost")

// Opaque resource identifiers. These are caller-meaningless integers, not
// pointers, matching the "raw sentinel handles" re-architecture guidance.
type (
	Device        uint64
	Queue         uint64
	CommandPool   uint64
	CommandBuffer uint64
	Fence         uint64
	Buffer        uint64
	Image         uint64
)

// AccessFlags and PipelineStageFlags model the barrier mask bits the
// engine needs. Zero means "unspecified"; the worker substitutes the
// permissive defaults described in spec.md §4.6.
type AccessFlags uint32

const (
	AccessMemoryRead AccessFlags = 1 << iota
	AccessMemoryWrite
	AccessTransferWrite
)

type PipelineStageFlags uint32

const (
	StageTransfer PipelineStageFlags = 1 << iota
	StageAllCommands
)

// QueueFamilyIgnored is the sentinel used for both sides of a barrier when
// the engine owns a single queue family for transfers.
const QueueFamilyIgnored uint32 = 0xFFFFFFFF

// Capability is the full set of graphics-API operations the engine uses.
type Capability interface {
	CreateCommandPool(device Device, queueFamily uint32) (CommandPool, error)
	DestroyCommandPool(device Device, pool CommandPool)
	AllocateCommandBuffers(device Device, pool CommandPool, count int) ([]CommandBuffer, error)
	GetQueue(device Device, queueFamily, index uint32) Queue

	CreateFence(device Device, signaled bool) (Fence, error)
	DestroyFence(device Device, fence Fence)
	ResetFence(device Device, fence Fence) error
	FenceStatus(device Device, fence Fence) Result
	WaitIdle(device Device) error

	BeginCommandBuffer(cmd CommandBuffer) error
	EndCommandBuffer(cmd CommandBuffer) error

	CmdPipelineBarrierBuffer(cmd CommandBuffer, dstAccess AccessFlags, dstStage PipelineStageFlags, buf Buffer)
	CmdCopyBuffer(cmd CommandBuffer, src, dst Buffer)

	CmdPipelineBarrierImage(cmd CommandBuffer, dstAccess AccessFlags, dstStage PipelineStageFlags, img Image)
	CmdCopyBufferToImage(cmd CommandBuffer, src Buffer, dst Image)
	CmdCopyImage(cmd CommandBuffer, src, dst Image)

	QueueSubmit(queue Queue, cmd CommandBuffer, fence Fence) error
}
