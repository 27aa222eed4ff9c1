// Package transfer implements an asynchronous GPU transfer engine: a
// concurrent dispatcher that lets application goroutines submit
// buffer/image-copy requests to a dedicated GPU transfer queue without
// blocking, then poll for completion through opaque handles.
//
// The graphics API itself (device, queues, command-buffer recording,
// barrier semantics) is consumed through the narrow internal/gpu
// capability interface; this package owns only the concurrent submission
// pipeline on top of it.
package transfer

import (
	"github.com/imalexlee/vk-async-transfer/internal/gpu"
	"github.com/imalexlee/vk-async-transfer/internal/handlepool"
)

// Handle is an opaque, engine-issued identifier for a pending or
// completed transfer. It is only valid for the Engine that issued it.
type Handle = handlepool.Handle

// HandleInvalid is the reserved handle value never returned by
// AllocateHandle.
const HandleInvalid = handlepool.Invalid

// Status is the lifecycle state of a handle.
type Status = handlepool.Status

const (
	StatusReady     = handlepool.Ready
	StatusPending   = handlepool.Pending
	StatusExecuting = handlepool.Executing
	StatusComplete  = handlepool.Complete
	StatusError     = handlepool.Error
)

// Type tags the kind of transfer a Request describes. It is an open sum;
// BufferToImage and ImageToImage supplement the buffer-to-buffer transfer
// the distilled spec names, per design note §9.
type Type int

const (
	BufferToBuffer Type = iota
	BufferToImage
	ImageToImage
)

func (t Type) String() string {
	switch t {
	case BufferToBuffer:
		return "BufferToBuffer"
	case BufferToImage:
		return "BufferToImage"
	case ImageToImage:
		return "ImageToImage"
	default:
		return "Unknown"
	}
}

// Location is either a buffer or an image, tagged by the Request's Type.
type Location struct {
	Buffer gpu.Buffer
	Image  gpu.Image
}

// Request describes one transfer submission. It carries the handle so
// the worker can publish status into its slot without any further lookup
// through a shared map.
//
// DstAccessMask and DstStageMask are optional; a zero value substitutes
// the safest, most permissive barrier masks (see worker.go).
type Request struct {
	Handle        Handle
	Type          Type
	Src           Location
	Dst           Location
	DstAccessMask gpu.AccessFlags
	DstStageMask  gpu.PipelineStageFlags
}

// BufferToBufferRequest is the public, type-narrowed request shape for
// SubmitBufferToBuffer.
type BufferToBufferRequest struct {
	Handle        Handle
	Src           gpu.Buffer
	Dst           gpu.Buffer
	DstAccessMask gpu.AccessFlags
	DstStageMask  gpu.PipelineStageFlags
}

// BufferToImageRequest is the public, type-narrowed request shape for
// SubmitBufferToImage.
type BufferToImageRequest struct {
	Handle        Handle
	Src           gpu.Buffer
	Dst           gpu.Image
	DstAccessMask gpu.AccessFlags
	DstStageMask  gpu.PipelineStageFlags
}

// ImageToImageRequest is the public, type-narrowed request shape for
// SubmitImageToImage.
type ImageToImageRequest struct {
	Handle        Handle
	Src           gpu.Image
	Dst           gpu.Image
	DstAccessMask gpu.AccessFlags
	DstStageMask  gpu.PipelineStageFlags
}
