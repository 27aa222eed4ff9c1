package transfer

import (
	"context"

	"github.com/imalexlee/vk-async-transfer/internal/gpu"
	"github.com/imalexlee/vk-async-transfer/internal/handlepool"
	"github.com/imalexlee/vk-async-transfer/internal/rotation"
)

// worker is the single goroutine that dequeues requests, claims a
// rotation slot, records and submits a command buffer, then publishes
// StatusExecuting. It never blocks the submitter goroutines; a failure
// taints only the offending handle and the loop continues, matching the
// per-request error discipline documented for §4.6.
type worker struct {
	queue    *requestQueue
	rot      *rotation.Rotation
	pool     *handlepool.Pool
	cap      gpu.Capability
	device   gpu.Device
	gpuQueue gpu.Queue
	log      Logger
	done     chan struct{}
}

func newWorker(queue *requestQueue, rot *rotation.Rotation, pool *handlepool.Pool, c gpu.Capability, device gpu.Device, q gpu.Queue, log Logger) *worker {
	return &worker{
		queue:    queue,
		rot:      rot,
		pool:     pool,
		cap:      c,
		device:   device,
		gpuQueue: q,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (w *worker) run() {
	defer close(w.done)
	for {
		req, ok := w.queue.Dequeue()
		if !ok {
			return
		}
		w.process(req)
	}
}

func (w *worker) process(req Request) {
	slotIdx, err := w.rot.ClaimAvailable(context.Background())
	if err != nil {
		w.pool.SetErrorGPU(req.Handle, gpu.ErrorUnknown)
		logSubmitError(w.log, req.Handle, err)
		metricErrorsTotal.WithLabelValues("gpu").Inc()
		return
	}

	cmd := w.rot.CommandBuffer(slotIdx)
	fence := w.rot.Fence(slotIdx)

	if err := w.cap.ResetFence(w.device, fence); err != nil {
		w.pool.SetErrorGPU(req.Handle, gpu.ErrorUnknown)
		logSubmitError(w.log, req.Handle, err)
		metricErrorsTotal.WithLabelValues("gpu").Inc()
		return
	}

	if err := w.cap.BeginCommandBuffer(cmd); err != nil {
		w.pool.SetErrorGPU(req.Handle, gpu.ErrorUnknown)
		logSubmitError(w.log, req.Handle, err)
		metricErrorsTotal.WithLabelValues("gpu").Inc()
		return
	}

	if err := w.record(cmd, req); err != nil {
		w.pool.SetErrorGPU(req.Handle, gpu.ErrorUnknown)
		logSubmitError(w.log, req.Handle, err)
		metricErrorsTotal.WithLabelValues("gpu").Inc()
		return
	}

	if err := w.cap.EndCommandBuffer(cmd); err != nil {
		w.pool.SetErrorGPU(req.Handle, gpu.ErrorUnknown)
		logSubmitError(w.log, req.Handle, err)
		metricErrorsTotal.WithLabelValues("gpu").Inc()
		return
	}

	if err := w.cap.QueueSubmit(w.gpuQueue, cmd, fence); err != nil {
		w.pool.SetErrorGPU(req.Handle, gpu.ErrorUnknown)
		logSubmitError(w.log, req.Handle, err)
		metricErrorsTotal.WithLabelValues("gpu").Inc()
		return
	}

	// Fence ref must be written before the status store that publishes
	// it, so any goroutine observing StatusExecuting also observes the
	// matching slot/generation.
	w.pool.SetFence(req.Handle, handlepool.FenceRef{
		Fence:      fence,
		Generation: w.rot.Generation(slotIdx),
		SlotIndex:  slotIdx,
	})
	w.pool.PublishStatus(req.Handle, handlepool.Executing)
	logDispatch(w.log, req.Handle, slotIdx)
}

// record dispatches on Request.Type, substituting the permissive default
// barrier masks (AccessMemoryRead|AccessMemoryWrite / StageAllCommands)
// whenever the caller left DstAccessMask/DstStageMask at zero, per §4.6.
func (w *worker) record(cmd gpu.CommandBuffer, req Request) error {
	dstAccess := req.DstAccessMask
	if dstAccess == 0 {
		dstAccess = gpu.AccessMemoryRead | gpu.AccessMemoryWrite
	}
	dstStage := req.DstStageMask
	if dstStage == 0 {
		dstStage = gpu.StageAllCommands
	}

	switch req.Type {
	case BufferToBuffer:
		w.cap.CmdPipelineBarrierBuffer(cmd, dstAccess, dstStage, req.Dst.Buffer)
		w.cap.CmdCopyBuffer(cmd, req.Src.Buffer, req.Dst.Buffer)
		return nil
	case BufferToImage:
		w.cap.CmdPipelineBarrierImage(cmd, dstAccess, dstStage, req.Dst.Image)
		w.cap.CmdCopyBufferToImage(cmd, req.Src.Buffer, req.Dst.Image)
		return nil
	case ImageToImage:
		w.cap.CmdPipelineBarrierImage(cmd, dstAccess, dstStage, req.Dst.Image)
		w.cap.CmdCopyImage(cmd, req.Src.Image, req.Dst.Image)
		return nil
	default:
		return ErrUnknownTransferType
	}
}
