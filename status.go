package transfer

import (
	"github.com/imalexlee/vk-async-transfer/internal/gpu"
	"github.com/imalexlee/vk-async-transfer/internal/handlepool"
	"github.com/imalexlee/vk-async-transfer/internal/rotation"
)

// queryStatus implements the generation-aware status protocol: a handle
// parked at StatusExecuting is only worth a live fence query if its
// recorded FenceRef.Generation still matches the rotation slot's current
// generation. If the rotation has moved the slot on to a later
// submission in the meantime, this handle's work is necessarily already
// complete — the fence it was waiting on has since been reset and
// resignaled for someone else, so querying it now would observe the
// wrong submission's result.
func queryStatus(pool *handlepool.Pool, rot *rotation.Rotation, cap gpu.Capability, device gpu.Device, h Handle) (Status, error) {
	status, ok := pool.Status(h)
	if !ok {
		return 0, ErrInvalidHandle
	}
	if status != handlepool.Executing {
		return status, nil
	}

	ref, ok := pool.FenceRef(h)
	if !ok {
		return 0, ErrInvalidHandle
	}

	if ref.Generation != rot.Generation(ref.SlotIndex) {
		pool.PublishStatus(h, handlepool.Complete)
		metricCompletionsTotal.Inc()
		return handlepool.Complete, nil
	}

	switch res := cap.FenceStatus(device, ref.Fence); res {
	case gpu.Success:
		pool.PublishStatus(h, handlepool.Complete)
		metricCompletionsTotal.Inc()
		return handlepool.Complete, nil
	case gpu.NotReady:
		return handlepool.Executing, nil
	default:
		pool.SetErrorGPU(h, res)
		metricErrorsTotal.WithLabelValues("gpu").Inc()
		return handlepool.Error, nil
	}
}
