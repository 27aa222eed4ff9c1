package transfer

import (
	"context"
	"time"

	"github.com/imalexlee/vk-async-transfer/internal/gpu"
	"github.com/imalexlee/vk-async-transfer/internal/handlepool"
	"github.com/imalexlee/vk-async-transfer/internal/rotation"
	"go.uber.org/atomic"
)

// Engine is the public façade: it owns the request queue, the handle
// pool, the command-buffer/fence rotation, and the single worker
// goroutine that drains submissions onto the GPU.
type Engine struct {
	cap    gpu.Capability
	device gpu.Device
	pool   gpu.CommandPool
	queue  gpu.Queue

	handles  *handlepool.Pool
	rot      *rotation.Rotation
	requests *requestQueue
	worker   *worker

	cfg Config
	log Logger

	metricsStop  chan struct{}
	shuttingDown *atomic.Bool
}

// publishPending satisfies requestQueue's handlePublisher interface.
func (e *Engine) publishPending(h Handle) {
	e.handles.PublishStatus(h, handlepool.Pending)
}

// New initializes an Engine bound to device/queueFamily/queueIndex,
// using capability c for all graphics-API calls. Capability c must
// outlive the returned Engine.
func New(c gpu.Capability, device gpu.Device, queueFamily, queueIndex uint32, opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	log := loggerOrDefault(cfg.logger)

	rot, cmdPool, err := rotation.New(context.Background(), c, device, queueFamily, cfg.CommandBufferCount)
	if err != nil {
		return nil, wrapf(err, "transfer: init rotation")
	}

	e := &Engine{
		cap:          c,
		device:       device,
		pool:         cmdPool,
		queue:        c.GetQueue(device, queueFamily, queueIndex),
		handles:      handlepool.New(cfg.HandlePoolInitialCapacity),
		rot:          rot,
		cfg:          cfg,
		log:          log,
		metricsStop:  make(chan struct{}),
		shuttingDown: atomic.NewBool(false),
	}
	e.requests = newRequestQueue(cfg.QueueDepth, e)
	e.worker = newWorker(e.requests, e.rot, e.handles, e.cap, e.device, e.queue, e.log)

	go e.worker.run()
	go reportQueueLength(e.requests, e.handles, e.metricsStop)

	return e, nil
}

// AllocateHandle reserves a fresh handle in StatusReady.
func (e *Engine) AllocateHandle() (Handle, error) {
	h, ok := e.handles.Allocate()
	if !ok {
		return HandleInvalid, ErrHandleExhausted
	}
	return h, nil
}

// FreeHandle releases h back to the pool. A no-op on an invalid or
// already-free handle.
func (e *Engine) FreeHandle(h Handle) {
	e.handles.Free(h)
}

// ResetHandle restores h to StatusReady, clearing any prior error or
// fence reference, without freeing its slot. Callers use this to retry
// a submission after observing StatusError.
func (e *Engine) ResetHandle(h Handle) {
	e.handles.Reset(h)
}

// Status reports h's current lifecycle state, resolving the generation
// check against the rotation when h is parked at StatusExecuting.
func (e *Engine) Status(h Handle) (Status, error) {
	return queryStatus(e.handles, e.rot, e.cap, e.device, h)
}

// Error returns h's recorded error detail. Only meaningful once Status
// reports StatusError.
func (e *Engine) Error(h Handle) (HandleErrorInfo, error) {
	herr, ok := e.handles.Error(h)
	if !ok {
		return HandleErrorInfo{}, ErrInvalidHandle
	}
	return HandleErrorInfo(herr), nil
}

// HandleErrorInfo mirrors handlepool.HandleError for the public API
// surface, so callers never import internal/handlepool directly.
type HandleErrorInfo handlepool.HandleError

// SubmitBufferToBuffer enqueues a buffer-to-buffer copy for req.Handle,
// which must have been obtained from AllocateHandle and be in
// StatusReady.
func (e *Engine) SubmitBufferToBuffer(req BufferToBufferRequest) error {
	return e.submit(Request{
		Handle:        req.Handle,
		Type:          BufferToBuffer,
		Src:           Location{Buffer: req.Src},
		Dst:           Location{Buffer: req.Dst},
		DstAccessMask: req.DstAccessMask,
		DstStageMask:  req.DstStageMask,
	})
}

// SubmitBufferToImage enqueues a buffer-to-image copy.
func (e *Engine) SubmitBufferToImage(req BufferToImageRequest) error {
	return e.submit(Request{
		Handle:        req.Handle,
		Type:          BufferToImage,
		Src:           Location{Buffer: req.Src},
		Dst:           Location{Image: req.Dst},
		DstAccessMask: req.DstAccessMask,
		DstStageMask:  req.DstStageMask,
	})
}

// SubmitImageToImage enqueues an image-to-image copy.
func (e *Engine) SubmitImageToImage(req ImageToImageRequest) error {
	return e.submit(Request{
		Handle:        req.Handle,
		Type:          ImageToImage,
		Src:           Location{Image: req.Src},
		Dst:           Location{Image: req.Dst},
		DstAccessMask: req.DstAccessMask,
		DstStageMask:  req.DstStageMask,
	})
}

func (e *Engine) submit(req Request) error {
	if e.shuttingDown.Load() {
		return ErrShuttingDown
	}

	// Clear any prior status/error/fence ref before handing the handle
	// back to the worker, per the submit façade contract (§4.7).
	e.handles.Reset(req.Handle)

	if err := e.requests.Enqueue(req); err != nil {
		return err
	}
	logSubmit(e.log, req.Handle, req.Type)
	metricSubmissionsTotal.WithLabelValues(req.Type.String()).Inc()
	return nil
}

// Shutdown stops accepting new submissions, waits for the worker to
// drain already-queued requests, then waits (bounded by cfg's
// ShutdownDrainTimeoutMS, or ctx, whichever is stricter) for the GPU to
// go idle before releasing fences and the command pool.
func (e *Engine) Shutdown(ctx context.Context) error {
	length, _ := e.requests.Stats()
	logShutdown(e.log, length)

	e.shuttingDown.Store(true)
	e.requests.Close()
	<-e.worker.done
	close(e.metricsStop)

	if e.cfg.ShutdownDrainTimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.ShutdownDrainTimeoutMS)*time.Millisecond)
		defer cancel()
	}

	idleDone := make(chan error, 1)
	go func() { idleDone <- e.cap.WaitIdle(e.device) }()

	select {
	case err := <-idleDone:
		if err != nil {
			return wrapf(err, "transfer: wait idle at shutdown")
		}
	case <-ctx.Done():
		return wrapf(ctx.Err(), "transfer: wait idle at shutdown")
	}

	e.rot.Destroy()
	e.cap.DestroyCommandPool(e.device, e.pool)
	return nil
}
