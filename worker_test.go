package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/imalexlee/vk-async-transfer/internal/gpu"
	"github.com/imalexlee/vk-async-transfer/internal/handlepool"
	"github.com/imalexlee/vk-async-transfer/internal/rotation"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, n int) (*worker, *requestQueue, *handlepool.Pool, *gpu.Mock) {
	t.Helper()
	mock := gpu.NewMock()
	rot, _, err := rotation.New(context.Background(), mock, gpu.Device(1), 0, n)
	require.NoError(t, err)
	pool := handlepool.New(4)
	q := newRequestQueue(4, poolPublisher{pool})
	w := newWorker(q, rot, pool, mock, gpu.Device(1), mock.GetQueue(gpu.Device(1), 0, 0), NewDefaultLogger())
	return w, q, pool, mock
}

type poolPublisher struct{ pool *handlepool.Pool }

func (p poolPublisher) publishPending(h Handle) { p.pool.PublishStatus(h, handlepool.Pending) }

func TestWorkerProcessPublishesExecutingWithFenceRef(t *testing.T) {
	w, _, pool, _ := newTestWorker(t, 2)
	h, _ := pool.Allocate()

	w.process(Request{Handle: h, Type: BufferToBuffer, Src: Location{Buffer: 1}, Dst: Location{Buffer: 2}})

	status, ok := pool.Status(h)
	require.True(t, ok)
	require.Equal(t, handlepool.Executing, status)

	ref, ok := pool.FenceRef(h)
	require.True(t, ok)
	require.NotZero(t, ref.Fence)
}

func TestWorkerProcessUnknownTypeSetsGPUError(t *testing.T) {
	w, _, pool, _ := newTestWorker(t, 1)
	h, _ := pool.Allocate()

	w.process(Request{Handle: h, Type: Type(99)})

	status, ok := pool.Status(h)
	require.True(t, ok)
	require.Equal(t, handlepool.Error, status)
}

func TestWorkerProcessQueueSubmitFailureTaintsHandle(t *testing.T) {
	w, _, pool, mock := newTestWorker(t, 1)
	mock.FailQueueSubmit = gpu.ErrDeviceLost

	h, _ := pool.Allocate()
	w.process(Request{Handle: h, Type: BufferToBuffer, Src: Location{Buffer: 1}, Dst: Location{Buffer: 2}})

	status, ok := pool.Status(h)
	require.True(t, ok)
	require.Equal(t, handlepool.Error, status)

	herr, ok := pool.Error(h)
	require.True(t, ok)
	require.Equal(t, handlepool.ErrorGPU, herr.Kind)
}

func TestWorkerRunDrainsQueueUntilClosed(t *testing.T) {
	w, q, pool, mock := newTestWorker(t, 1)
	h, _ := pool.Allocate()
	require.NoError(t, q.Enqueue(Request{Handle: h, Type: BufferToBuffer, Src: Location{Buffer: 1}, Dst: Location{Buffer: 2}}))

	go w.run()

	require.Eventually(t, func() bool {
		status, _ := pool.Status(h)
		return status == handlepool.Executing
	}, time.Second, time.Millisecond)

	q.Close()
	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after queue close")
	}

	_ = mock
}
