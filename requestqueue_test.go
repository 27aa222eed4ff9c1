package transfer

import (
	"testing"
	"time"

	"github.com/imalexlee/vk-async-transfer/internal/handlepool"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	pool *handlepool.Pool
}

func (r *recordingPublisher) publishPending(h Handle) {
	r.pool.PublishStatus(h, handlepool.Pending)
}

func TestEnqueuePublishesPendingBeforeDequeueObservesIt(t *testing.T) {
	pool := handlepool.New(4)
	h, _ := pool.Allocate()
	q := newRequestQueue(2, &recordingPublisher{pool: pool})

	require.NoError(t, q.Enqueue(Request{Handle: h, Type: BufferToBuffer}))

	status, ok := pool.Status(h)
	require.True(t, ok)
	require.Equal(t, handlepool.Pending, status)

	req, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, h, req.Handle)
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	pool := handlepool.New(4)
	q := newRequestQueue(2, &recordingPublisher{pool: pool})

	h, _ := pool.Allocate()
	done := make(chan Request, 1)
	go func() {
		req, ok := q.Dequeue()
		require.True(t, ok)
		done <- req
	}()

	select {
	case <-done:
		t.Fatal("dequeue returned before enqueue")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Enqueue(Request{Handle: h}))

	select {
	case req := <-done:
		require.Equal(t, h, req.Handle)
	case <-time.After(time.Second):
		t.Fatal("dequeue never unblocked")
	}
}

func TestCloseDrainsPendingThenReturnsNotOK(t *testing.T) {
	pool := handlepool.New(4)
	q := newRequestQueue(2, &recordingPublisher{pool: pool})

	h, _ := pool.Allocate()
	require.NoError(t, q.Enqueue(Request{Handle: h}))
	q.Close()

	req, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, h, req.Handle)

	_, ok = q.Dequeue()
	require.False(t, ok)
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	pool := handlepool.New(4)
	q := newRequestQueue(2, &recordingPublisher{pool: pool})
	q.Close()

	h, _ := pool.Allocate()
	require.ErrorIs(t, q.Enqueue(Request{Handle: h}), ErrQueueClosed)
}

func TestStatsReportsGrowthPastInitialCapacity(t *testing.T) {
	pool := handlepool.New(4)
	q := newRequestQueue(2, &recordingPublisher{pool: pool})

	for i := 0; i < 5; i++ {
		h, _ := pool.Allocate()
		require.NoError(t, q.Enqueue(Request{Handle: h}))
	}

	length, capacity := q.Stats()
	require.Equal(t, 5, length)
	require.GreaterOrEqual(t, capacity, 5)
}
