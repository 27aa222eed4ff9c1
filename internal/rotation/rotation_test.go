package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/imalexlee/vk-async-transfer/internal/gpu"
	"github.com/stretchr/testify/require"
)

func TestClaimAvailableSignaledImmediately(t *testing.T) {
	mock := gpu.NewMock()
	r, _, err := New(context.Background(), mock, 1, 0, 3)
	require.NoError(t, err)

	idx, err := r.ClaimAvailable(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), r.Generation(idx))
}

func TestClaimAvailableBumpsGenerationEachTime(t *testing.T) {
	mock := gpu.NewMock()
	r, _, err := New(context.Background(), mock, 1, 0, 1)
	require.NoError(t, err)

	idx1, err := r.ClaimAvailable(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), r.Generation(idx1))

	// Simulate completion so the same (only) slot is reclaimable.
	mock.Signal(r.Fence(idx1))

	idx2, err := r.ClaimAvailable(context.Background())
	require.NoError(t, err)
	require.Equal(t, idx1, idx2)
	require.Equal(t, uint64(2), r.Generation(idx2))
}

func TestClaimAvailableCancelsOnContext(t *testing.T) {
	mock := gpu.NewMock()
	r, _, err := New(context.Background(), mock, 1, 0, 2)
	require.NoError(t, err)

	// Claim both slots and reset their fences (as the worker would before
	// recording into them), so neither is signaled any more.
	idxA, err := r.ClaimAvailable(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ResetFence(gpu.Device(1), r.Fence(idxA)))

	idxB, err := r.ClaimAvailable(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ResetFence(gpu.Device(1), r.Fence(idxB)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = r.ClaimAvailable(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClaimAvailablePropagatesFenceStatusError(t *testing.T) {
	mock := gpu.NewMock()
	r, _, err := New(context.Background(), mock, 1, 0, 1)
	require.NoError(t, err)

	mock.FenceStatusOverride[r.Fence(0)] = gpu.ErrorDeviceLost

	_, err = r.ClaimAvailable(context.Background())
	require.Error(t, err)
}
