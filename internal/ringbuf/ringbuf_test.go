package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPopFIFOOrder(t *testing.T) {
	r := New[int](2)
	r.Push(1)
	r.Push(2)

	v, ok := r.Pop()
	require.True(t, ok)
	require.Equal(t, 1, v)

	r.Push(3) // wraps around into the front slot freed by the Pop above
	r.Push(4) // ring is full again, so this grows it

	for _, want := range []int{2, 3, 4} {
		v, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
}

func TestGrowPreservesOrder(t *testing.T) {
	r := New[int](2)
	r.Push(1)
	r.Push(2)
	_, _ = r.Pop() // front now at index 1, triggers wrap on next growth case
	r.Push(3)
	r.Push(4) // full again at capacity 2, forces grow to 4

	require.Equal(t, 3, r.Len())
	for _, want := range []int{2, 3, 4} {
		v, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
}

func TestPopEmpty(t *testing.T) {
	r := New[int](1)
	_, ok := r.Pop()
	require.False(t, ok)
}

func TestBoundedGrowthRetainsAllEntries(t *testing.T) {
	r := New[int](100)
	for i := 0; i < 101; i++ {
		r.Push(i)
	}
	require.Equal(t, 101, r.Len())
	for i := 0; i < 101; i++ {
		v, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}
