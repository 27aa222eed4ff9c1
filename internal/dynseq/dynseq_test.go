package dynseq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushBackPopBack(t *testing.T) {
	s := New[int](2)
	s.PushBack(1)
	s.PushBack(2)
	s.PushBack(3) // forces growth past initial capacity

	require.Equal(t, 3, s.Len())

	v, ok := s.PopBack()
	require.True(t, ok)
	require.Equal(t, 3, v)
	require.Equal(t, 2, s.Len())
}

func TestPopBackEmpty(t *testing.T) {
	s := New[int](0)
	_, ok := s.PopBack()
	require.False(t, ok)
}

func TestResizeNeverShrinksAndStableIndices(t *testing.T) {
	s := New[int](1)
	s.Resize(5)
	require.Equal(t, 5, s.Len())

	*s.At(2) = 42
	s.Resize(10) // grow past it again

	require.Equal(t, 42, *s.At(2))
}

func TestResizeShrinkPanics(t *testing.T) {
	s := New[int](4)
	s.Resize(4)
	require.Panics(t, func() {
		s.Resize(2)
	})
}

func TestAtOutOfBoundsPanics(t *testing.T) {
	s := New[int](1)
	s.Resize(1)
	require.Panics(t, func() {
		_ = s.At(5)
	})
}
