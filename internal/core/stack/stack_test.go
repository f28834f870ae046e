package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/internal/core/env"
)

func TestStackLIFO(t *testing.T) {
	var s Stack
	_, ok := s.Pop()
	assert.False(t, ok)
	_, ok = s.Peek()
	assert.False(t, ok)

	a := Arg{Thunk: env.NewForcedThunk(env.VNum{N: 1})}
	b := Thunk{Handle: env.NewForcedThunk(env.VNum{N: 2})}
	s.Push(a)
	s.Push(b)
	assert.Equal(t, 2, s.Len())

	top, ok := s.Peek()
	require.True(t, ok)
	assert.IsType(t, Thunk{}, top)
	assert.Equal(t, 2, s.Len(), "peek must not pop")

	f, ok := s.Pop()
	require.True(t, ok)
	assert.IsType(t, Thunk{}, f)
	f, ok = s.Pop()
	require.True(t, ok)
	assert.IsType(t, Arg{}, f)
	assert.Equal(t, 0, s.Len())
}

func TestStackTruncate(t *testing.T) {
	var s Stack
	for i := 0; i < 5; i++ {
		s.Push(Arg{})
	}
	s.Truncate(2)
	assert.Equal(t, 2, s.Len())
	// Truncating to a larger length is a no-op.
	s.Truncate(10)
	assert.Equal(t, 2, s.Len())
}
