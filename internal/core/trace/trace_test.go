package trace

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkWrite(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)
	require.NoError(t, s.Write("std.trace", "hello"))
	require.NoError(t, s.Write("std.trace", "again"))
	assert.Equal(t, "[std.trace] hello\n[std.trace] again\n", buf.String())
}

func TestNilSinkIsNoop(t *testing.T) {
	var s *Sink
	assert.NoError(t, s.Write("l", "dropped"))
	assert.NoError(t, (&Sink{}).Write("l", "dropped"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSinkReportsWriteError(t *testing.T) {
	s := NewSink(failingWriter{})
	assert.Error(t, s.Write("l", "m"))
}
