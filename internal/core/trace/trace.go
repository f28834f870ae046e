// Package trace implements the synchronous sink std.trace writes
// through: evaluation is single-
// threaded, so a trace write happens exactly at the point the traced
// expression is forced, with no buffering semantics beyond whatever
// the underlying io.Writer itself provides.
package trace

import (
	"fmt"
	"io"
)

// Sink is a destination for std.trace output. The zero value, like a
// nil *Sink, discards every message; construct one with NewSink.
type Sink struct {
	w io.Writer
}

// NewSink wraps w as a trace destination.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Write records one traced message, tagged with the label the caller
// passed to std.trace so multiple trace sites in one program stay
// distinguishable in the output stream.
func (s *Sink) Write(label, message string) error {
	if s == nil || s.w == nil {
		return nil
	}
	_, err := fmt.Fprintf(s.w, "[%s] %s\n", label, message)
	return err
}
