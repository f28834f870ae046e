// Package stack implements the evaluator's explicit operation-
// continuation stack. The evaluator is written
// against this stack rather than host recursion so that stack depth
// tracks the nesting of strict operators, not the nesting of the source
// term, and so that evaluation can be resumed from outside a single
// eval() call (the virtual_machine_eval_shallow boundary entry point).
package stack

import (
	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/term"
)

// Frame is one entry of the evaluator's explicit stack.
type Frame interface {
	isFrame()
}

type frameBase struct{}

func (frameBase) isFrame() {}

// Arg is a pending application argument: when the term in WHNF turns
// out to be a Fun, the top Arg frame supplies the thunk it is applied
// to. It holds the argument pre-closurized into its own shared
// *env.Thunk rather than a bare Closure, so that an argument
// referenced more than once inside the
// function body (or popped back out by Ite/Seq without ever being
// applied) is forced at most once.
type Arg struct {
	frameBase
	Thunk *env.Thunk
	Span  *term.Span
}

// Thunk means "update this thunk with the current WHNF when reduction
// returns, then pop and continue with that WHNF still in hand".
type Thunk struct {
	frameBase
	Handle *env.Thunk
}

// Op1Cont is the continuation for a pending unary operation: once the
// operand reaches WHNF, dispatch to the unary handler for Op.
type Op1Cont struct {
	frameBase
	Op   term.UnaryOp
	Span *term.Span
	// Env is the environment the operator was written in. It is only
	// read by operators whose resumption needs an environment beyond
	// the value being dispatched on — Switch and MapRec, whose branch
	// and function terms are reduced in it, and ChunksConcat, which
	// must keep reducing the remaining chunks of the same StrChunks in
	// the environment it started in.
	Env *env.Environment
}

// Op2FirstCont is pushed while the first operand of a binary operation
// is being reduced; it carries the still-unevaluated second operand
// (closurized so it is not forced prematurely).
type Op2FirstCont struct {
	frameBase
	Op     term.BinaryOp
	Second env.Closure
	Env    *env.Environment
	Span   *term.Span
}

// Op2SecondCont is pushed once the first operand is a WHNF value and
// the second operand is being reduced; when the second operand reaches
// WHNF, both are in hand and the binary handler for Op can run.
type Op2SecondCont struct {
	frameBase
	Op    term.BinaryOp
	First env.Value
	Env   *env.Environment
	Span  *term.Span
}

// Stack is the evaluator's explicit LIFO of pending frames.
type Stack struct {
	frames []Frame
}

// Push adds f to the top of the stack.
func (s *Stack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top frame, or reports ok=false if empty.
func (s *Stack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	n := len(s.frames) - 1
	f := s.frames[n]
	s.frames = s.frames[:n]
	return f, true
}

// Peek returns the top frame without removing it.
func (s *Stack) Peek() (Frame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return s.frames[len(s.frames)-1], true
}

// Len reports the current stack depth. The evaluator records this at
// the start of each top-level reduction: its driver loop returns once
// the stack is back down to that depth with a value in hand, and an
// error truncates the stack back to it.
func (s *Stack) Len() int {
	return len(s.frames)
}

// Truncate discards frames above length n. It is used when an error
// aborts a step loop that had pushed speculative frames (§4.2's
// "errors propagate immediately and abort the step loop").
func (s *Stack) Truncate(n int) {
	if n < len(s.frames) {
		s.frames = s.frames[:n]
	}
}
