package env

import "github.com/quill-lang/quill/internal/core/term"

// thunkState tracks a Thunk's call-by-need lifecycle: Unforced (never
// touched), Locked (currently being reduced — re-entry is a divergence,
// see evalerr.CodeInfiniteRecursion), or Forced (holds a WHNF closure).
type thunkState uint8

const (
	stateUnforced thunkState = iota
	stateLocked
	stateForced
)

// Thunk is the shared, mutable cell behind call-by-need sharing.
// Evaluation is single-threaded and synchronous, so
// no synchronization is needed: the lock flag only needs to detect
// re-entrance within one evaluation, not races across goroutines.
type Thunk struct {
	closure   Closure // meaningful while state != stateForced
	value     Value   // meaningful once state == stateForced
	state     thunkState
	updatable bool
}

// NewThunk creates an updatable thunk (the common case: let-bindings,
// application arguments, record fields, list elements).
func NewThunk(t term.Term, e *Environment) *Thunk {
	return &Thunk{closure: Closure{Term: t, Env: e}, updatable: true}
}

// NewThunkNoUpdate creates a thunk that is forced fresh every time it
// is accessed rather than caching its WHNF, for contexts where sharing
// the result would be observably wrong. None of the current operators
// need it; the machinery is exercised by tests exploring that edge.
func NewThunkNoUpdate(t term.Term, e *Environment) *Thunk {
	return &Thunk{closure: Closure{Term: t, Env: e}, updatable: false}
}

// NewForcedThunk wraps an already-known value as a non-updatable
// thunk that reports itself Forced immediately. Operators that
// synthesize a value directly (FieldsOf's name list, DeepSeq's final
// return of its own operand) use this to hand that value to VarFor
// without round-tripping it through a Term.
func NewForcedThunk(v Value) *Thunk {
	return &Thunk{value: v, state: stateForced, updatable: false}
}

// PendingClosure returns the unevaluated (or in-progress) expression
// behind the thunk. It is only meaningful while !IsForced.
func (th *Thunk) PendingClosure() Closure {
	return th.closure
}

// Value returns the thunk's cached WHNF. It is only meaningful once
// IsForced reports true.
func (th *Thunk) Value() Value {
	return th.value
}

// IsForced reports whether the thunk already holds a WHNF.
func (th *Thunk) IsForced() bool {
	return th.state == stateForced
}

// IsLocked reports whether the thunk is currently being reduced.
func (th *Thunk) IsLocked() bool {
	return th.state == stateLocked
}

// Lock transitions Unforced→Locked. It reports false if the thunk was
// already locked, which the evaluator must treat as InfiniteRecursion:
// forcing a thunk that is already being forced means evaluation
// re-entered itself without making progress.
func (th *Thunk) Lock() bool {
	if th.state == stateLocked {
		return false
	}
	th.state = stateLocked
	return true
}

// Update records v as the thunk's WHNF and transitions to Forced, or —
// if the thunk is not updatable — reverts to Unforced so the next
// access recomputes it instead of trusting a cached value that was
// never meant to be shared.
func (th *Thunk) Update(v Value) {
	if !th.updatable {
		th.state = stateUnforced
		return
	}
	th.value = v
	th.closure = Closure{}
	th.state = stateForced
}
