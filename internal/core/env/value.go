package env

import "github.com/quill-lang/quill/internal/core/term"

// Value is a term reduced to weak-head normal form: the outermost
// constructor is known, but composite sub-parts (record fields, list
// elements, an enum payload) remain behind their own Thunks, preserving
// call-by-need sharing into the interior of the value.
type Value interface {
	isValue()
}

type valueBase struct{}

func (valueBase) isValue() {}

type VNull struct{ valueBase }

type VBool struct {
	valueBase
	B bool
}

type VNum struct {
	valueBase
	N float64
}

type VStr struct {
	valueBase
	S string
}

// VEnum is an enum value: a bare tag, or a tag applied to a payload.
type VEnum struct {
	valueBase
	Tag     term.Ident
	Payload *Thunk // nil for a payload-less tag
}

// VFun is a user-level closure.
type VFun struct {
	valueBase
	Param term.Ident
	Body  term.Term
	Env   *Environment
}

// VBuiltin is a native function, used for the callable values contracts
// reduce to (term.Contract) and for other primitives that are easier to
// express as Go closures over the Machine than as term trees. Call
// returns the next Closure to continue reducing — not a final Value —
// so builtins can compose further contract/application steps through
// the ordinary trampoline instead of recursing through Go's call stack.
type VBuiltin struct {
	valueBase
	Name string
	Call func(gen *IDGen, argThunk *Thunk) (Closure, error)
}

// VRecord is a record value: each field is a shared thunk so repeated
// access is memoized exactly once, the guarantee deep forcing relies
// on to touch each field a single time.
type VRecord struct {
	valueBase
	Fields map[term.Ident]*Thunk
}

// VList is a list value.
type VList struct {
	valueBase
	Elems []*Thunk
}

// VWrapped is a contract seal.
type VWrapped struct {
	valueBase
	Sym   uint64
	Inner *Thunk
}

// VSym is a bare symbol value.
type VSym struct {
	valueBase
	ID uint64
}

// VLabel is a bare label value (the operand of label-mutating unary
// ops, and of Blame).
type VLabel struct {
	valueBase
	Label *term.Label
}

// ContractSpec is one contract accumulated onto a mergeable default
// (see the merge package's handling of ContractWithDefault
// sequencing).
type ContractSpec struct {
	Type  *term.Type
	Label *term.Label
}

// VDefault is the WHNF of term.DefaultValue and term.ContractWithDefault.
// It is deliberately terminal from the evaluator's point of view (see
// DESIGN.md's resolution of the Docstring/DefaultValue erasure rule):
// forcing a DefaultValue to WHNF does *not* reach through to Inner's
// own WHNF, so the merge engine can still see the default-ness of a
// value that has already been "evaluated" once. Any consumer that
// wants the concrete value (arithmetic, export, deep-seq) must call
// StripDefault, which forces through to Inner and keeps unwrapping
// until a non-default WHNF is reached.
type VDefault struct {
	valueBase
	Contracts []ContractSpec
	Inner     *Thunk
}
