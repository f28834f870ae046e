// Package env implements call-by-need sharing: immutable, reference-
// composed environments mapping identifiers to shared thunk cells, plus
// closurize, the single primitive by which a strict operator can return
// a lazy sub-expression without losing track of the environment that
// sub-expression's free variables refer to.
package env

import (
	"fmt"

	"github.com/quill-lang/quill/internal/core/term"
)

// Environment is an immutable identifier→*Thunk mapping. Environments
// compose by extension (Extend), and extension never mutates the
// parent: every Environment in a tree of Extend calls remains valid and
// observes the same bindings it always did. Sharing between held
// Environments is by reference (a pointer to the parent scope), so a
// single Extend is O(1) regardless of how deep the environment chain
// already is.
type Environment struct {
	parent   *Environment
	bindings map[term.Ident]*Thunk
}

// Empty is the environment with no bindings.
var Empty = &Environment{}

// Lookup resolves name, searching this scope and then, failing that,
// every enclosing scope in turn. The ok=false case is the evaluator's
// UnboundIdentifier.
func (e *Environment) Lookup(name term.Ident) (*Thunk, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if th, found := scope.bindings[name]; found {
			return th, true
		}
	}
	return nil, false
}

// Extend returns a new Environment that adds the given bindings on top
// of e. Bindings passed together (as from a RecRecord or a Let that
// shadows multiple names at once) are visible to each other exactly as
// they would be had they been added one at a time, since the returned
// Environment's parent is e itself, not a clone of it.
func (e *Environment) Extend(bindings map[term.Ident]*Thunk) *Environment {
	if len(bindings) == 0 {
		return e
	}
	return &Environment{parent: e, bindings: bindings}
}

// With1 is a convenience wrapper around Extend for the single-binding
// case (Let, Fun application, closurize).
func (e *Environment) With1(name term.Ident, th *Thunk) *Environment {
	return e.Extend(map[term.Ident]*Thunk{name: th})
}

// Closure pairs an unevaluated (or WHNF-reduced) term with the
// environment its free variables resolve against.
type Closure struct {
	Term term.Term
	Env  *Environment
}

// IDGen allocates fresh identifiers for closurize. One IDGen is owned
// by a single top-level evaluation call (see eval.Machine); it is not
// safe for concurrent use, matching the single-threaded evaluation
// model.
type IDGen struct {
	next uint64
}

// Fresh returns a new identifier guaranteed not to collide with any
// other identifier this generator has produced, using prefix only for
// readability in debug output.
func (g *IDGen) Fresh(prefix string) term.Ident {
	g.next++
	return term.Ident(fmt.Sprintf("%%%s$%d", prefix, g.next))
}

// FreshSym allocates a new symbol nonce, unique within this generator's
// owner. Symbols are compared only for identity, so uniqueness within
// one evaluation is all the contract-seal machinery needs.
func (g *IDGen) FreshSym() uint64 {
	g.next++
	return g.next
}

// Closurize wraps t as a fresh thunk bound to a fresh identifier in
// calleeEnv. It returns the fresh binding (to be installed into
// whichever environment the caller wants the reference visible from —
// typically by Extending the caller's environment with it) and a *Var
// term referencing that identifier. A strict primitive can use it to
// return a lazily-evaluated sub-expression while still honoring
// call-by-need sharing: the returned Var, substituted into the result
// term, behaves exactly as if t had been written at that point in the
// source, evaluated against calleeEnv. The operators in
// internal/core/operation do not call it: ListMap and MapRec build
// their one-binding environments inline, and ListConcat reuses the
// operands' element thunks as they are.
func Closurize(gen *IDGen, t term.Term, calleeEnv *Environment) (term.Ident, *Thunk, *term.Var) {
	id := gen.Fresh("clo")
	th := NewThunk(t, calleeEnv)
	v := &term.Var{Name: id}
	return id, th, v
}

// VarFor returns a one-binding Environment and a *term.Var such that
// evaluating the Var in that Environment resolves to th itself — not a
// fresh copy of th's contents. Operators that hand back a record field,
// a list element, or an enum payload (StaticAccess, DynAccess,
// ListElemAt, …) use this rather than re-wrapping th's own closure in a
// new Thunk, so the existing sharing established by th's owner (the
// record, the list) is preserved: forcing the Var forces th exactly
// once, through the ordinary Var/Thunk-frame protocol, and every other
// reference to th observes the same cached result.
func VarFor(gen *IDGen, th *Thunk) (*Environment, *term.Var) {
	id := gen.Fresh("ref")
	e := Empty.With1(id, th)
	return e, &term.Var{Name: id}
}
