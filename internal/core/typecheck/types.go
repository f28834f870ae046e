// Package typecheck implements the bidirectional checker: strict mode
// inside a Promise, permissive mode inside an
// Assume, Hindley-Milner-style unification extended with row
// constraints for StaticRecordT/EnumT's row-polymorphic tails, and
// rigid type constants for the skolems a ForallT introduces while its
// body is being checked.
package typecheck

import "github.com/quill-lang/quill/internal/core/term"

// Wrapper is a type as seen by the checker: either a Concrete
// syntactic term.Type, a Ptr into the unification table (a
// not-yet-solved metavariable), or a Constant (a rigid skolem, which
// unifies only with itself).
type Wrapper interface {
	isWrapper()
}

type wrapperBase struct{}

func (wrapperBase) isWrapper() {}

// Concrete wraps a syntactic type with no unification variables of its
// own at this level (its substructure may still contain Ptrs once
// partially solved).
type Concrete struct {
	wrapperBase
	Type term.Type
}

// Ptr is a unification variable: an index into Table's union-find
// structure.
type Ptr struct {
	wrapperBase
	ID int
}

// Constant is a rigid type variable; it only unifies with itself. The
// checker does not allocate Constants: a ForallT's bound variable is
// renamed to a fresh VarT instead (see Checker.instantiate).
type Constant struct {
	wrapperBase
	ID   int
	Name term.Ident
}

// Table is the checker's union-find over unification variables. Row
// constraints live on the Checker itself, keyed by row-variable name
// rather than by cell, because this implementation's row tails are
// instantiated VarT names, not Ptrs (see Checker.forbid).
type Table struct {
	cells       []cell
	constantSeq int
}

type cell struct {
	// solved is nil until Unify resolves this variable to a concrete
	// (or another variable's) Wrapper.
	solved Wrapper
}

// NewTable returns an empty unification table.
func NewTable() *Table {
	return &Table{}
}

// NewVar allocates a fresh unification variable.
func (t *Table) NewVar() Ptr {
	t.cells = append(t.cells, cell{})
	return Ptr{ID: len(t.cells) - 1}
}

// NewConstant allocates a fresh rigid skolem for name.
func (t *Table) NewConstant(name term.Ident) Constant {
	t.constantSeq++
	return Constant{ID: t.constantSeq, Name: name}
}

// Resolve follows p's union-find chain as far as it is currently
// solved, returning the last Wrapper in the chain (which may itself
// still be an unsolved Ptr).
func (t *Table) Resolve(w Wrapper) Wrapper {
	for {
		p, ok := w.(Ptr)
		if !ok {
			return w
		}
		c := &t.cells[p.ID]
		if c.solved == nil {
			return p
		}
		w = c.solved
	}
}

// Bind solves p to w.
func (t *Table) Bind(p Ptr, w Wrapper) {
	t.cells[p.ID].solved = w
}
