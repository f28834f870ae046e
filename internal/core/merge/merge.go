// Package merge implements the record/value merge operator: the "&"
// primitive that combines two already-WHNF values into one,
// recursing lazily into shared record fields and
// resolving default values against whichever side first supplies a
// concrete override.
package merge

import (
	"sort"

	"github.com/mpvl/unique"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/term"
)

// Merge combines first and second. It is called once both operands of
// a Merge BinaryOp have reached WHNF; it is not itself part of the
// evaluator's trampoline loop, but like every strict-operator handler
// it returns an env.Step so recursive sub-merges stay lazy instead of
// forcing the whole tree eagerly.
func Merge(gen *env.IDGen, first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	da, aIsDefault := first.(env.VDefault)
	db, bIsDefault := second.(env.VDefault)

	switch {
	case aIsDefault && bIsDefault:
		return mergeBothDefault(gen, da, db), nil
	case aIsDefault:
		return deferToConcrete(gen, da, second), nil
	case bIsDefault:
		return deferToConcrete(gen, db, first), nil
	default:
		return mergeConcrete(gen, first, second, pos)
	}
}

// mergeBothDefault keeps the result a default (neither side has
// committed to a concrete value yet): the two Inner values are still
// merged against each other, lazily, and the two contract lists are
// concatenated so both sides' checks apply once something concrete
// eventually overrides the result.
func mergeBothDefault(gen *env.IDGen, a, b env.VDefault) env.Step {
	idA := gen.Fresh("merge-def-a")
	idB := gen.Fresh("merge-def-b")
	e := env.Empty.With1(idA, a.Inner).With1(idB, b.Inner)
	innerTerm := &term.Op2{Op: term.Merge{}, Left: &term.Var{Name: idA}, Right: &term.Var{Name: idB}}
	contracts := make([]env.ContractSpec, 0, len(a.Contracts)+len(b.Contracts))
	contracts = append(contracts, a.Contracts...)
	contracts = append(contracts, b.Contracts...)
	return env.Done(env.VDefault{Contracts: contracts, Inner: env.NewThunk(innerTerm, e)})
}

// deferToConcrete resolves a default against a concrete override: the
// concrete side wins outright and the default's own inner value is
// discarded without ever being forced, but the contracts the default
// accumulated still apply to the override — each applied in order,
// lazily, inside the term this returns.
func deferToConcrete(gen *env.IDGen, def env.VDefault, concrete env.Value) env.Step {
	idConcrete := gen.Fresh("merge-default-concrete")
	e := env.Empty.With1(idConcrete, env.NewForcedThunk(concrete))
	var result term.Term = &term.Var{Name: idConcrete}
	for _, cs := range def.Contracts {
		result = &term.App{Fun: &term.Contract{Type: cs.Type, Label: cs.Label}, Arg: result}
	}
	return env.Continue(env.Closure{Term: result, Env: e})
}

func mergeConcrete(gen *env.IDGen, a, b env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	recA, aIsRecord := a.(env.VRecord)
	recB, bIsRecord := b.(env.VRecord)
	if aIsRecord && bIsRecord {
		return env.Done(mergeRecords(gen, recA, recB)), nil
	}

	if enumA, ok := a.(env.VEnum); ok {
		enumB, ok := b.(env.VEnum)
		if !ok || enumA.Tag != enumB.Tag || enumA.Payload != nil || enumB.Payload != nil {
			return env.Step{}, conflictErr(a, b, pos)
		}
		return env.Done(a), nil
	}

	if _, ok := a.(env.VList); ok {
		// Lists carry no merge semantics of their own: two list
		// defaults only resolve when one side is replaced wholesale by
		// a concrete list in deferToConcrete, never element-wise.
		return env.Step{}, conflictErr(a, b, pos)
	}

	eq, comparable := scalarEqual(a, b)
	if !comparable {
		return env.Step{}, conflictErr(a, b, pos)
	}
	if !eq {
		return env.Step{}, conflictErr(a, b, pos)
	}
	return env.Done(a), nil
}

func mergeRecords(gen *env.IDGen, a, b env.VRecord) env.Value {
	// Both sides' key lists are concatenated, then sorted and
	// collapsed, so a field present in both contributes once to the
	// union in a deterministic order.
	rawNames := make([]string, 0, len(a.Fields)+len(b.Fields))
	for k := range a.Fields {
		rawNames = append(rawNames, string(k))
	}
	for k := range b.Fields {
		rawNames = append(rawNames, string(k))
	}
	sort.Strings(rawNames)
	unique.Strings(&rawNames)
	names := make([]term.Ident, len(rawNames))
	for i, n := range rawNames {
		names[i] = term.Ident(n)
	}

	newFields := make(map[term.Ident]*env.Thunk, len(names))
	for _, k := range names {
		thA, inA := a.Fields[k]
		thB, inB := b.Fields[k]
		switch {
		case inA && inB:
			idA := gen.Fresh("merge-field-a")
			idB := gen.Fresh("merge-field-b")
			e := env.Empty.With1(idA, thA).With1(idB, thB)
			t := &term.Op2{Op: term.Merge{}, Left: &term.Var{Name: idA}, Right: &term.Var{Name: idB}}
			newFields[k] = env.NewThunk(t, e)
		case inA:
			newFields[k] = thA
		default:
			newFields[k] = thB
		}
	}
	return env.VRecord{Fields: newFields}
}

func scalarEqual(a, b env.Value) (eq bool, comparable bool) {
	switch x := a.(type) {
	case env.VNull:
		_, ok := b.(env.VNull)
		return ok, true
	case env.VBool:
		y, ok := b.(env.VBool)
		return ok && x.B == y.B, ok
	case env.VNum:
		y, ok := b.(env.VNum)
		return ok && x.N == y.N, ok
	case env.VStr:
		y, ok := b.(env.VStr)
		return ok && x.S == y.S, ok
	case env.VSym:
		y, ok := b.(env.VSym)
		return ok && x.ID == y.ID, ok
	default:
		return false, false
	}
}

func conflictErr(a, b env.Value, pos *term.Span) *evalerr.Error {
	return evalerr.Other("merge: incompatible values", pos)
}
