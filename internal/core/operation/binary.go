package operation

import (
	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/merge"
	"github.com/quill-lang/quill/internal/core/term"
)

func plusOp(first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	a, ok := first.(env.VNum)
	if !ok {
		return env.Step{}, typeErr("Num", "+", 0, first, pos)
	}
	b, ok := second.(env.VNum)
	if !ok {
		return env.Step{}, typeErr("Num", "+", 1, second, pos)
	}
	return env.Done(env.VNum{N: a.N + b.N}), nil
}

func plusStrOp(first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	a, ok := first.(env.VStr)
	if !ok {
		return env.Step{}, typeErr("Str", "++", 0, first, pos)
	}
	b, ok := second.(env.VStr)
	if !ok {
		return env.Step{}, typeErr("Str", "++", 1, second, pos)
	}
	return env.Done(env.VStr{S: a.S + b.S}), nil
}

// unwrapOp implements contract-seal checking: when the Sym presented
// matches the one the Wrapped value was sealed with, the seal comes
// off. A mismatched symbol does NOT error: the result is the identity
// function, so a parametricity check that probes a seal it does not
// own simply passes the value through untouched.
func unwrapOp(gen *env.IDGen, first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	sym, ok := first.(env.VSym)
	if !ok {
		return env.Step{}, typeErr("Sym", "unwrap", 0, first, pos)
	}
	wrapped, ok := second.(env.VWrapped)
	if !ok {
		return env.Step{}, typeErr("Wrapped", "unwrap", 1, second, pos)
	}
	if wrapped.Sym != sym.ID {
		const x = term.Ident("%unwrap-id")
		return env.Done(env.VFun{Param: x, Body: &term.Var{Name: x}, Env: env.Empty}), nil
	}
	e, ref := env.VarFor(gen, wrapped.Inner)
	return env.Continue(env.Closure{Term: ref, Env: e}), nil
}

// eqBoolOp implements structural equality over the scalar value kinds;
// records, lists, and functions have no defined equality in this
// language (functions extensionally, records/lists only up to a
// contract-level notion this primitive does not attempt).
func eqBoolOp(first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	eq, ok := scalarEqual(first, second)
	if !ok {
		return env.Step{}, evalerr.Other("==: operands are not comparable", pos)
	}
	return env.Done(env.VBool{B: eq}), nil
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
	case env.VEnum:
		y, ok := b.(env.VEnum)
		if !ok || x.Payload != nil || y.Payload != nil {
			return false, ok && x.Payload == nil && y.Payload == nil
		}
		return x.Tag == y.Tag, true
	default:
		return false, false
	}
}

func dynAccessOp(gen *env.IDGen, first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	rec, ok := first.(env.VRecord)
	if !ok {
		return env.Step{}, typeErr("Record", "dyn_access", 0, first, pos)
	}
	name, ok := second.(env.VStr)
	if !ok {
		return env.Step{}, typeErr("Str", "dyn_access", 1, second, pos)
	}
	th, found := rec.Fields[term.Ident(name.S)]
	if !found {
		return env.Step{}, evalerr.FieldMissing(term.Ident(name.S), "dyn_access", rec, pos)
	}
	e, ref := env.VarFor(gen, th)
	return env.Continue(env.Closure{Term: ref, Env: e}), nil
}

func dynExtendOp(opEnv *env.Environment, o term.DynExtend, first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	rec, ok := first.(env.VRecord)
	if !ok {
		return env.Step{}, typeErr("Record", "dyn_extend", 0, first, pos)
	}
	name, ok := second.(env.VStr)
	if !ok {
		return env.Step{}, typeErr("Str", "dyn_extend", 1, second, pos)
	}
	field := term.Ident(name.S)
	if _, exists := rec.Fields[field]; exists {
		return env.Step{}, evalerr.Other("dyn_extend: record already has field "+name.S, pos)
	}
	newFields := make(map[term.Ident]*env.Thunk, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		newFields[k] = v
	}
	newFields[field] = env.NewThunk(o.Value, opEnv)
	return env.Done(env.VRecord{Fields: newFields}), nil
}

func dynRemoveOp(first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	rec, ok := first.(env.VRecord)
	if !ok {
		return env.Step{}, typeErr("Record", "dyn_remove", 0, first, pos)
	}
	name, ok := second.(env.VStr)
	if !ok {
		return env.Step{}, typeErr("Str", "dyn_remove", 1, second, pos)
	}
	field := term.Ident(name.S)
	if _, exists := rec.Fields[field]; !exists {
		return env.Step{}, evalerr.FieldMissing(field, "dyn_remove", rec, pos)
	}
	newFields := make(map[term.Ident]*env.Thunk, len(rec.Fields))
	for k, v := range rec.Fields {
		if k == field {
			continue
		}
		newFields[k] = v
	}
	return env.Done(env.VRecord{Fields: newFields}), nil
}

func hasFieldOp(first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	rec, ok := first.(env.VRecord)
	if !ok {
		return env.Step{}, typeErr("Record", "has_field", 0, first, pos)
	}
	name, ok := second.(env.VStr)
	if !ok {
		return env.Step{}, typeErr("Str", "has_field", 1, second, pos)
	}
	_, found := rec.Fields[term.Ident(name.S)]
	return env.Done(env.VBool{B: found}), nil
}

func listConcatOp(first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	a, ok := first.(env.VList)
	if !ok {
		return env.Step{}, typeErr("List", "list_concat", 0, first, pos)
	}
	b, ok := second.(env.VList)
	if !ok {
		return env.Step{}, typeErr("List", "list_concat", 1, second, pos)
	}
	out := make([]*env.Thunk, 0, len(a.Elems)+len(b.Elems))
	out = append(out, a.Elems...)
	out = append(out, b.Elems...)
	return env.Done(env.VList{Elems: out}), nil
}

func listMapOp(gen *env.IDGen, first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lst, ok := first.(env.VList)
	if !ok {
		return env.Step{}, typeErr("List", "list_map", 0, first, pos)
	}
	if !isFunValue(second) {
		return env.Step{}, typeErr("Fun", "list_map", 1, second, pos)
	}
	funTh := env.NewForcedThunk(second)
	newElems := make([]*env.Thunk, len(lst.Elems))
	for i, elemTh := range lst.Elems {
		funID := gen.Fresh("listmap-f")
		elemID := gen.Fresh("listmap-x")
		e := env.Empty.With1(funID, funTh).With1(elemID, elemTh)
		appTerm := &term.App{Fun: &term.Var{Name: funID}, Arg: &term.Var{Name: elemID}}
		newElems[i] = env.NewThunk(appTerm, e)
	}
	return env.Done(env.VList{Elems: newElems}), nil
}

func listElemAtOp(gen *env.IDGen, first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lst, ok := first.(env.VList)
	if !ok {
		return env.Step{}, typeErr("List", "elem_at", 0, first, pos)
	}
	idx, ok := second.(env.VNum)
	if !ok {
		return env.Step{}, typeErr("Num", "elem_at", 1, second, pos)
	}
	i := int(idx.N)
	if float64(i) != idx.N || i < 0 || i >= len(lst.Elems) {
		return env.Step{}, evalerr.Other("elem_at: index out of bounds", pos)
	}
	e, ref := env.VarFor(gen, lst.Elems[i])
	return env.Continue(env.Closure{Term: ref, Env: e}), nil
}

func mergeOp(gen *env.IDGen, first, second env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	return merge.Merge(gen, first, second, pos)
}
