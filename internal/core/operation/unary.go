package operation

import (
	"sort"

	"golang.org/x/exp/slices"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/stack"
	"github.com/quill-lang/quill/internal/core/term"
	"github.com/quill-lang/quill/internal/core/trace"
)

func iteOp(st *stack.Stack, gen *env.IDGen, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	b, ok := v.(env.VBool)
	if !ok {
		return env.Step{}, typeErr("Bool", "if", 0, v, pos)
	}
	thenFrame, ok := st.Pop()
	if !ok {
		return env.Step{}, evalerr.NotEnoughArgs("if", 2, pos)
	}
	elseFrame, ok := st.Pop()
	if !ok {
		return env.Step{}, evalerr.NotEnoughArgs("if", 2, pos)
	}
	thenArg, ok1 := thenFrame.(stack.Arg)
	elseArg, ok2 := elseFrame.(stack.Arg)
	if !ok1 || !ok2 {
		return env.Step{}, evalerr.Other("if: malformed branch arguments", pos)
	}
	var chosen *env.Thunk
	if b.B {
		chosen = thenArg.Thunk
	} else {
		chosen = elseArg.Thunk
	}
	e, ref := env.VarFor(gen, chosen)
	return env.Continue(env.Closure{Term: ref, Env: e}), nil
}

func isZeroOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	n, ok := v.(env.VNum)
	if !ok {
		return env.Step{}, typeErr("Num", "is_zero", 0, v, pos)
	}
	return env.Done(env.VBool{B: n.N == 0}), nil
}

func blameOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lbl, ok := v.(env.VLabel)
	if !ok {
		return env.Step{}, typeErr("Label", "blame", 0, v, pos)
	}
	return env.Step{}, evalerr.Blame(lbl.Label, pos)
}

func embedOp(o term.Embed, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	if _, ok := v.(env.VEnum); !ok {
		return env.Step{}, typeErr("Enum", "embed", 0, v, pos)
	}
	_ = o.Tag // typing hint only; identity at run time
	return env.Done(v), nil
}

func switchOp(o term.Switch, opEnv *env.Environment, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	enum, ok := v.(env.VEnum)
	if !ok {
		return env.Step{}, typeErr("Enum", "switch", 0, v, pos)
	}
	branch, found := o.Cases[enum.Tag]
	if !found {
		if o.Default == nil {
			return env.Step{}, evalerr.FieldMissing(enum.Tag, "switch", nil, pos)
		}
		return env.Continue(env.Closure{Term: o.Default, Env: opEnv}), nil
	}
	if enum.Payload == nil {
		return env.Continue(env.Closure{Term: branch, Env: opEnv}), nil
	}
	// A matched case written as `fun x => ...` receives the tag's
	// payload; binding it under a fixed name is safe since a switch
	// body is never re-entered concurrently within one dispatch.
	const name = term.Ident("%switch-payload")
	e := opEnv.With1(name, enum.Payload)
	app := &term.App{Fun: branch, Arg: &term.Var{Name: name}}
	return env.Continue(env.Closure{Term: app, Env: e}), nil
}

func changePolarityOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lbl, ok := v.(env.VLabel)
	if !ok {
		return env.Step{}, typeErr("Label", "chng_pol", 0, v, pos)
	}
	return env.Done(env.VLabel{Label: lbl.Label.WithPolarity()}), nil
}

func goDomOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lbl, ok := v.(env.VLabel)
	if !ok {
		return env.Step{}, typeErr("Label", "go_dom", 0, v, pos)
	}
	return env.Done(env.VLabel{Label: lbl.Label.GoDomain()}), nil
}

func goCodomOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lbl, ok := v.(env.VLabel)
	if !ok {
		return env.Step{}, typeErr("Label", "go_codom", 0, v, pos)
	}
	return env.Done(env.VLabel{Label: lbl.Label.GoCodomain()}), nil
}

func tagOp(o term.TagOp, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lbl, ok := v.(env.VLabel)
	if !ok {
		return env.Step{}, typeErr("Label", "tag", 0, v, pos)
	}
	return env.Done(env.VLabel{Label: lbl.Label.WithTag(o.Tag)}), nil
}

func polOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lbl, ok := v.(env.VLabel)
	if !ok {
		return env.Step{}, typeErr("Label", "polarity", 0, v, pos)
	}
	return env.Done(env.VBool{B: lbl.Label.Polarity}), nil
}

func wrapOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	sym, ok := v.(env.VSym)
	if !ok {
		return env.Step{}, typeErr("Sym", "wrap", 0, v, pos)
	}
	id := sym.ID
	return env.Done(env.VBuiltin{
		Name: "wrap",
		Call: func(gen *env.IDGen, argThunk *env.Thunk) (env.Closure, error) {
			name := gen.Fresh("wrapped-inner")
			e := env.Empty.With1(name, argThunk)
			return env.Closure{Term: &term.Wrapped{Sym: id, Inner: &term.Var{Name: name}}, Env: e}, nil
		},
	}), nil
}

func staticAccessOp(gen *env.IDGen, o term.StaticAccess, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	rec, ok := v.(env.VRecord)
	if !ok {
		return env.Step{}, typeErr("Record", "static_access", 0, v, pos)
	}
	th, found := rec.Fields[o.Field]
	if !found {
		return env.Step{}, evalerr.FieldMissing(o.Field, "static_access", rec, pos)
	}
	e, ref := env.VarFor(gen, th)
	return env.Continue(env.Closure{Term: ref, Env: e}), nil
}

func fieldsOfOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	rec, ok := v.(env.VRecord)
	if !ok {
		return env.Step{}, typeErr("Record", "fields_of", 0, v, pos)
	}
	names := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		if k.Exported() {
			names = append(names, string(k))
		}
	}
	slices.Sort(names)
	names = slices.Compact(names)
	elems := make([]*env.Thunk, len(names))
	for i, n := range names {
		elems[i] = env.NewForcedThunk(env.VStr{S: n})
	}
	return env.Done(env.VList{Elems: elems}), nil
}

func mapRecOp(gen *env.IDGen, opEnv *env.Environment, o term.MapRec, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	rec, ok := v.(env.VRecord)
	if !ok {
		return env.Step{}, typeErr("Record", "map_rec", 0, v, pos)
	}
	newFields := make(map[term.Ident]*env.Thunk, len(rec.Fields))
	for k, th := range rec.Fields {
		id := gen.Fresh("maprec-v")
		e := opEnv.With1(id, th)
		appTerm := &term.App{
			Fun: &term.App{Fun: o.Fun, Arg: &term.Str{Value: string(k)}},
			Arg: &term.Var{Name: id},
		}
		newFields[k] = env.NewThunk(appTerm, e)
	}
	return env.Done(env.VRecord{Fields: newFields}), nil
}

func seqOp(st *stack.Stack, gen *env.IDGen, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	_ = v // forcing already happened to reach WHNF; the value itself is discarded
	frame, ok := st.Pop()
	if !ok {
		return env.Step{}, evalerr.NotEnoughArgs("seq", 1, pos)
	}
	arg, ok := frame.(stack.Arg)
	if !ok {
		return env.Step{}, evalerr.Other("seq: malformed continuation argument", pos)
	}
	e, ref := env.VarFor(gen, arg.Thunk)
	return env.Continue(env.Closure{Term: ref, Env: e}), nil
}

// traceOp implements std.trace: the rendered message is written to the
// sink synchronously, at the exact moment the traced expression is
// forced, then the pending Arg frame is returned unchanged the way Seq
// returns its own. A sink write failure surfaces as an evaluation
// error rather than being swallowed, since a configuration program
// that asked for a trace and silently lost it is harder to debug than
// one that stopped.
func traceOp(st *stack.Stack, gen *env.IDGen, sink *trace.Sink, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	msg, ok := v.(env.VStr)
	if !ok {
		return env.Step{}, typeErr("Str", "trace", 0, v, pos)
	}
	if err := sink.Write("std.trace", msg.S); err != nil {
		return env.Step{}, evalerr.Wrap("trace", err, pos)
	}
	frame, ok := st.Pop()
	if !ok {
		return env.Step{}, evalerr.NotEnoughArgs("trace", 1, pos)
	}
	arg, ok := frame.(stack.Arg)
	if !ok {
		return env.Step{}, evalerr.Other("trace: malformed continuation argument", pos)
	}
	e, ref := env.VarFor(gen, arg.Thunk)
	return env.Continue(env.Closure{Term: ref, Env: e}), nil
}

// deepSeqOp forces v fully, including every record field and list
// element, by building a term that sequences a DeepSeq over each
// sub-thunk via Seq before finally returning v itself. Each field is
// forced exactly once: the chain names each field's thunk once, as a
// Var, rather than re-walking the syntax.
func deepSeqOp(gen *env.IDGen, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	switch val := v.(type) {
	case env.VRecord:
		return deepSeqOver(gen, v, collectValues(val.Fields)), nil
	case env.VList:
		return deepSeqOver(gen, v, val.Elems), nil
	case env.VEnum:
		if val.Payload == nil {
			return env.Done(v), nil
		}
		return deepSeqOver(gen, v, []*env.Thunk{val.Payload}), nil
	case env.VWrapped:
		return deepSeqOver(gen, v, []*env.Thunk{val.Inner}), nil
	case env.VDefault:
		return deepSeqOver(gen, v, []*env.Thunk{val.Inner}), nil
	default:
		return env.Done(v), nil
	}
}

func collectValues(m map[term.Ident]*env.Thunk) []*env.Thunk {
	keys := make([]term.Ident, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]*env.Thunk, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func deepSeqOver(gen *env.IDGen, v env.Value, subThunks []*env.Thunk) env.Step {
	finalTh := env.NewForcedThunk(v)
	resultEnv, resultTerm := env.VarFor(gen, finalTh)
	var result term.Term = resultTerm
	for _, th := range subThunks {
		id := gen.Fresh("deepseq-f")
		resultEnv = resultEnv.With1(id, th)
		forceTerm := &term.Op1{Op: term.DeepSeq{}, Arg: &term.Var{Name: id}}
		result = &term.App{Fun: &term.Op1{Op: term.Seq{}, Arg: forceTerm}, Arg: result}
	}
	return env.Continue(env.Closure{Term: result, Env: resultEnv})
}

func listHeadOp(gen *env.IDGen, v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lst, ok := v.(env.VList)
	if !ok {
		return env.Step{}, typeErr("List", "head", 0, v, pos)
	}
	if len(lst.Elems) == 0 {
		return env.Step{}, evalerr.Other("head: empty list", pos)
	}
	e, ref := env.VarFor(gen, lst.Elems[0])
	return env.Continue(env.Closure{Term: ref, Env: e}), nil
}

func listTailOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lst, ok := v.(env.VList)
	if !ok {
		return env.Step{}, typeErr("List", "tail", 0, v, pos)
	}
	if len(lst.Elems) == 0 {
		return env.Step{}, evalerr.Other("tail: empty list", pos)
	}
	return env.Done(env.VList{Elems: lst.Elems[1:]}), nil
}

func listLengthOp(v env.Value, pos *term.Span) (env.Step, *evalerr.Error) {
	lst, ok := v.(env.VList)
	if !ok {
		return env.Step{}, typeErr("List", "length", 0, v, pos)
	}
	return env.Done(env.VNum{N: float64(len(lst.Elems))}), nil
}
