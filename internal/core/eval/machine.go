// Package eval is the evaluator's driver: the trampoline loop that
// walks a term.Term down to weak-head normal form using an explicit
// internal/core/stack rather than Go's own call stack,
// dispatching into internal/core/operation and
// internal/core/merge for strict primitives and delegating import
// resolution to internal/importer.
package eval

import (
	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/operation"
	"github.com/quill-lang/quill/internal/core/stack"
	"github.com/quill-lang/quill/internal/core/term"
	"github.com/quill-lang/quill/internal/core/trace"
	"github.com/quill-lang/quill/internal/importer"
)

// Machine owns the mutable state a single top-level evaluation needs:
// the pending-continuation stack, the fresh-identifier generator
// closurize draws from, and the optional trace sink std.trace writes
// to. None of this is safe for concurrent use — evaluation is
// single-threaded by design — so callers needing concurrent
// evaluations create one Machine per goroutine.
type Machine struct {
	stack    *stack.Stack
	gen      *env.IDGen
	Importer importer.Resolver
	Trace    *trace.Sink
}

// New returns a Machine with an empty stack and fresh identifier
// generator. Importer and Trace may be left nil; a nil Importer makes
// ResolvedImport terms fail immediately rather than silently treating
// them as Dyn, and a nil Trace makes std.trace a no-op.
func New() *Machine {
	return &Machine{stack: &stack.Stack{}, gen: &env.IDGen{}}
}

// FreshSym allocates a symbol nonce unique within this Machine, for
// callers constructing contract seals (term.Wrapped / term.Sym) around
// terms they hand to Eval.
func (m *Machine) FreshSym() uint64 {
	return m.gen.FreshSym()
}

// Eval reduces t to weak-head normal form in environment e: the
// outermost constructor is resolved, but nested sub-values remain
// behind their own thunks.
func (m *Machine) Eval(t term.Term, e *env.Environment) (env.Value, *evalerr.Error) {
	base := m.stack.Len()
	v, err := m.run(env.Closure{Term: t, Env: e}, base)
	if err != nil {
		m.stack.Truncate(base)
		return nil, err
	}
	return v, nil
}

// EvalDeep reduces t fully: every record field and list element is
// itself forced to WHNF, recursively, the way std.trace's eager
// siblings and the top-level CLI/API evaluation entry points need (as
// opposed to a library call that only wants the outer shape).
func (m *Machine) EvalDeep(t term.Term, e *env.Environment) (env.Value, *evalerr.Error) {
	v, err := m.Eval(t, e)
	if err != nil {
		return nil, err
	}
	return m.forceDeep(v)
}

func (m *Machine) forceDeep(v env.Value) (env.Value, *evalerr.Error) {
	base := m.stack.Len()
	step, err := operation.DispatchUnary(m.stack, m.gen, env.Empty, m.Trace, term.DeepSeq{}, v, nil)
	if err != nil {
		m.stack.Truncate(base)
		return nil, err
	}
	if step.IsDone() {
		return step.Value, nil
	}
	return m.run(*step.Next, base)
}

// run drives the trampoline from cur until the stack returns to depth
// base with a final value, or an error aborts the loop.
func (m *Machine) run(cur env.Closure, base int) (env.Value, *evalerr.Error) {
outer:
	for {
		step, err := m.reduce(cur)
		if err != nil {
			return nil, err
		}
		if !step.IsDone() {
			cur = *step.Next
			continue outer
		}
		v := step.Value
		for {
			if m.stack.Len() <= base {
				return v, nil
			}
			frame, _ := m.stack.Pop()
			switch fr := frame.(type) {
			case stack.Thunk:
				fr.Handle.Update(v)
				continue
			case stack.Arg:
				next, err := m.apply(v, fr.Thunk, fr.Span)
				if err != nil {
					return nil, err
				}
				cur = next
				continue outer
			case stack.Op1Cont:
				s2, err := operation.DispatchUnary(m.stack, m.gen, fr.Env, m.Trace, fr.Op, v, fr.Span)
				if err != nil {
					return nil, err
				}
				if s2.IsDone() {
					v = s2.Value
					continue
				}
				cur = *s2.Next
				continue outer
			case stack.Op2FirstCont:
				m.stack.Push(stack.Op2SecondCont{Op: fr.Op, First: v, Env: fr.Env, Span: fr.Span})
				cur = fr.Second
				continue outer
			case stack.Op2SecondCont:
				s2, err := operation.DispatchBinary(m.gen, fr.Env, fr.Op, fr.First, v, fr.Span)
				if err != nil {
					return nil, err
				}
				if s2.IsDone() {
					v = s2.Value
					continue
				}
				cur = *s2.Next
				continue outer
			default:
				return nil, evalerr.Other("malformed continuation stack", nil)
			}
		}
	}
}

// apply applies fn to argThunk, returning the closure to continue
// reducing. VFun substitutes the bound parameter; VBuiltin runs its Go
// callback (used by contracts and Wrap).
func (m *Machine) apply(fn env.Value, argThunk *env.Thunk, pos *term.Span) (env.Closure, *evalerr.Error) {
	switch f := fn.(type) {
	case env.VFun:
		e := f.Env.With1(f.Param, argThunk)
		return env.Closure{Term: f.Body, Env: e}, nil
	case env.VBuiltin:
		c, err := f.Call(m.gen, argThunk)
		if err != nil {
			return env.Closure{}, evalerr.Wrap("builtin application failed", err, pos)
		}
		return c, nil
	default:
		return env.Closure{}, evalerr.TypeMismatch("Fun", "application", 0, kindNameFor(fn), pos)
	}
}

func kindNameFor(v env.Value) string {
	switch v.(type) {
	case env.VNull:
		return "Null"
	case env.VBool:
		return "Bool"
	case env.VNum:
		return "Num"
	case env.VStr:
		return "Str"
	case env.VEnum:
		return "Enum"
	case env.VRecord:
		return "Record"
	case env.VList:
		return "List"
	default:
		return "?"
	}
}

// reduce performs exactly one WHNF-reduction step for a single term
// node; composite reductions (forcing operands, applying functions)
// happen by pushing continuations and looping in run, not by
// recursing here.
func (m *Machine) reduce(c env.Closure) (env.Step, *evalerr.Error) {
	switch t := c.Term.(type) {
	case *term.Null:
		return env.Done(env.VNull{}), nil
	case *term.Bool:
		return env.Done(env.VBool{B: t.Value}), nil
	case *term.Num:
		return env.Done(env.VNum{N: t.Value}), nil
	case *term.Str:
		return env.Done(env.VStr{S: t.Value}), nil
	case *term.Enum:
		if t.Payload == nil {
			return env.Done(env.VEnum{Tag: t.Tag}), nil
		}
		return env.Done(env.VEnum{Tag: t.Tag, Payload: env.NewThunk(t.Payload, c.Env)}), nil
	case *term.Fun:
		return env.Done(env.VFun{Param: t.Param, Body: t.Body, Env: c.Env}), nil
	case *term.Var:
		return m.reduceVar(t, c.Env)
	case *term.Let:
		th := env.NewThunk(t.Bound, c.Env)
		e := c.Env.With1(t.Name, th)
		return env.Continue(env.Closure{Term: t.Body, Env: e}), nil
	case *term.App:
		argTh := env.NewThunk(t.Arg, c.Env)
		m.stack.Push(stack.Arg{Thunk: argTh, Span: t.Span()})
		return env.Continue(env.Closure{Term: t.Fun, Env: c.Env}), nil
	case *term.Record:
		fields := make(map[term.Ident]*env.Thunk, len(t.Fields))
		for k, fv := range t.Fields {
			fields[k] = env.NewThunk(fv, c.Env)
		}
		return env.Done(env.VRecord{Fields: fields}), nil
	case *term.RecRecord:
		return env.Done(m.evalRecRecord(t, c.Env)), nil
	case *term.List:
		elems := make([]*env.Thunk, len(t.Elems))
		for i, el := range t.Elems {
			elems[i] = env.NewThunk(el, c.Env)
		}
		return env.Done(env.VList{Elems: elems}), nil
	case *term.Lbl:
		return env.Done(env.VLabel{Label: t.Label}), nil
	case *term.Sym:
		return env.Done(env.VSym{ID: t.ID}), nil
	case *term.Wrapped:
		return env.Done(env.VWrapped{Sym: t.Sym, Inner: env.NewThunk(t.Inner, c.Env)}), nil
	case *term.StrChunks:
		return operation.StartChunks(m.stack, c.Env, t.Chunks)
	case *term.Op1:
		m.stack.Push(stack.Op1Cont{Op: t.Op, Span: t.Span(), Env: c.Env})
		return env.Continue(env.Closure{Term: t.Arg, Env: c.Env}), nil
	case *term.Op2:
		m.stack.Push(stack.Op2FirstCont{Op: t.Op, Second: env.Closure{Term: t.Right, Env: c.Env}, Env: c.Env, Span: t.Span()})
		return env.Continue(env.Closure{Term: t.Left, Env: c.Env}), nil
	case *term.Promise:
		return env.Continue(env.Closure{Term: desugarContract(t.Type, t.Label, t.Inner), Env: c.Env}), nil
	case *term.Assume:
		return env.Continue(env.Closure{Term: desugarContract(t.Type, t.Label, t.Inner), Env: c.Env}), nil
	case *term.ContractWithDefault:
		// The default's own value is checked when forced (Inner carries
		// the applied contract); the ContractSpec additionally travels on
		// the VDefault so a concrete value that overrides this default in
		// a merge is checked by the same contract too.
		checked := desugarContract(t.Type, t.Label, t.Inner)
		return env.Done(env.VDefault{
			Contracts: []env.ContractSpec{{Type: t.Type, Label: t.Label}},
			Inner:     env.NewThunk(checked, c.Env),
		}), nil
	case *term.Contract:
		return env.Done(m.contractValue(t.Type, t.Label)), nil
	case *term.DefaultValue:
		return env.Done(env.VDefault{Inner: env.NewThunk(t.Inner, c.Env)}), nil
	case *term.Docstring:
		return env.Continue(env.Closure{Term: t.Inner, Env: c.Env}), nil
	case *term.Import:
		return m.reducePath(t)
	case *term.ResolvedImport:
		return m.reduceImport(t)
	default:
		return env.Step{}, evalerr.Other("cannot evaluate term node", c.Term.Span())
	}
}

func (m *Machine) reduceVar(t *term.Var, e *env.Environment) (env.Step, *evalerr.Error) {
	th, ok := e.Lookup(t.Name)
	if !ok {
		return env.Step{}, evalerr.UnboundIdentifier(t.Name, t.Span())
	}
	if th.IsForced() {
		return env.Done(th.Value()), nil
	}
	if !th.Lock() {
		return env.Step{}, evalerr.InfiniteRecursion(t.Span())
	}
	m.stack.Push(stack.Thunk{Handle: th})
	return env.Continue(th.PendingClosure()), nil
}

// evalRecRecord ties the recursive knot: every field's thunk is
// created against an environment that already contains every field's
// thunk, including its own, so mutual (and self-) references resolve
// through the ordinary Var/Thunk machinery and are each memoized once.
func (m *Machine) evalRecRecord(t *term.RecRecord, outer *env.Environment) env.Value {
	fields := make(map[term.Ident]*env.Thunk, len(t.Fields))
	// Extend returns outer unchanged for an empty map, so the keys are
	// entered before extending; the thunks replace them below.
	for k := range t.Fields {
		fields[k] = nil
	}
	recEnv := outer.Extend(fields)
	for k, fv := range t.Fields {
		fields[k] = env.NewThunk(fv, recEnv)
	}
	return env.VRecord{Fields: fields}
}

// reducePath resolves an import still named by path: the front-end
// normally rewrites these to ResolvedImport before evaluation, but a
// term built programmatically may reach the evaluator unresolved.
func (m *Machine) reducePath(t *term.Import) (env.Step, *evalerr.Error) {
	if m.Importer == nil {
		return env.Step{}, evalerr.Other("unresolved import: "+t.Path, t.Span())
	}
	id, err := m.Importer.Resolve(t.Path)
	if err != nil {
		return env.Step{}, evalerr.Wrap("import "+t.Path, err, t.Span())
	}
	return m.reduceImport(&term.ResolvedImport{Base: term.Base{Sp: t.Sp}, FileID: id})
}

func (m *Machine) reduceImport(t *term.ResolvedImport) (env.Step, *evalerr.Error) {
	if m.Importer == nil {
		return env.Step{}, evalerr.Other("import resolution is not configured on this Machine", t.Span())
	}
	imported, err := m.Importer.Get(t.FileID)
	if err != nil {
		return env.Step{}, evalerr.Wrap("import", err, t.Span())
	}
	return env.Continue(env.Closure{Term: imported, Env: env.Empty}), nil
}
