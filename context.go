// Package quill is the embedding API: build a term tree (there is no
// surface-syntax parser in this implementation; parsing is left to
// front-ends), optionally type-check it, evaluate it lazily, and read
// back or export the result.
package quill

import (
	"io"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/eval"
	"github.com/quill-lang/quill/internal/core/term"
	"github.com/quill-lang/quill/internal/core/trace"
	"github.com/quill-lang/quill/internal/core/typecheck"
	"github.com/quill-lang/quill/internal/importer"
)

// Context owns one evaluator and one import table. Values produced by
// a Context are only valid while that Context (and anything it
// imported) stays alive; like cue.Context, a Context is cheap to
// create and is not meant to be shared across unrelated programs.
type Context struct {
	machine *eval.Machine
	loader  *importer.Loader
}

// New returns an empty Context with no registered files.
func New() *Context {
	return &Context{
		machine: eval.New(),
		loader:  importer.NewLoader(),
	}
}

// Trace directs std.trace output to w for the remainder of this
// Context's lifetime. A nil w makes std.trace a no-op again.
func (ctx *Context) Trace(w io.Writer) {
	if w == nil {
		ctx.machine.Trace = nil
		return
	}
	ctx.machine.Trace = trace.NewSink(w)
}

// AddFile registers t as importable under name, returning the file id
// a term.Import resolving to name will be rewritten to reference. Call
// this once per logical source file before compiling anything that
// imports it.
func (ctx *Context) AddFile(name string, t term.Term) int {
	ctx.machine.Importer = ctx.loader
	return ctx.loader.Add(name, t)
}

// Compile wraps t as a lazily-evaluated Value. Nothing is forced until
// the Value is inspected.
func (ctx *Context) Compile(t term.Term) *Value {
	return &Value{ctx: ctx, closure: env.Closure{Term: t, Env: env.Empty}}
}

// Check runs the bidirectional type checker over t in permissive mode
// at the top level: only the Promise boundaries the program itself
// wrote switch into strict checking, and an Assume checks its body
// permissively. It does not
// evaluate t. Imported files registered with AddFile are checked too,
// each at most once.
func (ctx *Context) Check(t term.Term) error {
	return typecheck.CheckProgramWith(t, ctx.loader)
}

// EvalDeep compiles t and forces it all the way down — every record
// field, list element, and enum payload reduced to WHNF — before
// returning, the way the top-level CLI entry points and the
// "fully force" boundary calls need. The returned Value and all its
// children read from the already-populated thunk caches, so walking it
// afterwards performs no further evaluation.
func (ctx *Context) EvalDeep(t term.Term) (*Value, error) {
	v, err := ctx.machine.EvalDeep(t, env.Empty)
	if err != nil {
		return nil, err
	}
	stripped, err2 := ctx.machine.StripDefault(v)
	if err2 != nil {
		return nil, err2
	}
	return &Value{ctx: ctx, forced: true, v: stripped}, nil
}
