package eval

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/term"
	"github.com/quill-lang/quill/internal/core/trace"
)

func num(n float64) term.Term { return &term.Num{Value: n} }
func str(s string) term.Term  { return &term.Str{Value: s} }
func boolt(b bool) term.Term  { return &term.Bool{Value: b} }
func v(name string) term.Term { return &term.Var{Name: term.Ident(name)} }
func app(f, a term.Term) term.Term {
	return &term.App{Fun: f, Arg: a}
}
func fn(param string, body term.Term) term.Term {
	return &term.Fun{Param: term.Ident(param), Body: body}
}
func let(name string, bound, body term.Term) term.Term {
	return &term.Let{Name: term.Ident(name), Bound: bound, Body: body}
}
func plus(a, b term.Term) term.Term {
	return &term.Op2{Op: term.Plus{}, Left: a, Right: b}
}
func access(field string, rec term.Term) term.Term {
	return &term.Op1{Op: term.StaticAccess{Field: term.Ident(field)}, Arg: rec}
}
func boom(tag string) term.Term {
	return &term.Op1{Op: term.Blame{}, Arg: &term.Lbl{Label: &term.Label{Tag: tag}}}
}
func fields(kv map[string]term.Term) map[term.Ident]term.Term {
	out := make(map[term.Ident]term.Term, len(kv))
	for k, fv := range kv {
		out[term.Ident(k)] = fv
	}
	return out
}

func mustNum(t *testing.T, val env.Value, want float64) {
	t.Helper()
	n, ok := val.(env.VNum)
	require.True(t, ok, "want VNum, got %T", val)
	assert.Equal(t, want, n.N)
}

func TestEvalArithmetic(t *testing.T) {
	// (fun x => x + 1) 41 evaluates to 42.
	m := New()
	got, err := m.Eval(app(fn("x", plus(v("x"), num(1))), num(41)), env.Empty)
	require.Nil(t, err)
	mustNum(t, got, 42)
}

func TestEvalLazyRecordField(t *testing.T) {
	// Accessing r.b forces a and b but never the erroring field, so the
	// access succeeds: record evaluation is lazy per field.
	rec := &term.RecRecord{Fields: fields(map[string]term.Term{
		"a":     num(1),
		"b":     plus(v("a"), num(1)),
		"never": boom("never"),
	})}
	m := New()
	got, err := m.Eval(let("r", rec, access("b", v("r"))), env.Empty)
	require.Nil(t, err)
	mustNum(t, got, 2)
}

func TestEvalSharing(t *testing.T) {
	// A let-bound thunk is forced once: the second use reads the cache.
	// Observable through the trace sink firing a single time.
	var buf bytes.Buffer
	m := New()
	m.Trace = trace.NewSink(&buf)
	traced := app(&term.Op1{Op: term.Trace{}, Arg: str("forced")}, num(20))
	prog := let("x", traced, plus(v("x"), v("x")))
	got, err := m.Eval(prog, env.Empty)
	require.Nil(t, err)
	mustNum(t, got, 40)
	assert.Equal(t, "[std.trace] forced\n", buf.String())
}

func TestEvalValueIdempotent(t *testing.T) {
	// Reducing an already-WHNF term returns it unchanged.
	m := New()
	for _, tm := range []term.Term{num(7), str("s"), boolt(true), &term.Null{}} {
		v1, err := m.Eval(tm, env.Empty)
		require.Nil(t, err)
		v2, err := m.Eval(tm, env.Empty)
		require.Nil(t, err)
		assert.Equal(t, v1, v2)
	}
}

func TestEvalInfiniteRecursion(t *testing.T) {
	// A field that references itself re-enters its own locked thunk.
	rec := &term.RecRecord{Fields: fields(map[string]term.Term{"a": v("a")})}
	m := New()
	_, err := m.Eval(let("r", rec, access("a", v("r"))), env.Empty)
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeInfiniteRecursion, err.Code)
}

func TestEvalUnboundIdentifier(t *testing.T) {
	m := New()
	_, err := m.Eval(v("nope"), env.Empty)
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeUnboundIdentifier, err.Code)
	assert.Equal(t, term.Ident("nope"), err.Ident)
}

func TestEvalIteShortCircuits(t *testing.T) {
	// The branch not taken is never forced, even though it would blame.
	ite := func(cond, then, els term.Term) term.Term {
		return app(app(&term.Op1{Op: term.Ite{}, Arg: cond}, then), els)
	}
	m := New()
	got, err := m.Eval(ite(boolt(true), num(1), boom("else")), env.Empty)
	require.Nil(t, err)
	mustNum(t, got, 1)

	got, err = m.Eval(ite(boolt(false), boom("then"), num(2)), env.Empty)
	require.Nil(t, err)
	mustNum(t, got, 2)
}

func TestEvalStrChunks(t *testing.T) {
	chunks := &term.StrChunks{Chunks: []term.Chunk{
		term.Literal{Text: "x="},
		term.Expr{Term: &term.Op2{Op: term.PlusStr{}, Left: str("a"), Right: str("b")}},
		term.Literal{Text: "!"},
	}}
	m := New()
	got, err := m.Eval(chunks, env.Empty)
	require.Nil(t, err)
	s, ok := got.(env.VStr)
	require.True(t, ok)
	assert.Equal(t, "x=ab!", s.S)
}

func TestEvalStrChunksRejectsNonString(t *testing.T) {
	chunks := &term.StrChunks{Chunks: []term.Chunk{
		term.Expr{Term: num(3)},
	}}
	m := New()
	_, err := m.Eval(chunks, env.Empty)
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeTypeError, err.Code)
	assert.Equal(t, "Str", err.ExpectedType)
}

func TestEvalWrapUnwrap(t *testing.T) {
	// Wrapping with a symbol and unwrapping with the same symbol is the
	// identity; unwrapping with a different symbol yields the identity
	// function instead of erroring, leaving the seal intact.
	seal := func(symID uint64, inner term.Term) term.Term {
		return app(&term.Op1{Op: term.Wrap{}, Arg: &term.Sym{ID: symID}}, inner)
	}
	m := New()
	mine := m.FreshSym()
	other := m.FreshSym()
	require.NotEqual(t, mine, other)

	got, err := m.Eval(
		&term.Op2{Op: term.Unwrap{}, Left: &term.Sym{ID: mine}, Right: seal(mine, num(42))},
		env.Empty,
	)
	require.Nil(t, err)
	mustNum(t, got, 42)

	got, err = m.Eval(
		&term.Op2{Op: term.Unwrap{}, Left: &term.Sym{ID: other}, Right: seal(mine, num(42))},
		env.Empty,
	)
	require.Nil(t, err)
	_, isFun := got.(env.VFun)
	assert.True(t, isFun, "mismatched unwrap should yield the identity function, got %T", got)
}

func TestEvalDeepForcesEverything(t *testing.T) {
	// eval_deep { a = 1 + 1; b = [1, 2] } leaves every sub-thunk forced.
	rec := &term.RecRecord{Fields: fields(map[string]term.Term{
		"a": plus(num(1), num(1)),
		"b": &term.List{Elems: []term.Term{num(1), num(2)}},
	})}
	m := New()
	got, err := m.EvalDeep(rec, env.Empty)
	require.Nil(t, err)
	r, ok := got.(env.VRecord)
	require.True(t, ok)
	a := r.Fields[term.Ident("a")]
	require.True(t, a.IsForced(), "field a should be forced by EvalDeep")
	mustNum(t, a.Value(), 2)
	b := r.Fields[term.Ident("b")]
	require.True(t, b.IsForced())
	lst, ok := b.Value().(env.VList)
	require.True(t, ok)
	for i, el := range lst.Elems {
		require.True(t, el.IsForced(), "list elem %d should be forced", i)
	}
}

func TestEvalContractPassAndBlame(t *testing.T) {
	numT := term.Type(term.NumT{})
	lbl := &term.Label{Tag: "wants-num", Polarity: true}

	m := New()
	got, err := m.Eval(&term.Assume{Type: &numT, Label: lbl, Inner: num(42)}, env.Empty)
	require.Nil(t, err)
	mustNum(t, got, 42)

	_, err = m.Eval(&term.Assume{Type: &numT, Label: lbl, Inner: str("hello")}, env.Empty)
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeBlame, err.Code)
	require.NotNil(t, err.Label)
	assert.Equal(t, "wants-num", err.Label.Tag)
}

func TestEvalArrowContract(t *testing.T) {
	// A Num -> Num contract wraps the function: a good call passes, a
	// call returning the wrong type blames with the codomain on the
	// label's path.
	arrT := term.Type(term.ArrowT{Dom: term.NumT{}, Cod: term.NumT{}})
	lbl := &term.Label{Tag: "f", Polarity: true}

	m := New()
	wrapped := &term.Assume{Type: &arrT, Label: lbl, Inner: fn("x", v("x"))}
	got, err := m.Eval(app(wrapped, num(3)), env.Empty)
	require.Nil(t, err)
	mustNum(t, got, 3)

	bad := &term.Assume{Type: &arrT, Label: lbl, Inner: fn("x", str("oops"))}
	_, err = m.Eval(app(bad, num(3)), env.Empty)
	require.NotNil(t, err)
	require.Equal(t, evalerr.CodeBlame, err.Code)
	require.NotEmpty(t, err.Label.Path)
	_, isCod := err.Label.Path[len(err.Label.Path)-1].(term.Codomain)
	assert.True(t, isCod, "blame path should end at the codomain")
}

func TestEvalDocstringAndDefaultErasure(t *testing.T) {
	m := New()
	got, err := m.Eval(&term.Docstring{Text: "doc", Inner: num(5)}, env.Empty)
	require.Nil(t, err)
	mustNum(t, got, 5)

	// A default is terminal at WHNF so merge can still see it; reading
	// through it is StripDefault's job.
	dv, err := m.Eval(&term.DefaultValue{Inner: num(5)}, env.Empty)
	require.Nil(t, err)
	d, ok := dv.(env.VDefault)
	require.True(t, ok)
	inner, err := m.StripDefault(d)
	require.Nil(t, err)
	mustNum(t, inner, 5)
}

func TestEvalMergeScenarios(t *testing.T) {
	mergeT := func(l, r term.Term) term.Term {
		return &term.Op2{Op: term.Merge{}, Left: l, Right: r}
	}
	defRec := func(val float64) term.Term {
		return &term.Record{Fields: fields(map[string]term.Term{
			"a": &term.DefaultValue{Inner: num(val)},
		})}
	}
	concRec := func(val float64) term.Term {
		return &term.Record{Fields: fields(map[string]term.Term{"a": num(val)})}
	}
	forceA := func(t *testing.T, m *Machine, prog term.Term) (env.Value, *evalerr.Error) {
		t.Helper()
		got, err := m.Eval(prog, env.Empty)
		require.Nil(t, err)
		r, ok := got.(env.VRecord)
		require.True(t, ok)
		val, ferr := m.ForceThunk(r.Fields[term.Ident("a")])
		if ferr != nil {
			return nil, ferr
		}
		return m.StripDefault(val)
	}

	t.Run("concrete overrides default", func(t *testing.T) {
		m := New()
		val, err := forceA(t, m, mergeT(defRec(1), concRec(2)))
		require.Nil(t, err)
		mustNum(t, val, 2)
	})
	t.Run("equal defaults agree", func(t *testing.T) {
		m := New()
		val, err := forceA(t, m, mergeT(defRec(1), defRec(1)))
		require.Nil(t, err)
		mustNum(t, val, 1)
	})
	t.Run("unequal defaults conflict", func(t *testing.T) {
		m := New()
		_, err := forceA(t, m, mergeT(defRec(1), defRec(2)))
		require.NotNil(t, err)
		assert.Equal(t, evalerr.CodeOther, err.Code)
	})
	t.Run("distinct keys union", func(t *testing.T) {
		m := New()
		left := &term.Record{Fields: fields(map[string]term.Term{"a": num(1)})}
		right := &term.Record{Fields: fields(map[string]term.Term{"b": num(2)})}
		got, err := m.Eval(mergeT(left, right), env.Empty)
		require.Nil(t, err)
		r, ok := got.(env.VRecord)
		require.True(t, ok)
		assert.Len(t, r.Fields, 2)
	})
	t.Run("list merge fails", func(t *testing.T) {
		m := New()
		l := &term.List{Elems: []term.Term{num(1)}}
		_, err := m.Eval(mergeT(l, l), env.Empty)
		require.NotNil(t, err)
		assert.Equal(t, evalerr.CodeOther, err.Code)
	})
}

func TestEvalContractWithDefaultChecksOverride(t *testing.T) {
	// The contract carried by a defaulted field still applies to the
	// concrete value that overrides it in a merge.
	numT := term.Type(term.NumT{})
	lbl := &term.Label{Tag: "port", Polarity: true}
	left := &term.Record{Fields: fields(map[string]term.Term{
		"a": &term.ContractWithDefault{Type: &numT, Label: lbl, Inner: num(1)},
	})}
	right := &term.Record{Fields: fields(map[string]term.Term{"a": str("not a num")})}
	prog := &term.Op2{Op: term.Merge{}, Left: left, Right: right}

	m := New()
	got, err := m.Eval(prog, env.Empty)
	require.Nil(t, err)
	r, ok := got.(env.VRecord)
	require.True(t, ok)
	_, ferr := m.ForceThunk(r.Fields[term.Ident("a")])
	require.NotNil(t, ferr)
	assert.Equal(t, evalerr.CodeBlame, ferr.Code)
	assert.Equal(t, "port", ferr.Label.Tag)
}

func TestEvalImport(t *testing.T) {
	m := New()
	_, err := m.Eval(&term.ResolvedImport{FileID: 0}, env.Empty)
	require.NotNil(t, err, "import without a configured resolver must fail")

	m.Importer = stubResolver{t: num(9)}
	got, rerr := m.Eval(&term.ResolvedImport{FileID: 0}, env.Empty)
	require.Nil(t, rerr)
	mustNum(t, got, 9)
}

type stubResolver struct{ t term.Term }

func (s stubResolver) Resolve(string) (int, error) { return 0, nil }
func (s stubResolver) Get(int) (term.Term, error)  { return s.t, nil }
