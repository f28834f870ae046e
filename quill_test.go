package quill_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill"
	"github.com/quill-lang/quill/internal/core/term"
)

func num(n float64) term.Term { return &term.Num{Value: n} }
func str(s string) term.Term  { return &term.Str{Value: s} }

func record(kv map[string]term.Term) term.Term {
	fields := make(map[term.Ident]term.Term, len(kv))
	for k, v := range kv {
		fields[term.Ident(k)] = v
	}
	return &term.Record{Fields: fields}
}

func TestValueScalars(t *testing.T) {
	ctx := quill.New()

	b, err := ctx.Compile(&term.Bool{Value: true}).Bool()
	require.NoError(t, err)
	assert.True(t, b)

	s, err := ctx.Compile(str("hi")).Str()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	assert.Equal(t, quill.NullKind, ctx.Compile(&term.Null{}).Kind())
	assert.Equal(t, quill.FuncKind, ctx.Compile(&term.Fun{Param: "x", Body: &term.Var{Name: "x"}}).Kind())

	// Asking for the wrong shape is an error, not a zero value.
	_, err = ctx.Compile(num(1)).Str()
	assert.Error(t, err)
}

func TestValueDecimalIsExact(t *testing.T) {
	ctx := quill.New()
	d, err := ctx.Compile(num(0.1)).Decimal()
	require.NoError(t, err)
	assert.Equal(t, "0.1", d.String(), "the boundary sees the decimal, not the float artifacts")

	d, err = ctx.Compile(num(42)).Decimal()
	require.NoError(t, err)
	assert.Equal(t, "42", d.String())
}

func TestValueIsLazyUntilInspected(t *testing.T) {
	ctx := quill.New()
	blame := &term.Op1{Op: term.Blame{}, Arg: &term.Lbl{Label: &term.Label{Tag: "boom"}}}
	val := ctx.Compile(blame)
	// Compiling never forces; the error only appears on inspection.
	err := val.Err()
	require.Error(t, err)
	assert.True(t, quill.IsBlame(err))
	assert.Equal(t, quill.BottomKind, val.Kind())
}

func TestValueRecordAccess(t *testing.T) {
	ctx := quill.New()
	val := ctx.Compile(record(map[string]term.Term{
		"a":       num(1),
		"_hidden": num(2),
	}))

	names, err := val.FieldNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names, "hidden fields are not exported")

	all, err := val.Fields()
	require.NoError(t, err)
	assert.Len(t, all, 2, "Fields still exposes hidden entries")

	a, err := val.LookupField("a")
	require.NoError(t, err)
	d, err := a.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "1", d.String())

	_, err = val.LookupField("nope")
	assert.Error(t, err)
}

func TestValueListAccess(t *testing.T) {
	ctx := quill.New()
	val := ctx.Compile(&term.List{Elems: []term.Term{num(1), num(2), num(3)}})

	n, err := val.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	elems, err := val.Elems()
	require.NoError(t, err)
	require.Len(t, elems, 3)
	d, err := elems[2].Decimal()
	require.NoError(t, err)
	assert.Equal(t, "3", d.String())
}

func TestValueEnum(t *testing.T) {
	ctx := quill.New()

	tag, payload, err := ctx.Compile(&term.Enum{Tag: "None"}).Tag()
	require.NoError(t, err)
	assert.Equal(t, "None", tag)
	assert.Nil(t, payload)

	tag, payload, err = ctx.Compile(&term.Enum{Tag: "Some", Payload: num(5)}).Tag()
	require.NoError(t, err)
	assert.Equal(t, "Some", tag)
	require.NotNil(t, payload)
	d, err := payload.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "5", d.String())
}

func TestContextEvalDeep(t *testing.T) {
	ctx := quill.New()
	prog := record(map[string]term.Term{
		"a": &term.Op2{Op: term.Plus{}, Left: num(1), Right: num(1)},
	})
	val, err := ctx.EvalDeep(prog)
	require.NoError(t, err)
	a, err := val.LookupField("a")
	require.NoError(t, err)
	d, err := a.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "2", d.String())
}

func TestContextTrace(t *testing.T) {
	ctx := quill.New()
	var buf bytes.Buffer
	ctx.Trace(&buf)

	prog := &term.App{
		Fun: &term.Op1{Op: term.Trace{}, Arg: str("ping")},
		Arg: num(1),
	}
	require.NoError(t, ctx.Compile(prog).Err())
	assert.Contains(t, buf.String(), "ping")

	// Disabling the sink makes trace a no-op again.
	ctx.Trace(nil)
	buf.Reset()
	require.NoError(t, ctx.Compile(prog).Err())
	assert.Empty(t, buf.String())
}

func TestContextImports(t *testing.T) {
	ctx := quill.New()
	ctx.AddFile("lib/answer", num(42))

	val := ctx.Compile(&term.Import{Path: "lib/answer"})
	d, err := val.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "42", d.String())

	missing := ctx.Compile(&term.Import{Path: "lib/missing"})
	assert.Error(t, missing.Err())
}

func TestContextCheck(t *testing.T) {
	ctx := quill.New()
	numT := term.Type(term.NumT{})
	lbl := &term.Label{Tag: "n"}

	ok := &term.Promise{Type: &numT, Label: lbl, Inner: num(1)}
	assert.NoError(t, ctx.Check(ok))

	bad := &term.Promise{Type: &numT, Label: lbl, Inner: str("no")}
	err := ctx.Check(bad)
	require.Error(t, err)
	assert.True(t, quill.IsCheckError(err))
	assert.False(t, quill.IsBlame(err))
}

func TestErrorPredicates(t *testing.T) {
	ctx := quill.New()

	numT := term.Type(term.NumT{})
	blamed := &term.Assume{Type: &numT, Label: &term.Label{Tag: "n"}, Inner: str("x")}
	err := ctx.Compile(blamed).Err()
	require.Error(t, err)
	assert.True(t, quill.IsBlame(err))
	assert.False(t, quill.IsTypeError(err))

	typeErr := ctx.Compile(&term.Op2{Op: term.Plus{}, Left: num(1), Right: str("x")}).Err()
	require.Error(t, typeErr)
	assert.True(t, quill.IsTypeError(typeErr))
	assert.False(t, quill.IsBlame(typeErr))
}
