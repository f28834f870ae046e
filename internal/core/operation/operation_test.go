package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/stack"
	"github.com/quill-lang/quill/internal/core/term"
)

// unary dispatches op over v with a fresh stack and generator, for the
// handlers that neither push nor pop continuations.
func unary(t *testing.T, op term.UnaryOp, v env.Value) (env.Step, *evalerr.Error) {
	t.Helper()
	return DispatchUnary(&stack.Stack{}, &env.IDGen{}, env.Empty, nil, op, v, nil)
}

func binary(t *testing.T, op term.BinaryOp, first, second env.Value) (env.Step, *evalerr.Error) {
	t.Helper()
	return DispatchBinary(&env.IDGen{}, env.Empty, op, first, second, nil)
}

func record(kv map[string]env.Value) env.VRecord {
	fields := make(map[term.Ident]*env.Thunk, len(kv))
	for k, v := range kv {
		fields[term.Ident(k)] = env.NewForcedThunk(v)
	}
	return env.VRecord{Fields: fields}
}

func TestTypePredicates(t *testing.T) {
	cases := []struct {
		op   term.UnaryOp
		v    env.Value
		want bool
	}{
		{term.IsNum{}, env.VNum{N: 1}, true},
		{term.IsNum{}, env.VStr{S: "1"}, false},
		{term.IsBool{}, env.VBool{B: true}, true},
		{term.IsStr{}, env.VStr{}, true},
		{term.IsFun{}, env.VFun{}, true},
		{term.IsFun{}, env.VBuiltin{}, true},
		{term.IsFun{}, env.VNum{}, false},
		{term.IsList{}, env.VList{}, true},
		{term.IsRecord{}, env.VRecord{}, true},
		{term.IsRecord{}, env.VList{}, false},
	}
	for _, tc := range cases {
		step, err := unary(t, tc.op, tc.v)
		require.Nil(t, err)
		require.True(t, step.IsDone())
		assert.Equal(t, env.VBool{B: tc.want}, step.Value, "%s(%T)", tc.op.Name(), tc.v)
	}
}

func TestIsZero(t *testing.T) {
	step, err := unary(t, term.IsZero{}, env.VNum{N: 0})
	require.Nil(t, err)
	assert.Equal(t, env.VBool{B: true}, step.Value)

	step, err = unary(t, term.IsZero{}, env.VNum{N: 0.5})
	require.Nil(t, err)
	assert.Equal(t, env.VBool{B: false}, step.Value)

	_, err = unary(t, term.IsZero{}, env.VStr{S: "0"})
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeTypeError, err.Code)
	assert.Equal(t, "Num", err.ExpectedType)
	assert.Equal(t, "is_zero", err.OpName)
}

func TestIteRequiresTwoArgs(t *testing.T) {
	var st stack.Stack
	_, err := DispatchUnary(&st, &env.IDGen{}, env.Empty, nil, term.Ite{}, env.VBool{B: true}, nil)
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeNotEnoughArgs, err.Code)
	assert.Equal(t, 2, err.ExpectedArity)
}

func TestFieldsOfSortsAndPrunesHidden(t *testing.T) {
	rec := record(map[string]env.Value{
		"b":       env.VNum{N: 2},
		"a":       env.VNum{N: 1},
		"_hidden": env.VNum{N: 0},
	})
	step, err := unary(t, term.FieldsOf{}, rec)
	require.Nil(t, err)
	lst, ok := step.Value.(env.VList)
	require.True(t, ok)
	require.Len(t, lst.Elems, 2)
	assert.Equal(t, env.VStr{S: "a"}, lst.Elems[0].Value())
	assert.Equal(t, env.VStr{S: "b"}, lst.Elems[1].Value())
}

func TestStaticAccessMissingField(t *testing.T) {
	_, err := unary(t, term.StaticAccess{Field: "nope"}, record(nil))
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeFieldMissing, err.Code)
	assert.Equal(t, term.Ident("nope"), err.FieldName)
}

func TestListOps(t *testing.T) {
	lst := env.VList{Elems: []*env.Thunk{
		env.NewForcedThunk(env.VNum{N: 1}),
		env.NewForcedThunk(env.VNum{N: 2}),
	}}

	step, err := unary(t, term.ListLength{}, lst)
	require.Nil(t, err)
	assert.Equal(t, env.VNum{N: 2}, step.Value)

	step, err = unary(t, term.ListTail{}, lst)
	require.Nil(t, err)
	tail, ok := step.Value.(env.VList)
	require.True(t, ok)
	assert.Len(t, tail.Elems, 1)

	_, err = unary(t, term.ListHead{}, env.VList{})
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeOther, err.Code)

	_, err = unary(t, term.ListTail{}, env.VList{})
	require.NotNil(t, err)
}

func TestListConcatPreservesThunks(t *testing.T) {
	a := env.NewForcedThunk(env.VNum{N: 1})
	b := env.NewForcedThunk(env.VNum{N: 2})
	step, err := binary(t, term.ListConcat{},
		env.VList{Elems: []*env.Thunk{a}},
		env.VList{Elems: []*env.Thunk{b}},
	)
	require.Nil(t, err)
	out, ok := step.Value.(env.VList)
	require.True(t, ok)
	require.Len(t, out.Elems, 2)
	assert.Same(t, a, out.Elems[0])
	assert.Same(t, b, out.Elems[1])
}

func TestListElemAt(t *testing.T) {
	lst := env.VList{Elems: []*env.Thunk{env.NewForcedThunk(env.VNum{N: 5})}}

	step, err := binary(t, term.ListElemAt{}, lst, env.VNum{N: 0})
	require.Nil(t, err)
	assert.False(t, step.IsDone(), "elem_at continues through the element's thunk")

	for _, idx := range []float64{-1, 1, 0.5} {
		_, err := binary(t, term.ListElemAt{}, lst, env.VNum{N: idx})
		require.NotNil(t, err, "index %v", idx)
		assert.Equal(t, evalerr.CodeOther, err.Code)
	}
}

func TestPlusAndPlusStr(t *testing.T) {
	step, err := binary(t, term.Plus{}, env.VNum{N: 40}, env.VNum{N: 2})
	require.Nil(t, err)
	assert.Equal(t, env.VNum{N: 42}, step.Value)

	_, err = binary(t, term.Plus{}, env.VNum{N: 1}, env.VStr{S: "2"})
	require.NotNil(t, err)
	assert.Equal(t, 1, err.ArgPos, "the second operand is at fault")

	step, err = binary(t, term.PlusStr{}, env.VStr{S: "ab"}, env.VStr{S: "cd"})
	require.Nil(t, err)
	assert.Equal(t, env.VStr{S: "abcd"}, step.Value)
}

func TestEqBool(t *testing.T) {
	cases := []struct {
		a, b env.Value
		want bool
	}{
		{env.VBool{B: true}, env.VBool{B: true}, true},
		{env.VBool{B: true}, env.VBool{B: false}, false},
		{env.VNum{N: 1}, env.VNum{N: 1}, true},
		{env.VStr{S: "a"}, env.VStr{S: "b"}, false},
		{env.VNull{}, env.VNull{}, true},
		{env.VEnum{Tag: "A"}, env.VEnum{Tag: "A"}, true},
		{env.VEnum{Tag: "A"}, env.VEnum{Tag: "B"}, false},
	}
	for _, tc := range cases {
		step, err := binary(t, term.EqBool{}, tc.a, tc.b)
		require.Nil(t, err)
		assert.Equal(t, env.VBool{B: tc.want}, step.Value)
	}

	_, err := binary(t, term.EqBool{}, env.VFun{}, env.VFun{})
	require.NotNil(t, err, "functions are not comparable")
}

func TestRecordBinaryOps(t *testing.T) {
	rec := record(map[string]env.Value{"a": env.VNum{N: 1}})

	step, err := binary(t, term.HasField{}, rec, env.VStr{S: "a"})
	require.Nil(t, err)
	assert.Equal(t, env.VBool{B: true}, step.Value)

	step, err = binary(t, term.HasField{}, rec, env.VStr{S: "b"})
	require.Nil(t, err)
	assert.Equal(t, env.VBool{B: false}, step.Value)

	_, err = binary(t, term.DynAccess{}, rec, env.VStr{S: "b"})
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeFieldMissing, err.Code)

	step, err = binary(t, term.DynRemove{}, rec, env.VStr{S: "a"})
	require.Nil(t, err)
	out, ok := step.Value.(env.VRecord)
	require.True(t, ok)
	assert.Empty(t, out.Fields)

	_, err = binary(t, term.DynRemove{}, rec, env.VStr{S: "b"})
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeFieldMissing, err.Code)

	step, err = binary(t, term.DynExtend{Value: &term.Num{Value: 2}}, rec, env.VStr{S: "b"})
	require.Nil(t, err)
	out, ok = step.Value.(env.VRecord)
	require.True(t, ok)
	assert.Len(t, out.Fields, 2)

	_, err = binary(t, term.DynExtend{Value: &term.Num{Value: 2}}, rec, env.VStr{S: "a"})
	require.NotNil(t, err, "extending with an existing key is rejected")
}

func TestLabelOps(t *testing.T) {
	lbl := env.VLabel{Label: &term.Label{Tag: "l", Polarity: true}}

	step, err := unary(t, term.ChangePolarity{}, lbl)
	require.Nil(t, err)
	assert.False(t, step.Value.(env.VLabel).Label.Polarity)

	step, err = unary(t, term.Pol{}, lbl)
	require.Nil(t, err)
	assert.Equal(t, env.VBool{B: true}, step.Value)

	step, err = unary(t, term.GoDom{}, lbl)
	require.Nil(t, err)
	path := step.Value.(env.VLabel).Label.Path
	require.Len(t, path, 1)
	assert.IsType(t, term.Domain{}, path[0])

	step, err = unary(t, term.TagOp{Tag: "renamed"}, lbl)
	require.Nil(t, err)
	assert.Equal(t, "renamed", step.Value.(env.VLabel).Label.Tag)
	assert.Equal(t, "l", lbl.Label.Tag, "label operators work on copies")
}

func TestSwitchDispatch(t *testing.T) {
	op := term.Switch{
		Cases:   map[term.Ident]term.Term{"A": &term.Num{Value: 1}},
		Default: &term.Num{Value: 99},
	}

	step, err := unary(t, op, env.VEnum{Tag: "A"})
	require.Nil(t, err)
	require.False(t, step.IsDone())
	assert.Equal(t, &term.Num{Value: 1}, step.Next.Term)

	step, err = unary(t, op, env.VEnum{Tag: "Z"})
	require.Nil(t, err)
	assert.Equal(t, &term.Num{Value: 99}, step.Next.Term)

	noDefault := term.Switch{Cases: map[term.Ident]term.Term{"A": &term.Num{Value: 1}}}
	_, err = unary(t, noDefault, env.VEnum{Tag: "Z"})
	require.NotNil(t, err)
	assert.Equal(t, evalerr.CodeFieldMissing, err.Code)
}

func TestEmbedIsIdentity(t *testing.T) {
	in := env.VEnum{Tag: "A"}
	step, err := unary(t, term.Embed{Tag: "B"}, in)
	require.Nil(t, err)
	assert.Equal(t, in, step.Value)

	_, err = unary(t, term.Embed{Tag: "B"}, env.VNum{})
	require.NotNil(t, err)
}
