package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/term"
)

func thunk(v env.Value) *env.Thunk { return env.NewForcedThunk(v) }

func rec(kv map[string]env.Value) env.VRecord {
	fields := make(map[term.Ident]*env.Thunk, len(kv))
	for k, v := range kv {
		fields[term.Ident(k)] = thunk(v)
	}
	return env.VRecord{Fields: fields}
}

func TestMergeEqualScalars(t *testing.T) {
	cases := []struct {
		name string
		v    env.Value
	}{
		{"num", env.VNum{N: 1}},
		{"str", env.VStr{S: "x"}},
		{"bool", env.VBool{B: true}},
		{"null", env.VNull{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			step, err := Merge(&env.IDGen{}, tc.v, tc.v, nil)
			require.Nil(t, err)
			require.True(t, step.IsDone())
			assert.Equal(t, tc.v, step.Value)
		})
	}
}

func TestMergeUnequalScalarsConflict(t *testing.T) {
	_, err := Merge(&env.IDGen{}, env.VNum{N: 1}, env.VNum{N: 2}, nil)
	assert.NotNil(t, err)

	_, err = Merge(&env.IDGen{}, env.VNum{N: 1}, env.VStr{S: "1"}, nil)
	assert.NotNil(t, err, "differently-kinded scalars conflict")
}

func TestMergeRecordsUnionsKeys(t *testing.T) {
	left := rec(map[string]env.Value{"a": env.VNum{N: 1}, "shared": env.VNum{N: 5}})
	right := rec(map[string]env.Value{"b": env.VNum{N: 2}, "shared": env.VNum{N: 5}})

	step, err := Merge(&env.IDGen{}, left, right, nil)
	require.Nil(t, err)
	out, ok := step.Value.(env.VRecord)
	require.True(t, ok)
	require.Len(t, out.Fields, 3)

	// Distinct keys carry their original thunks forward untouched.
	assert.Same(t, left.Fields[term.Ident("a")], out.Fields[term.Ident("a")])
	assert.Same(t, right.Fields[term.Ident("b")], out.Fields[term.Ident("b")])

	// A shared key becomes a pending recursive merge, not an eager one.
	shared := out.Fields[term.Ident("shared")]
	assert.False(t, shared.IsForced(), "shared fields merge lazily")
}

func TestMergeListsFail(t *testing.T) {
	l := env.VList{Elems: []*env.Thunk{thunk(env.VNum{N: 1})}}
	_, err := Merge(&env.IDGen{}, l, l, nil)
	assert.NotNil(t, err, "lists have no element-wise merge")

	_, err = Merge(&env.IDGen{}, l, rec(nil), nil)
	assert.NotNil(t, err, "list with record is a conflict")
}

func TestMergeEnums(t *testing.T) {
	step, err := Merge(&env.IDGen{}, env.VEnum{Tag: "A"}, env.VEnum{Tag: "A"}, nil)
	require.Nil(t, err)
	assert.Equal(t, env.VEnum{Tag: "A"}, step.Value)

	_, err = Merge(&env.IDGen{}, env.VEnum{Tag: "A"}, env.VEnum{Tag: "B"}, nil)
	assert.NotNil(t, err)
}

func TestMergeDefaultAgainstConcrete(t *testing.T) {
	def := env.VDefault{Inner: thunk(env.VNum{N: 1})}
	step, err := Merge(&env.IDGen{}, def, env.VNum{N: 2}, nil)
	require.Nil(t, err)
	require.False(t, step.IsDone(), "the override continues through a closure so contracts can apply")

	// Symmetric: the default may be on either side.
	step2, err := Merge(&env.IDGen{}, env.VNum{N: 2}, def, nil)
	require.Nil(t, err)
	require.False(t, step2.IsDone())
}

func TestMergeTwoDefaultsAccumulatesContracts(t *testing.T) {
	numT := term.Type(term.NumT{})
	lblA := &term.Label{Tag: "a"}
	lblB := &term.Label{Tag: "b"}
	a := env.VDefault{
		Contracts: []env.ContractSpec{{Type: &numT, Label: lblA}},
		Inner:     thunk(env.VNum{N: 1}),
	}
	b := env.VDefault{
		Contracts: []env.ContractSpec{{Type: &numT, Label: lblB}},
		Inner:     thunk(env.VNum{N: 1}),
	}

	step, err := Merge(&env.IDGen{}, a, b, nil)
	require.Nil(t, err)
	require.True(t, step.IsDone())
	out, ok := step.Value.(env.VDefault)
	require.True(t, ok, "merging two defaults stays a default")
	require.Len(t, out.Contracts, 2)
	assert.Equal(t, "a", out.Contracts[0].Label.Tag, "left contracts come first")
	assert.Equal(t, "b", out.Contracts[1].Label.Tag)
	assert.False(t, out.Inner.IsForced(), "the agreement check is deferred")
}
