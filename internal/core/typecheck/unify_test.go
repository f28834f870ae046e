package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/internal/core/term"
)

func TestUnifySymmetric(t *testing.T) {
	pairs := []struct {
		name string
		a, b term.Type
		ok   bool
	}{
		{"num num", term.NumT{}, term.NumT{}, true},
		{"num bool", term.NumT{}, term.BoolT{}, false},
		{"dyn absorbs anything", term.Dyn{}, term.StrT{}, true},
		{"arrow arrow", arrow(term.NumT{}, term.BoolT{}), arrow(term.NumT{}, term.BoolT{}), true},
		{"arrow dom mismatch", arrow(term.NumT{}, term.BoolT{}), arrow(term.StrT{}, term.BoolT{}), false},
		{"same var", tvar("a"), tvar("a"), true},
		{"different vars", tvar("a"), tvar("b"), false},
		{
			"forall alpha-equivalent",
			forall("a", arrow(tvar("a"), tvar("a"))),
			forall("b", arrow(tvar("b"), tvar("b"))),
			true,
		},
	}
	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			errAB := New().unify(Concrete{Type: tc.a}, Concrete{Type: tc.b}, nil, Strict)
			errBA := New().unify(Concrete{Type: tc.b}, Concrete{Type: tc.a}, nil, Strict)
			assert.Equal(t, tc.ok, errAB == nil)
			assert.Equal(t, tc.ok, errBA == nil, "unify must be symmetric")
		})
	}
}

func TestUnifyPermissiveIsNoop(t *testing.T) {
	c := New()
	assert.NoError(t, c.unify(Concrete{Type: term.NumT{}}, Concrete{Type: term.BoolT{}}, nil, Permissive))
}

func TestUnifyPtrBindsAndShares(t *testing.T) {
	c := New()
	a := c.Table.NewVar()
	b := c.Table.NewVar()

	// Linking two free variables makes them share a root.
	require.NoError(t, c.unify(a, b, nil, Strict))
	// Solving one side is visible through the other.
	require.NoError(t, c.unify(a, Concrete{Type: term.NumT{}}, nil, Strict))
	resolved := c.Table.Resolve(b)
	conc, ok := resolved.(Concrete)
	require.True(t, ok, "b should resolve through a's binding, got %T", resolved)
	assert.IsType(t, term.NumT{}, conc.Type)

	// Unification is idempotent.
	assert.NoError(t, c.unify(a, b, nil, Strict))
	assert.NoError(t, c.unify(b, Concrete{Type: term.NumT{}}, nil, Strict))
	// And a conflicting binding now fails.
	assert.Error(t, c.unify(b, Concrete{Type: term.StrT{}}, nil, Strict))
}

func TestUnifyConstants(t *testing.T) {
	c := New()
	k1 := c.Table.NewConstant("a")
	k2 := c.Table.NewConstant("a")

	assert.NoError(t, c.unify(k1, k1, nil, Strict))
	assert.Error(t, c.unify(k1, k2, nil, Strict), "two distinct skolems must not unify even under the same name")
	assert.Error(t, c.unify(k1, Concrete{Type: term.NumT{}}, nil, Strict))

	// But a free variable may be solved to a constant.
	p := c.Table.NewVar()
	assert.NoError(t, c.unify(p, k1, nil, Strict))
	assert.NoError(t, c.unify(p, k1, nil, Strict))
}

func TestUnifyFlatContracts(t *testing.T) {
	// Two custom contracts always unify with each other; this checker
	// treats any two Flat types as compatible rather than comparing
	// their predicate terms.
	c := New()
	f1 := Concrete{Type: term.FlatT{Pred: v("p")}}
	f2 := Concrete{Type: term.FlatT{Pred: v("q")}}
	assert.NoError(t, c.unify(f1, f2, nil, Strict))
	assert.Error(t, c.unify(f1, Concrete{Type: term.NumT{}}, nil, Strict))
}

func TestUnifyRowsOpenAndClosed(t *testing.T) {
	aNum := term.RowExtend{Label: "a", FieldType: term.NumT{}}
	bBool := term.RowExtend{Label: "b", FieldType: term.BoolT{}}

	t.Run("field order is irrelevant", func(t *testing.T) {
		c := New()
		assert.NoError(t, c.unifyRows(row(term.RowEmpty{}, aNum, bBool), row(term.RowEmpty{}, bBool, aNum)))
	})
	t.Run("identical closed rows", func(t *testing.T) {
		c := New()
		assert.NoError(t, c.unifyRows(row(term.RowEmpty{}, aNum, bBool), row(term.RowEmpty{}, aNum, bBool)))
	})
	t.Run("field type mismatch", func(t *testing.T) {
		c := New()
		aBool := term.RowExtend{Label: "a", FieldType: term.BoolT{}}
		assert.Error(t, c.unifyRows(row(term.RowEmpty{}, aNum), row(term.RowEmpty{}, aBool)))
	})
	t.Run("open tail absorbs extras", func(t *testing.T) {
		c := New()
		assert.NoError(t, c.unifyRows(row(tvar("r"), aNum), row(term.RowEmpty{}, aNum, bBool)))
	})
	t.Run("closed tail rejects extras", func(t *testing.T) {
		c := New()
		err := c.unifyRows(row(term.RowEmpty{}, aNum), row(term.RowEmpty{}, aNum, bBool))
		require.Error(t, err)
		re, ok := err.(*RowUnifError)
		require.True(t, ok)
		assert.Equal(t, "extra", re.Kind)
	})
	t.Run("payload kind mismatch", func(t *testing.T) {
		c := New()
		bare := term.RowExtend{Label: "a"}
		err := c.unifyRows(row(term.RowEmpty{}, aNum), row(term.RowEmpty{}, bare))
		require.Error(t, err)
		re, ok := err.(*RowUnifError)
		require.True(t, ok)
		assert.Equal(t, "kind", re.Kind)
	})
	t.Run("forbidden label blocks absorption", func(t *testing.T) {
		c := New()
		c.forbid("r", "b")
		err := c.unifyRows(row(tvar("r"), aNum), row(term.RowEmpty{}, aNum, bBool))
		require.Error(t, err)
		re, ok := err.(*RowUnifError)
		require.True(t, ok)
		assert.Equal(t, "forbidden", re.Kind)
		assert.Equal(t, term.Ident("b"), re.Label)
	})
	t.Run("own labels become forbidden on the tail", func(t *testing.T) {
		c := New()
		require.NoError(t, c.unifyRows(row(tvar("r"), aNum), row(tvar("r"), aNum)))
		assert.True(t, c.forbidden("r", "a"))
	})
}

func TestInstantiateCopiesRowConstraints(t *testing.T) {
	c := New()
	c.forbid("r", "a")
	ty := c.instantiate(forall("r", term.StaticRecordT{Row: tvar("r")}))
	rec, ok := ty.(term.StaticRecordT)
	require.True(t, ok)
	fresh, ok := rec.Row.(term.VarT)
	require.True(t, ok)
	assert.NotEqual(t, term.Ident("r"), fresh.Name, "instantiation must rename the bound variable")
	assert.True(t, c.forbidden(fresh.Name, "a"), "constraints on the bound name carry to the fresh one")
}
