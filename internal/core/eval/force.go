package eval

import (
	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/evalerr"
)

// ForceThunk reduces th to WHNF through the ordinary Var/Thunk-frame
// protocol (via env.VarFor), so a caller holding a bare *env.Thunk —
// a record field, a list element, an enum payload — can force it
// without bypassing the thunk's own memoization.
func (m *Machine) ForceThunk(th *env.Thunk) (env.Value, *evalerr.Error) {
	e, ref := env.VarFor(m.gen, th)
	return m.Eval(ref, e)
}

// StripDefault forces through any chain of env.VDefault wrappers to
// the first concrete (non-default) WHNF, the way env.VDefault's own
// doc comment requires of any consumer — arithmetic, export, deep
// forcing for display — that wants the value a default finally
// resolved to rather than the fact that it started out as a default.
func (m *Machine) StripDefault(v env.Value) (env.Value, *evalerr.Error) {
	for {
		d, ok := v.(env.VDefault)
		if !ok {
			return v, nil
		}
		inner, err := m.ForceThunk(d.Inner)
		if err != nil {
			return nil, err
		}
		v = inner
	}
}
