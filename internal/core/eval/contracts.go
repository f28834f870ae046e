package eval

import (
	"github.com/quill-lang/quill/internal/core/env"
	"github.com/quill-lang/quill/internal/core/term"
)

// desugarContract turns a Promise, Assume, or ContractWithDefault's
// (Type, Label, Inner) triple into the term that actually performs the
// check at run time: applying the type-as-predicate value a
// term.Contract node reduces to, to Inner. Promise and Assume only
// differ in which typecheck.Mode the checker used on Inner — by the
// time evaluation sees either, the run-time behavior is identical:
// the distinction is a static one.
func desugarContract(ty *term.Type, lbl *term.Label, inner term.Term) term.Term {
	return &term.App{Fun: &term.Contract{Type: ty, Label: lbl}, Arg: inner}
}

// contractValue builds the callable value a term.Contract reduces to:
// a native function that, applied to the value being checked, either
// returns it (possibly wrapped, for Arrow and record contracts) or
// raises a BlameError carrying lbl.
func (m *Machine) contractValue(ty *term.Type, lbl *term.Label) env.Value {
	return env.VBuiltin{
		Name: "contract",
		Call: func(gen *env.IDGen, argThunk *env.Thunk) (env.Closure, error) {
			return m.buildCheck(gen, *ty, lbl, argThunk)
		},
	}
}

func (m *Machine) buildCheck(gen *env.IDGen, ty term.Type, lbl *term.Label, argThunk *env.Thunk) (env.Closure, error) {
	xid := gen.Fresh("contract-x")
	e := env.Empty.With1(xid, argThunk)
	xVar := &term.Var{Name: xid}

	switch t := ty.(type) {
	case term.Dyn, term.VarT, term.SymT:
		// No runtime enforcement: Dyn is unconstrained by definition,
		// and a type variable or Sym contract passes its value through
		// unchecked. No seal is installed for a type variable either
		// (a ForallT contract checks only its body), so parametricity
		// is not enforced at run time.
		return env.Closure{Term: xVar, Env: e}, nil

	case term.ForallT:
		return m.buildCheck(gen, t.Body, lbl, argThunk)

	case term.NumT:
		return guardedCheck(xVar, e, &term.Op1{Op: term.IsNum{}, Arg: xVar}, lbl), nil
	case term.BoolT:
		return guardedCheck(xVar, e, &term.Op1{Op: term.IsBool{}, Arg: xVar}, lbl), nil
	case term.StrT:
		return guardedCheck(xVar, e, &term.Op1{Op: term.IsStr{}, Arg: xVar}, lbl), nil
	case term.ListT:
		return guardedCheck(xVar, e, &term.Op1{Op: term.IsList{}, Arg: xVar}, lbl), nil

	case term.FlatT:
		predTerm := &term.App{Fun: t.Pred, Arg: xVar}
		return guardedCheck(xVar, e, predTerm, lbl), nil

	case term.ArrowT:
		return m.buildArrowCheck(gen, t, lbl, xid, e), nil

	case term.StaticRecordT:
		return m.buildStaticRecordCheck(gen, t, lbl, xVar, e), nil

	case term.DynRecordT:
		return m.buildDynRecordCheck(t, lbl, xVar, e), nil

	case term.EnumT:
		return m.buildEnumCheck(t, lbl, xVar, e), nil

	default:
		return env.Closure{Term: xVar, Env: e}, nil
	}
}

// guardedCheck builds `if checkTerm then xVar else blame(lbl)`, reusing
// Ite's stack-popping protocol rather than a dedicated assert op.
func guardedCheck(xVar term.Term, e *env.Environment, checkTerm term.Term, lbl *term.Label) env.Closure {
	ite := &term.App{
		Fun: &term.App{
			Fun: &term.Op1{Op: term.Ite{}, Arg: checkTerm},
			Arg: xVar,
		},
		Arg: &term.Op1{Op: term.Blame{}, Arg: &term.Lbl{Label: lbl}},
	}
	return env.Closure{Term: ite, Env: e}
}

func (m *Machine) buildArrowCheck(gen *env.IDGen, t term.ArrowT, lbl *term.Label, fid term.Ident, e *env.Environment) env.Closure {
	yid := gen.Fresh("contract-y")
	domLbl := lbl.GoDomain().WithPolarity()
	codLbl := lbl.GoCodomain()
	wrappedArg := &term.App{Fun: &term.Contract{Type: &t.Dom, Label: domLbl}, Arg: &term.Var{Name: yid}}
	applied := &term.App{Fun: &term.Var{Name: fid}, Arg: wrappedArg}
	body := &term.App{Fun: &term.Contract{Type: &t.Cod, Label: codLbl}, Arg: applied}
	fn := &term.Fun{Param: yid, Body: body}
	return env.Closure{Term: fn, Env: e}
}

func (m *Machine) buildStaticRecordCheck(gen *env.IDGen, t term.StaticRecordT, lbl *term.Label, xVar term.Term, e *env.Environment) env.Closure {
	fields, _ := flattenRow(t.Row)
	recFields := make(map[term.Ident]term.Term, len(fields))
	for _, f := range fields {
		ft := f.FieldType
		access := &term.Op1{Op: term.StaticAccess{Field: f.Name}, Arg: xVar}
		recFields[f.Name] = &term.App{Fun: &term.Contract{Type: &ft, Label: lbl.GoField(f.Name)}, Arg: access}
	}
	checkTerm := &term.Op1{Op: term.IsRecord{}, Arg: xVar}
	rec := &term.Record{Fields: recFields}
	ite := &term.App{
		Fun: &term.App{
			Fun: &term.Op1{Op: term.Ite{}, Arg: checkTerm},
			Arg: rec,
		},
		Arg: &term.Op1{Op: term.Blame{}, Arg: &term.Lbl{Label: lbl}},
	}
	return env.Closure{Term: ite, Env: e}
}

func (m *Machine) buildDynRecordCheck(t term.DynRecordT, lbl *term.Label, xVar term.Term, e *env.Environment) env.Closure {
	ft := t.FieldType
	keyParam, valParam := term.Ident("_k"), term.Ident("_v")
	mapFun := &term.Fun{Param: keyParam, Body: &term.Fun{
		Param: valParam,
		Body:  &term.App{Fun: &term.Contract{Type: &ft, Label: lbl}, Arg: &term.Var{Name: valParam}},
	}}
	mapped := &term.Op1{Op: term.MapRec{Fun: mapFun}, Arg: xVar}
	checkTerm := &term.Op1{Op: term.IsRecord{}, Arg: xVar}
	ite := &term.App{
		Fun: &term.App{
			Fun: &term.Op1{Op: term.Ite{}, Arg: checkTerm},
			Arg: mapped,
		},
		Arg: &term.Op1{Op: term.Blame{}, Arg: &term.Lbl{Label: lbl}},
	}
	return env.Closure{Term: ite, Env: e}
}

func (m *Machine) buildEnumCheck(t term.EnumT, lbl *term.Label, xVar term.Term, e *env.Environment) env.Closure {
	fields, _ := flattenRow(t.Row)
	cases := make(map[term.Ident]term.Term, len(fields))
	for _, f := range fields {
		cases[f.Name] = xVar
	}
	sw := &term.Op1{Op: term.Switch{Cases: cases, Default: &term.Op1{Op: term.Blame{}, Arg: &term.Lbl{Label: lbl}}}, Arg: xVar}
	return env.Closure{Term: sw, Env: e}
}

type rowField struct {
	Name      term.Ident
	FieldType term.Type
	Optional  bool
}

// flattenRow walks a RowExtend chain into a slice of fields plus
// whether the row ends open (a row-polymorphism tail variable) rather
// than closed (RowEmpty).
func flattenRow(row term.Type) ([]rowField, bool) {
	var fields []rowField
	for {
		switch r := row.(type) {
		case term.RowExtend:
			fields = append(fields, rowField{Name: r.Label, FieldType: r.FieldType, Optional: r.Optional})
			row = r.Tail
		case term.RowEmpty:
			return fields, false
		default:
			return fields, true
		}
	}
}
