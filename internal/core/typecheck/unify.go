package typecheck

import "github.com/quill-lang/quill/internal/core/term"

// unify reconciles two Wrappers, binding metavariables as needed and
// returning a UnifError on mismatch, or a bare RowUnifError when the
// rows of two record or enum types disagree.
// In permissive mode it is a no-op: the traversal still
// happens — annotations are recorded, Promise sub-trees recurse into
// strict mode — but nothing outside a Promise can fail to unify.
func (c *Checker) unify(a, b Wrapper, pos *term.Span, mode Mode) error {
	if mode == Permissive {
		return nil
	}
	ra, rb := c.Table.Resolve(a), c.Table.Resolve(b)

	if pa, ok := ra.(Ptr); ok {
		if pb, ok := rb.(Ptr); ok && pb.ID == pa.ID {
			return nil
		}
		c.Table.Bind(pa, rb)
		return nil
	}
	if pb, ok := rb.(Ptr); ok {
		c.Table.Bind(pb, ra)
		return nil
	}

	if ca, ok := ra.(Constant); ok {
		if cb, ok := rb.(Constant); ok && cb.ID == ca.ID {
			return nil
		}
		return unifyErr(wrapperType(ra), wrapperType(rb), pos, nil)
	}
	if _, ok := rb.(Constant); ok {
		return unifyErr(wrapperType(ra), wrapperType(rb), pos, nil)
	}

	apA, okA := ra.(arrowPlaceholder)
	apB, okB := rb.(arrowPlaceholder)
	switch {
	case okA && okB:
		if err := c.unify(apA.dom, apB.dom, pos, mode); err != nil {
			return err
		}
		return c.unify(apA.cod, apB.cod, pos, mode)
	case okA:
		return c.unifyArrowPlaceholder(apA, rb, pos, mode)
	case okB:
		return c.unifyArrowPlaceholder(apB, ra, pos, mode)
	}

	ca, okA2 := ra.(Concrete)
	cb, okB2 := rb.(Concrete)
	if !okA2 || !okB2 {
		return unifyErr(wrapperType(ra), wrapperType(rb), pos, nil)
	}
	return c.unifyTypes(ca.Type, cb.Type)
}

func (c *Checker) unifyArrowPlaceholder(ap arrowPlaceholder, other Wrapper, pos *term.Span, mode Mode) error {
	oc, ok := other.(Concrete)
	if !ok {
		return unifyErr(nil, nil, pos, nil)
	}
	if _, ok := oc.Type.(term.Dyn); ok {
		return nil
	}
	at, ok := oc.Type.(term.ArrowT)
	if !ok {
		return unifyErr(wrapperType(ap), oc.Type, pos, nil)
	}
	if err := c.unify(ap.dom, Concrete{Type: at.Dom}, pos, mode); err != nil {
		return err
	}
	return c.unify(ap.cod, Concrete{Type: at.Cod}, pos, mode)
}

func wrapperType(w Wrapper) term.Type {
	if c, ok := w.(Concrete); ok {
		return c.Type
	}
	return term.Dyn{}
}

// unifyTypes compares two syntactic types structurally. Dyn unifies
// with anything (the gradual-typing escape hatch); everything
// else must match shape, recursing into sub-components and — for the
// two row-carrying shapes, StaticRecordT and EnumT — delegating to
// unifyRows for the row-polymorphism rules.
func (c *Checker) unifyTypes(a, b term.Type) error {
	if _, ok := a.(term.Dyn); ok {
		return nil
	}
	if _, ok := b.(term.Dyn); ok {
		return nil
	}
	switch x := a.(type) {
	case term.NumT:
		if _, ok := b.(term.NumT); ok {
			return nil
		}
	case term.BoolT:
		if _, ok := b.(term.BoolT); ok {
			return nil
		}
	case term.StrT:
		if _, ok := b.(term.StrT); ok {
			return nil
		}
	case term.SymT:
		if _, ok := b.(term.SymT); ok {
			return nil
		}
	case term.ListT:
		if _, ok := b.(term.ListT); ok {
			return nil
		}
	case term.VarT:
		if y, ok := b.(term.VarT); ok && y.Name == x.Name {
			return nil
		}
	case term.ArrowT:
		y, ok := b.(term.ArrowT)
		if !ok {
			break
		}
		if err := c.unifyTypes(x.Dom, y.Dom); err != nil {
			return unifyErr(a, b, nil, err)
		}
		return c.unifyTypes(x.Cod, y.Cod)
	case term.ForallT:
		y, ok := b.(term.ForallT)
		if !ok {
			break
		}
		// Two foralls unify by comparing their bodies with the bound
		// name treated as matching positions, not by instantiating a
		// metavariable: this checker never needs to unify two
		// as-yet-uninstantiated polymorphic types against each other
		// outside of this exact shape (Promise/Assume annotations are
		// always instantiated, see Checker.instantiate).
		return c.unifyTypes(x.Body, renameVar(y.Body, y.Name, x.Name))
	case term.FlatT:
		// Any two custom contracts unify with each other: the predicate
		// terms are not compared, syntactically or semantically.
		if _, ok := b.(term.FlatT); ok {
			return nil
		}
	case term.StaticRecordT:
		y, ok := b.(term.StaticRecordT)
		if !ok {
			break
		}
		return c.unifyRows(x.Row, y.Row)
	case term.DynRecordT:
		y, ok := b.(term.DynRecordT)
		if !ok {
			break
		}
		return c.unifyTypes(x.FieldType, y.FieldType)
	case term.EnumT:
		y, ok := b.(term.EnumT)
		if !ok {
			break
		}
		return c.unifyRows(x.Row, y.Row)
	}
	return unifyErr(a, b, nil, nil)
}

// renameVar substitutes every VarT{Name: from} in ty with VarT{Name: to}.
func renameVar(ty term.Type, from, to term.Ident) term.Type {
	switch x := ty.(type) {
	case term.VarT:
		if x.Name == from {
			return term.VarT{Name: to}
		}
		return x
	case term.ArrowT:
		return term.ArrowT{Dom: renameVar(x.Dom, from, to), Cod: renameVar(x.Cod, from, to)}
	case term.ForallT:
		if x.Name == from {
			return x
		}
		return term.ForallT{Name: x.Name, Body: renameVar(x.Body, from, to)}
	case term.RowExtend:
		return term.RowExtend{Label: x.Label, FieldType: renameVar(x.FieldType, from, to), Optional: x.Optional, Tail: renameVar(x.Tail, from, to)}
	case term.EnumT:
		return term.EnumT{Row: renameVar(x.Row, from, to)}
	case term.StaticRecordT:
		return term.StaticRecordT{Row: renameVar(x.Row, from, to)}
	case term.DynRecordT:
		return term.DynRecordT{FieldType: renameVar(x.FieldType, from, to)}
	default:
		return ty
	}
}

// unifyRows compares two rows field by field, enforcing the row
// polymorphism rule: a label present in one row and absent from
// the other is only permitted when the row missing it ends in an open
// (VarT) tail, and even then the label becomes forbidden on that tail
// going forward so it cannot be introduced twice.
func (c *Checker) unifyRows(a, b term.Type) error {
	fa, tailA := flattenRowTail(a)
	fb, tailB := flattenRowTail(b)
	varA, openA := rowTailVar(tailA)
	varB, openB := rowTailVar(tailB)

	// A row's own labels are always forbidden on its tail: once
	// {a: Num | r} is in play, nothing unified with r may claim a.
	for _, f := range fa {
		if openA {
			c.forbid(varA, f.Name)
		}
	}
	for _, f := range fb {
		if openB {
			c.forbid(varB, f.Name)
		}
	}

	inB := make(map[term.Ident]rowField, len(fb))
	for _, f := range fb {
		inB[f.Name] = f
	}
	seen := make(map[term.Ident]bool, len(fa))
	for _, f := range fa {
		seen[f.Name] = true
		g, ok := inB[f.Name]
		if !ok {
			if !openB {
				return rowErr("missing", f.Name, nil)
			}
			// f is absorbed by b's tail; the tail's row constraints apply.
			if c.forbidden(varB, f.Name) {
				return rowErr("forbidden", f.Name, nil)
			}
			continue
		}
		switch {
		case f.FieldType != nil && g.FieldType != nil:
			if err := c.unifyTypes(f.FieldType, g.FieldType); err != nil {
				return err
			}
		case f.FieldType != nil || g.FieldType != nil:
			// One side is a bare enum tag, the other carries a payload
			// type; the rows describe different kinds of thing.
			return rowErr("kind", f.Name, nil)
		}
	}
	for _, g := range fb {
		if seen[g.Name] {
			continue
		}
		if !openA {
			return rowErr("extra", g.Name, nil)
		}
		if c.forbidden(varA, g.Name) {
			return rowErr("forbidden", g.Name, nil)
		}
	}
	return nil
}

// rowTailVar extracts the tail's row-variable name, reporting open =
// false for a closed (RowEmpty) tail.
func rowTailVar(tail term.Type) (term.Ident, bool) {
	if tv, ok := tail.(term.VarT); ok {
		return tv.Name, true
	}
	if _, ok := tail.(term.RowEmpty); ok {
		return "", false
	}
	if tail == nil {
		return "", false
	}
	// Any other tail shape (a nested Forall, a Flat…) is treated as
	// open but anonymous: no constraints can attach to it.
	return "", true
}

type rowField struct {
	Name      term.Ident
	FieldType term.Type
	Optional  bool
}

// flattenRow walks a RowExtend chain into a slice of fields plus
// whether the row ends open (a row-polymorphism tail variable) rather
// than closed (RowEmpty). Mirrors internal/core/eval's helper of the
// same shape, kept package-local to avoid a cross-package dependency
// for a five-line tree walk.
func flattenRow(row term.Type) ([]rowField, bool) {
	fields, tail := flattenRowTail(row)
	_, open := rowTailVar(tail)
	return fields, open
}

// flattenRowTail is flattenRow keeping the tail type itself, for
// callers that attach row constraints to a named tail variable.
func flattenRowTail(row term.Type) ([]rowField, term.Type) {
	var fields []rowField
	for {
		switch r := row.(type) {
		case term.RowExtend:
			fields = append(fields, rowField{Name: r.Label, FieldType: r.FieldType, Optional: r.Optional})
			row = r.Tail
		default:
			return fields, row
		}
	}
}
