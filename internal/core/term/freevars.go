package term

// FreeVars collects the set of free identifiers referenced by t.
// Nothing else in the module calls it; its tests check the binding
// rules of each term shape.
func FreeVars(t Term) map[Ident]struct{} {
	fv := map[Ident]struct{}{}
	collectFreeVars(t, map[Ident]struct{}{}, fv)
	return fv
}

func collectFreeVars(t Term, bound map[Ident]struct{}, out map[Ident]struct{}) {
	if t == nil {
		return
	}
	switch x := t.(type) {
	case *Null, *Bool, *Num, *Str, *Enum, *Sym, *Import, *ResolvedImport:
		// no sub-terms
	case *Fun:
		inner := withBound(bound, x.Param)
		collectFreeVars(x.Body, inner, out)
	case *Let:
		collectFreeVars(x.Bound, bound, out)
		collectFreeVars(x.Body, withBound(bound, x.Name), out)
	case *App:
		collectFreeVars(x.Fun, bound, out)
		collectFreeVars(x.Arg, bound, out)
	case *Var:
		if _, isBound := bound[x.Name]; !isBound {
			out[x.Name] = struct{}{}
		}
	case *Record:
		for _, v := range x.Fields {
			collectFreeVars(v, bound, out)
		}
	case *RecRecord:
		inner := bound
		for name := range x.Fields {
			inner = withBound(inner, name)
		}
		for _, v := range x.Fields {
			collectFreeVars(v, inner, out)
		}
	case *List:
		for _, e := range x.Elems {
			collectFreeVars(e, bound, out)
		}
	case *Lbl:
		// labels carry no terms
	case *Wrapped:
		collectFreeVars(x.Inner, bound, out)
	case *StrChunks:
		for _, c := range x.Chunks {
			if e, ok := c.(Expr); ok {
				collectFreeVars(e.Term, bound, out)
			}
		}
	case *Op1:
		collectFreeVars(x.Arg, bound, out)
		if sw, ok := x.Op.(Switch); ok {
			for _, c := range sw.Cases {
				collectFreeVars(c, bound, out)
			}
			collectFreeVars(sw.Default, bound, out)
		}
		if mr, ok := x.Op.(MapRec); ok {
			collectFreeVars(mr.Fun, bound, out)
		}
	case *Op2:
		collectFreeVars(x.Left, bound, out)
		collectFreeVars(x.Right, bound, out)
		if de, ok := x.Op.(DynExtend); ok {
			collectFreeVars(de.Value, bound, out)
		}
	case *Promise:
		collectFreeVars(x.Inner, bound, out)
	case *Assume:
		collectFreeVars(x.Inner, bound, out)
	case *Contract:
		// no sub-terms
	case *DefaultValue:
		collectFreeVars(x.Inner, bound, out)
	case *ContractWithDefault:
		collectFreeVars(x.Inner, bound, out)
	case *Docstring:
		collectFreeVars(x.Inner, bound, out)
	}
}

func withBound(bound map[Ident]struct{}, name Ident) map[Ident]struct{} {
	next := make(map[Ident]struct{}, len(bound)+1)
	for k := range bound {
		next[k] = struct{}{}
	}
	next[name] = struct{}{}
	return next
}
