package typecheck

import "github.com/quill-lang/quill/internal/core/term"

// Operator typing: every strict primitive declares a
// signature, the checker builds that signature's shape and checks the
// operands against it. Operators that consume extra stack Arg frames
// at run time (Ite, Seq, Trace) type as the curried function their
// term shape makes them: App(Op1(Seq, a), b) means Op1(Seq, a) is a
// one-argument function, so its inferred type is an arrow.

func (c *Checker) inferOp1(x *term.Op1, mode Mode) (Wrapper, error) {
	switch o := x.Op.(type) {
	case term.Ite:
		// Bool → a → a → a: the condition is the strict operand, the two
		// branches arrive as application arguments and must agree.
		if err := c.Check(x.Arg, Concrete{Type: term.BoolT{}}, mode); err != nil {
			return nil, err
		}
		a := c.Table.NewVar()
		return arrowPlaceholder{dom: a, cod: arrowPlaceholder{dom: a, cod: a}}, nil

	case term.IsZero:
		if err := c.Check(x.Arg, Concrete{Type: term.NumT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.BoolT{}}, nil

	case term.IsNum, term.IsBool, term.IsStr, term.IsFun, term.IsList, term.IsRecord:
		if _, err := c.Infer(x.Arg, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.BoolT{}}, nil

	case term.Blame:
		// ∀a. Lbl → a: blame never returns, so its result unifies with
		// whatever the context wants.
		if err := c.Check(x.Arg, Concrete{Type: term.SymT{}}, mode); err != nil {
			return nil, err
		}
		return c.Table.NewVar(), nil

	case term.Embed:
		// ∀r. [r] → [tag | r] with tag forbidden in r: injecting a tag a
		// row already carries would make the label ambiguous.
		return c.inferEmbed(x, o, mode)

	case term.Switch:
		if _, err := c.Infer(x.Arg, mode); err != nil {
			return nil, err
		}
		for _, branch := range o.Cases {
			if _, err := c.Infer(branch, mode); err != nil {
				return nil, err
			}
		}
		if o.Default != nil {
			if _, err := c.Infer(o.Default, mode); err != nil {
				return nil, err
			}
		}
		return Concrete{Type: term.Dyn{}}, nil

	case term.ChangePolarity, term.GoDom, term.GoCodom, term.TagOp:
		if err := c.Check(x.Arg, Concrete{Type: term.SymT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.SymT{}}, nil

	case term.Pol:
		if err := c.Check(x.Arg, Concrete{Type: term.SymT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.BoolT{}}, nil

	case term.Wrap:
		if err := c.Check(x.Arg, Concrete{Type: term.SymT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.ArrowT{Dom: term.Dyn{}, Cod: term.Dyn{}}}, nil

	case term.StaticAccess:
		// ∀r a. {field: a | r} → a, specialized to whatever is known
		// about the record's inferred type.
		return c.inferStaticAccess(x, o, mode)

	case term.FieldsOf:
		if _, err := c.Infer(x.Arg, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.ListT{}}, nil

	case term.MapRec:
		if _, err := c.Infer(o.Fun, mode); err != nil {
			return nil, err
		}
		if _, err := c.Infer(x.Arg, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.DynRecordT{FieldType: term.Dyn{}}}, nil

	case term.Seq:
		// ∀a b. a → b → b, curried through the stack: the strict operand
		// is forced and discarded, the application argument is returned.
		if _, err := c.Infer(x.Arg, mode); err != nil {
			return nil, err
		}
		b := c.Table.NewVar()
		return arrowPlaceholder{dom: b, cod: b}, nil

	case term.Trace:
		if err := c.Check(x.Arg, Concrete{Type: term.StrT{}}, mode); err != nil {
			return nil, err
		}
		b := c.Table.NewVar()
		return arrowPlaceholder{dom: b, cod: b}, nil

	case term.DeepSeq:
		// Deep forcing returns its operand unchanged.
		return c.Infer(x.Arg, mode)

	case term.ListHead:
		if err := c.Check(x.Arg, Concrete{Type: term.ListT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.Dyn{}}, nil

	case term.ListTail:
		if err := c.Check(x.Arg, Concrete{Type: term.ListT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.ListT{}}, nil

	case term.ListLength:
		if err := c.Check(x.Arg, Concrete{Type: term.ListT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.NumT{}}, nil

	case term.ChunksConcat:
		if err := c.Check(x.Arg, Concrete{Type: term.StrT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.StrT{}}, nil

	default:
		if _, err := c.Infer(x.Arg, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.Dyn{}}, nil
	}
}

func (c *Checker) inferEmbed(x *term.Op1, o term.Embed, mode Mode) (Wrapper, error) {
	argTy, err := c.Infer(x.Arg, mode)
	if err != nil {
		return nil, err
	}
	et, ok := c.Table.Resolve(argTy).(Concrete)
	if !ok {
		return Concrete{Type: term.Dyn{}}, nil
	}
	en, ok := et.Type.(term.EnumT)
	if !ok {
		return Concrete{Type: term.Dyn{}}, nil
	}
	fields, tail := flattenRowTail(en.Row)
	for _, f := range fields {
		if f.Name == o.Tag && mode == Strict {
			return nil, wrap(x, rowErr("forbidden", o.Tag, x.Span()))
		}
	}
	if tv, isVar := tail.(term.VarT); isVar {
		c.forbid(tv.Name, o.Tag)
	}
	return Concrete{Type: term.EnumT{Row: term.RowExtend{Label: o.Tag, Tail: en.Row}}}, nil
}

func (c *Checker) inferStaticAccess(x *term.Op1, o term.StaticAccess, mode Mode) (Wrapper, error) {
	argTy, err := c.Infer(x.Arg, mode)
	if err != nil {
		return nil, err
	}
	rt, ok := c.Table.Resolve(argTy).(Concrete)
	if !ok {
		return Concrete{Type: term.Dyn{}}, nil
	}
	switch recTy := rt.Type.(type) {
	case term.StaticRecordT:
		fields, open := flattenRow(recTy.Row)
		for _, f := range fields {
			if f.Name != o.Field {
				continue
			}
			if f.FieldType == nil {
				return Concrete{Type: term.Dyn{}}, nil
			}
			return Concrete{Type: f.FieldType}, nil
		}
		if !open && mode == Strict {
			return nil, wrap(x, rowErr("missing", o.Field, x.Span()))
		}
		return Concrete{Type: term.Dyn{}}, nil
	case term.DynRecordT:
		return Concrete{Type: recTy.FieldType}, nil
	default:
		return Concrete{Type: term.Dyn{}}, nil
	}
}

func (c *Checker) inferOp2(x *term.Op2, mode Mode) (Wrapper, error) {
	switch o := x.Op.(type) {
	case term.Plus:
		if err := c.Check(x.Left, Concrete{Type: term.NumT{}}, mode); err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.NumT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.NumT{}}, nil

	case term.PlusStr:
		if err := c.Check(x.Left, Concrete{Type: term.StrT{}}, mode); err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.StrT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.StrT{}}, nil

	case term.Unwrap:
		if err := c.Check(x.Left, Concrete{Type: term.SymT{}}, mode); err != nil {
			return nil, err
		}
		if _, err := c.Infer(x.Right, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.Dyn{}}, nil

	case term.EqBool:
		if err := c.Check(x.Left, Concrete{Type: term.BoolT{}}, mode); err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.BoolT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.BoolT{}}, nil

	case term.DynAccess:
		ty, err := c.Infer(x.Left, mode)
		if err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.StrT{}}, mode); err != nil {
			return nil, err
		}
		if rt, ok := c.Table.Resolve(ty).(Concrete); ok {
			if dr, ok := rt.Type.(term.DynRecordT); ok {
				return Concrete{Type: dr.FieldType}, nil
			}
		}
		return Concrete{Type: term.Dyn{}}, nil

	case term.DynExtend:
		if _, err := c.Infer(x.Left, mode); err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.StrT{}}, mode); err != nil {
			return nil, err
		}
		if _, err := c.Infer(o.Value, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.DynRecordT{FieldType: term.Dyn{}}}, nil

	case term.DynRemove:
		if _, err := c.Infer(x.Left, mode); err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.StrT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.DynRecordT{FieldType: term.Dyn{}}}, nil

	case term.HasField:
		if _, err := c.Infer(x.Left, mode); err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.StrT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.BoolT{}}, nil

	case term.ListConcat:
		if err := c.Check(x.Left, Concrete{Type: term.ListT{}}, mode); err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.ListT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.ListT{}}, nil

	case term.ListMap:
		if err := c.Check(x.Left, Concrete{Type: term.ListT{}}, mode); err != nil {
			return nil, err
		}
		a := c.Table.NewVar()
		b := c.Table.NewVar()
		if err := c.Check(x.Right, arrowPlaceholder{dom: a, cod: b}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.ListT{}}, nil

	case term.ListElemAt:
		if err := c.Check(x.Left, Concrete{Type: term.ListT{}}, mode); err != nil {
			return nil, err
		}
		if err := c.Check(x.Right, Concrete{Type: term.NumT{}}, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.Dyn{}}, nil

	case term.Merge:
		// Merging is structural at run time; statically the operands may
		// legitimately have different record shapes, so neither side
		// constrains the other.
		if _, err := c.Infer(x.Left, mode); err != nil {
			return nil, err
		}
		if _, err := c.Infer(x.Right, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.Dyn{}}, nil

	default:
		if _, err := c.Infer(x.Left, mode); err != nil {
			return nil, err
		}
		if _, err := c.Infer(x.Right, mode); err != nil {
			return nil, err
		}
		return Concrete{Type: term.Dyn{}}, nil
	}
}
