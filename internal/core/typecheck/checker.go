package typecheck

import (
	"fmt"

	"github.com/quill-lang/quill/internal/core/term"
)

// Mode selects strict checking (inside a Promise: Inner is checked
// against Type top-down) or permissive checking (inside an Assume:
// Inner is only inferred loosely, and Type is trusted to the run-time
// contract installed alongside it).
type Mode int

const (
	Strict Mode = iota
	Permissive
)

// Checker holds the state one top-level type-check call threads
// through: the unification table, the typing context (Gamma) mapping
// bound identifiers to their Wrapper, and the row-constraint sets —
// per instantiated row variable, the labels it is forbidden from ever
// introducing because a row sharing that tail already claims them.
type Checker struct {
	Table     *Table
	gamma     map[term.Ident]Wrapper
	rowForbid map[term.Ident]map[term.Ident]struct{}
	skolemSeq int

	// Imports supplies already-resolved import terms; nil means a
	// ResolvedImport simply types as Dyn. Each file is checked at most
	// once, in a fresh local environment, and the verdict cached.
	Imports     ImportSource
	importCache map[int]error
}

// ImportSource is the slice of the import resolver the checker needs:
// just the id→term lookup, not path resolution.
type ImportSource interface {
	Get(fileID int) (term.Term, error)
}

// New returns an empty Checker.
func New() *Checker {
	return &Checker{
		Table:       NewTable(),
		gamma:       map[term.Ident]Wrapper{},
		rowForbid:   map[term.Ident]map[term.Ident]struct{}{},
		importCache: map[int]error{},
	}
}

// forbid records that the row variable named tail may never introduce
// label.
func (c *Checker) forbid(tail, label term.Ident) {
	set, ok := c.rowForbid[tail]
	if !ok {
		set = map[term.Ident]struct{}{}
		c.rowForbid[tail] = set
	}
	set[label] = struct{}{}
}

// forbidden reports whether label is forbidden on the row variable
// named tail.
func (c *Checker) forbidden(tail, label term.Ident) bool {
	_, ok := c.rowForbid[tail][label]
	return ok
}

func (c *Checker) bind(name term.Ident, w Wrapper) func() {
	old, had := c.gamma[name]
	c.gamma[name] = w
	return func() {
		if had {
			c.gamma[name] = old
		} else {
			delete(c.gamma, name)
		}
	}
}

// Check verifies t against expected under mode, returning a
// TypecheckError on mismatch.
func (c *Checker) Check(t term.Term, expected Wrapper, mode Mode) error {
	switch x := t.(type) {
	case *term.Fun:
		arrow, ok := c.asArrow(expected)
		if !ok {
			got, err := c.Infer(t, mode)
			if err != nil {
				return err
			}
			return wrap(t, c.unify(expected, got, t.Span(), mode))
		}
		undo := c.bind(x.Param, arrow.dom)
		defer undo()
		return c.Check(x.Body, arrow.cod, mode)
	case *term.Let:
		boundTy, err := c.Infer(x.Bound, mode)
		if err != nil {
			return err
		}
		undo := c.bind(x.Name, boundTy)
		defer undo()
		return c.Check(x.Body, expected, mode)
	case *term.Promise:
		if err := c.Check(x.Inner, c.typeToWrapper(*x.Type), Strict); err != nil {
			return err
		}
		return wrap(t, c.unify(expected, c.typeToWrapper(*x.Type), t.Span(), mode))
	case *term.Assume:
		if _, err := c.Infer(x.Inner, Permissive); err != nil {
			return err
		}
		return wrap(t, c.unify(expected, c.typeToWrapper(*x.Type), t.Span(), mode))
	default:
		got, err := c.Infer(t, mode)
		if err != nil {
			return err
		}
		return wrap(t, c.unify(expected, got, t.Span(), mode))
	}
}

// Infer synthesizes a Wrapper for t under mode.
func (c *Checker) Infer(t term.Term, mode Mode) (Wrapper, error) {
	switch x := t.(type) {
	case *term.Null:
		return Concrete{Type: term.Dyn{}}, nil
	case *term.Bool:
		return Concrete{Type: term.BoolT{}}, nil
	case *term.Num:
		return Concrete{Type: term.NumT{}}, nil
	case *term.Str:
		return Concrete{Type: term.StrT{}}, nil
	case *term.StrChunks:
		for _, ch := range x.Chunks {
			if e, ok := ch.(term.Expr); ok {
				if _, err := c.Infer(e.Term, mode); err != nil {
					return nil, err
				}
			}
		}
		return Concrete{Type: term.StrT{}}, nil
	case *term.Enum:
		// A bare tag infers the smallest enum type containing it; this
		// is not row-polymorphic (term.Type has no metavariable node to
		// put in Tail) so it only unifies against an expected row whose
		// tail eventually closes with RowEmpty or is itself this tag.
		// Annotated enum types keep full row polymorphism via VarT tails
		// written in source.
		var fieldTy term.Type
		if x.Payload != nil {
			pw, err := c.Infer(x.Payload, mode)
			if err != nil {
				return nil, err
			}
			fieldTy = wrapperType(c.Table.Resolve(pw))
		}
		return Concrete{Type: term.EnumT{Row: term.RowExtend{Label: x.Tag, FieldType: fieldTy, Tail: term.RowEmpty{}}}}, nil
	case *term.Var:
		w, ok := c.gamma[x.Name]
		if !ok {
			return nil, wrap(t, fmt.Errorf("unbound identifier %q", x.Name))
		}
		// A polymorphic binding is instantiated fresh at every use site,
		// so two uses of the same forall-typed identifier never leak
		// unification decisions into each other.
		if cw, isConcrete := w.(Concrete); isConcrete {
			if _, isForall := cw.Type.(term.ForallT); isForall {
				return Concrete{Type: c.instantiate(cw.Type)}, nil
			}
		}
		return w, nil
	case *term.Fun:
		domTy := Wrapper(c.Table.NewVar())
		undo := c.bind(x.Param, domTy)
		defer undo()
		codTy, err := c.Infer(x.Body, mode)
		if err != nil {
			return nil, err
		}
		return c.arrowWrapper(domTy, codTy), nil
	case *term.App:
		funTy, err := c.Infer(x.Fun, mode)
		if err != nil {
			return nil, err
		}
		arrow, ok := c.asArrow(funTy)
		if !ok {
			return nil, wrap(t, fmt.Errorf("applying a non-function type"))
		}
		if err := c.Check(x.Arg, arrow.dom, mode); err != nil {
			return nil, err
		}
		return arrow.cod, nil
	case *term.Let:
		boundTy, err := c.Infer(x.Bound, mode)
		if err != nil {
			return nil, err
		}
		undo := c.bind(x.Name, boundTy)
		defer undo()
		return c.Infer(x.Body, mode)
	case *term.Record:
		return c.inferRecord(x.Fields, mode)
	case *term.RecRecord:
		placeholders := make(map[term.Ident]Wrapper, len(x.Fields))
		for name := range x.Fields {
			placeholders[name] = c.Table.NewVar()
		}
		var undos []func()
		for name, w := range placeholders {
			undos = append(undos, c.bind(name, w))
		}
		defer func() {
			for _, u := range undos {
				u()
			}
		}()
		for name, fv := range x.Fields {
			got, err := c.Infer(fv, mode)
			if err != nil {
				return nil, err
			}
			if err := c.unify(placeholders[name], got, fv.Span(), mode); err != nil {
				return nil, wrap(t, err)
			}
		}
		return c.inferRecordFromWrappers(placeholders), nil
	case *term.List:
		for _, el := range x.Elems {
			if _, err := c.Infer(el, mode); err != nil {
				return nil, err
			}
		}
		return Concrete{Type: term.ListT{}}, nil
	case *term.Lbl:
		return Concrete{Type: term.SymT{}}, nil
	case *term.Sym:
		return Concrete{Type: term.SymT{}}, nil
	case *term.Promise:
		if err := c.Check(x.Inner, c.typeToWrapper(*x.Type), Strict); err != nil {
			return nil, err
		}
		return c.typeToWrapper(*x.Type), nil
	case *term.Assume:
		if _, err := c.Infer(x.Inner, Permissive); err != nil {
			return nil, err
		}
		return c.typeToWrapper(*x.Type), nil
	case *term.Contract:
		return Concrete{Type: *x.Type}, nil
	case *term.DefaultValue:
		return c.Infer(x.Inner, mode)
	case *term.ContractWithDefault:
		if err := c.Check(x.Inner, c.typeToWrapper(*x.Type), mode); err != nil {
			return nil, err
		}
		return c.typeToWrapper(*x.Type), nil
	case *term.Docstring:
		return c.Infer(x.Inner, mode)
	case *term.Wrapped:
		return c.Infer(x.Inner, mode)
	case *term.Op1:
		return c.inferOp1(x, mode)
	case *term.Op2:
		return c.inferOp2(x, mode)
	case *term.ResolvedImport:
		return c.inferImport(x)
	default:
		// Import (unresolved) infers as Dyn: its contents aren't known
		// until the importer runs. See DESIGN.md.
		return Concrete{Type: term.Dyn{}}, nil
	}
}

// inferImport checks an imported file's term once, in a fresh local
// environment on top of the same table, caching the verdict by file
// id so diamond-shaped import graphs don't recheck shared files. An
// imported file always starts in permissive mode, the same way the
// top level does; only its own Promise annotations go strict.
func (c *Checker) inferImport(x *term.ResolvedImport) (Wrapper, error) {
	if c.Imports == nil {
		return Concrete{Type: term.Dyn{}}, nil
	}
	if err, done := c.importCache[x.FileID]; done {
		if err != nil {
			return nil, err
		}
		return Concrete{Type: term.Dyn{}}, nil
	}
	imported, err := c.Imports.Get(x.FileID)
	if err != nil {
		werr := wrap(x, err)
		c.importCache[x.FileID] = werr
		return nil, werr
	}
	saved := c.gamma
	c.gamma = map[term.Ident]Wrapper{}
	_, cerr := c.Infer(imported, Permissive)
	c.gamma = saved
	c.importCache[x.FileID] = cerr
	if cerr != nil {
		return nil, cerr
	}
	return Concrete{Type: term.Dyn{}}, nil
}

type arrowShape struct {
	dom, cod Wrapper
}

func (c *Checker) asArrow(w Wrapper) (arrowShape, bool) {
	r := c.Table.Resolve(w)
	switch x := r.(type) {
	case Concrete:
		if _, ok := x.Type.(term.Dyn); ok {
			// Gradual typing: a Dyn-typed value may be applied, and both
			// what it takes and what it returns stay Dyn.
			return arrowShape{dom: Concrete{Type: term.Dyn{}}, cod: Concrete{Type: term.Dyn{}}}, true
		}
		at, ok := x.Type.(term.ArrowT)
		if !ok {
			return arrowShape{}, false
		}
		return arrowShape{dom: Concrete{Type: at.Dom}, cod: Concrete{Type: at.Cod}}, true
	case arrowPlaceholder:
		return arrowShape{dom: x.dom, cod: x.cod}, true
	case Ptr:
		dom := c.Table.NewVar()
		cod := c.Table.NewVar()
		c.Table.Bind(x, arrowPlaceholder{dom: dom, cod: cod})
		return arrowShape{dom: dom, cod: cod}, true
	default:
		return arrowShape{}, false
	}
}

// arrowPlaceholder records that a metavariable was solved to "some
// arrow type with these (still unsolved) dom/cod metavariables",
// without yet knowing the concrete Dom/Cod. unify resolves it further
// once both sides of a comparison are known.
type arrowPlaceholder struct {
	wrapperBase
	dom, cod Wrapper
}

func (c *Checker) arrowWrapper(dom, cod Wrapper) Wrapper {
	domC, domOk := c.Table.Resolve(dom).(Concrete)
	codC, codOk := c.Table.Resolve(cod).(Concrete)
	if domOk && codOk {
		return Concrete{Type: term.ArrowT{Dom: domC.Type, Cod: codC.Type}}
	}
	return arrowPlaceholder{dom: dom, cod: cod}
}

func (c *Checker) inferRecord(fields map[term.Ident]term.Term, mode Mode) (Wrapper, error) {
	ws := make(map[term.Ident]Wrapper, len(fields))
	for name, fv := range fields {
		w, err := c.Infer(fv, mode)
		if err != nil {
			return nil, err
		}
		ws[name] = w
	}
	return c.inferRecordFromWrappers(ws), nil
}

func (c *Checker) inferRecordFromWrappers(ws map[term.Ident]Wrapper) Wrapper {
	var row term.Type = term.RowEmpty{}
	for name, w := range ws {
		rc, ok := c.Table.Resolve(w).(Concrete)
		ft := term.Type(term.Dyn{})
		if ok {
			ft = rc.Type
		}
		row = term.RowExtend{Label: name, FieldType: ft, Tail: row}
	}
	return Concrete{Type: term.StaticRecordT{Row: row}}
}

// typeToWrapper lifts a syntactic Type, as written in a Promise or
// Assume annotation, into the checker's Wrapper universe, instantiating
// every ForallT binder it passes under with a fresh name so two
// separate instantiations of the same polymorphic type never
// accidentally unify with each other.
func (c *Checker) typeToWrapper(ty term.Type) Wrapper {
	return Concrete{Type: c.instantiate(ty)}
}

// instantiate strips leading ForallT binders, renaming each bound
// variable to a fresh name throughout the body. Each fresh name is
// rigid: VarT unifies only with an identically-named VarT, so two
// instantiations of the same polymorphic type can never collapse into
// each other, which is exactly the parametricity a skolem constant
// buys. Row constraints already recorded against the bound name carry
// over to the fresh one, so a forall whose row variable was constrained
// at one use site stays constrained at the next.
func (c *Checker) instantiate(ty term.Type) term.Type {
	f, ok := ty.(term.ForallT)
	if !ok {
		return ty
	}
	c.skolemSeq++
	fresh := term.Ident(fmt.Sprintf("%s$%d", f.Name, c.skolemSeq))
	for label := range c.rowForbid[f.Name] {
		c.forbid(fresh, label)
	}
	return c.instantiate(renameVar(f.Body, f.Name, fresh))
}
