package term

// Type is a syntactic type as written by the user (or synthesized by
// the checker). It is the input/output of internal/core/typecheck; the
// checker wraps these in its own TypeWrapper (Concrete/Ptr/Constant) to
// add unification variables and rigid constants without polluting this
// package with inference machinery.
type Type interface {
	isType()
}

type typeBase struct{}

func (typeBase) isType() {}

// Dyn is the dynamic/untyped type: anything goes, no static guarantees.
type Dyn struct{ typeBase }

// NumT is the number type.
type NumT struct{ typeBase }

// BoolT is the boolean type.
type BoolT struct{ typeBase }

// StrT is the string type.
type StrT struct{ typeBase }

// SymT is the type of contract-seal symbols.
type SymT struct{ typeBase }

// ListT is the (monomorphic, element-type-erased at the syntax level)
// list type. Element types are expressed, when needed, via Flat
// contracts composed at the List call site; List carries no type
// parameter of its own.
type ListT struct{ typeBase }

// ArrowT is a function type.
type ArrowT struct {
	typeBase
	Dom, Cod Type
}

// VarT is a bound type variable (only meaningful under a Forall).
type VarT struct {
	typeBase
	Name Ident
}

// ForallT is a universally quantified type: `forall a. t`.
type ForallT struct {
	typeBase
	Name Ident
	Body Type
}

// FlatT is a custom contract: an arbitrary term used as a predicate.
type FlatT struct {
	typeBase
	Pred Term
}

// RowEmpty is the empty row, terminating a RowExtend chain.
type RowEmpty struct{ typeBase }

// RowExtend extends a row with one labeled entry. FieldType is nil for
// a payload-less enum tag (`Row(id, nil, tail)`); Optional marks a
// record field as allowed-absent.
type RowExtend struct {
	typeBase
	Label     Ident
	FieldType Type
	Optional  bool
	Tail      Type
}

// EnumT is an enum type: a row of tags, each with or without a payload.
type EnumT struct {
	typeBase
	Row Type
}

// StaticRecordT is a record type with a statically known field set (up
// to its row tail, which may itself be a row-polymorphic variable).
type StaticRecordT struct {
	typeBase
	Row Type
}

// DynRecordT is a record type where every field (however many, however
// named) must have FieldType — the `{ _ : T }` shape.
type DynRecordT struct {
	typeBase
	FieldType Type
}
