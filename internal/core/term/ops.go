package term

// UnaryOp is a strict unary primitive operation (§4.3). Operations that
// carry their own payload (a tag, a map of cases, a nested function…)
// are distinct Go types rather than a bare enum constant plus a side
// table, the same closed-interface-of-structs shape the rest of this
// package uses for Term and Type.
type UnaryOp interface {
	isUnaryOp()
	// Name is the operator's debug/display name, used in TypeError
	// messages (§7) and by the operator-typing table (§4.5).
	Name() string
}

type unaryBase struct{}

func (unaryBase) isUnaryOp() {}

// Ite is `if`; it additionally pops two stack Arg frames for the
// then/else branches (§4.3).
type Ite struct{ unaryBase }

func (Ite) Name() string { return "if" }

// IsZero tests a Num for equality with 0.0.
type IsZero struct{ unaryBase }

func (IsZero) Name() string { return "is_zero" }

// IsNum, IsBool, IsStr, IsFun, IsList, IsRecord are type predicates
// that never fail.
type IsNum struct{ unaryBase }

func (IsNum) Name() string { return "is_num" }

type IsBool struct{ unaryBase }

func (IsBool) Name() string { return "is_bool" }

type IsStr struct{ unaryBase }

func (IsStr) Name() string { return "is_str" }

type IsFun struct{ unaryBase }

func (IsFun) Name() string { return "is_fun" }

type IsList struct{ unaryBase }

func (IsList) Name() string { return "is_list" }

type IsRecord struct{ unaryBase }

func (IsRecord) Name() string { return "is_record" }

// Blame fails with a BlameError carrying the operand's Label.
type Blame struct{ unaryBase }

func (Blame) Name() string { return "blame" }

// Embed injects an enum value into a wider row; it is the identity at
// run time and exists mainly as a typing hint (§4.5).
type Embed struct {
	unaryBase
	Tag Ident
}

func (Embed) Name() string { return "embed" }

// Switch dispatches on an Enum's tag.
type Switch struct {
	unaryBase
	Cases   map[Ident]Term
	Default Term // nil if there is no default branch
}

func (Switch) Name() string { return "switch" }

// ChangePolarity, GoDom, GoCodom, TagOp, Pol mutate a copy of a Label.
type ChangePolarity struct{ unaryBase }

func (ChangePolarity) Name() string { return "chng_pol" }

type GoDom struct{ unaryBase }

func (GoDom) Name() string { return "go_dom" }

type GoCodom struct{ unaryBase }

func (GoCodom) Name() string { return "go_codom" }

type TagOp struct {
	unaryBase
	Tag string
}

func (TagOp) Name() string { return "tag" }

type Pol struct{ unaryBase }

func (Pol) Name() string { return "polarity" }

// Wrap returns `fun x => Wrapped(s, x)` for the given Sym s.
type Wrap struct{ unaryBase }

func (Wrap) Name() string { return "wrap" }

// StaticAccess looks up a fixed field name on a Record.
type StaticAccess struct {
	unaryBase
	Field Ident
}

func (StaticAccess) Name() string { return "static_access" }

// FieldsOf returns the sorted list of a Record's field names.
type FieldsOf struct{ unaryBase }

func (FieldsOf) Name() string { return "fields_of" }

// MapRec maps Fun over every (key, value) pair of a Record.
type MapRec struct {
	unaryBase
	Fun Term
}

func (MapRec) Name() string { return "map_rec" }

// Seq forces its operand to WHNF and then pops one stack Arg frame,
// returning that argument.
type Seq struct{ unaryBase }

func (Seq) Name() string { return "seq" }

// DeepSeq forces its operand to a fully-deep value.
type DeepSeq struct{ unaryBase }

func (DeepSeq) Name() string { return "deep_seq" }

// ListHead, ListTail, ListLength operate on List values.
type ListHead struct{ unaryBase }

func (ListHead) Name() string { return "head" }

type ListTail struct{ unaryBase }

func (ListTail) Name() string { return "tail" }

type ListLength struct{ unaryBase }

func (ListLength) Name() string { return "length" }

// Trace writes its Str operand to the machine's trace sink, then pops
// one stack Arg frame and returns that argument, like Seq: the term
// shape is App(Op1(Trace, msg), value), and the whole application
// reduces to value once msg has been rendered.
type Trace struct{ unaryBase }

func (Trace) Name() string { return "trace" }

// ChunksConcat is the evaluator-internal operator that drives
// StrChunks reduction (§4.2): Acc is the text accumulated so far, Tail
// is the remaining chunks still to be rendered. It is never produced by
// a front-end parser; the evaluator synthesizes it.
type ChunksConcat struct {
	unaryBase
	Acc  string
	Tail []Chunk
}

func (ChunksConcat) Name() string { return "chunks_concat" }

// BinaryOp is a strict binary primitive operation (§4.3).
type BinaryOp interface {
	isBinaryOp()
	Name() string
}

type binaryBase struct{}

func (binaryBase) isBinaryOp() {}

type Plus struct{ binaryBase }

func (Plus) Name() string { return "+" }

type PlusStr struct{ binaryBase }

func (PlusStr) Name() string { return "++" }

// Unwrap checks a Sym against a Wrapped value.
type Unwrap struct{ binaryBase }

func (Unwrap) Name() string { return "unwrap" }

type EqBool struct{ binaryBase }

func (EqBool) Name() string { return "==" }

type DynAccess struct{ binaryBase }

func (DynAccess) Name() string { return "dyn_access" }

type DynExtend struct {
	binaryBase
	Value Term
}

func (DynExtend) Name() string { return "dyn_extend" }

type DynRemove struct{ binaryBase }

func (DynRemove) Name() string { return "dyn_remove" }

type HasField struct{ binaryBase }

func (HasField) Name() string { return "has_field" }

type ListConcat struct{ binaryBase }

func (ListConcat) Name() string { return "list_concat" }

type ListMap struct{ binaryBase }

func (ListMap) Name() string { return "list_map" }

type ListElemAt struct{ binaryBase }

func (ListElemAt) Name() string { return "elem_at" }

type Merge struct{ binaryBase }

func (Merge) Name() string { return "&" }
