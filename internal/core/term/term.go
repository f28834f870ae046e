// Package term defines the AST that the evaluator and type-checker both
// consume: the tagged variants of source expressions, contract labels,
// and syntactic types. Nothing in this package evaluates or type-checks
// anything; it only models the tree and the handful of tree-shape
// operations (substitution, closing over an environment, collecting free
// identifiers) that both downstream passes rely on.
package term

import "fmt"

// Ident is a source identifier. By convention (mirroring CUE's hidden
// fields) an identifier beginning with "_" is non-exported: deep
// evaluation for export prunes record fields bound to such names.
type Ident string

// Exported reports whether id should survive eval_deep_for_export.
func (id Ident) Exported() bool {
	return len(id) == 0 || id[0] != '_'
}

// Span is an optional source location, carried by every term for
// diagnostics. A nil *Span means "no known source position" (e.g. a
// term synthesized by the evaluator itself, such as a closurized thunk
// or an internal ChunksConcat continuation).
type Span struct {
	File       string
	Start, End int
}

func (s *Span) String() string {
	if s == nil {
		return "<generated>"
	}
	return fmt.Sprintf("%s:%d-%d", s.File, s.Start, s.End)
}

// Term is any node of the expression tree.
type Term interface {
	// Span returns this term's source location, or nil.
	Span() *Span
	// isTerm is unexported so Term is a closed tagged union: every
	// variant is declared in this package.
	isTerm()
}

// Base is embedded by every Term variant to supply Span() and the
// closed-union marker.
type Base struct {
	Sp *Span
}

func (b Base) Span() *Span { return b.Sp }
func (b Base) isTerm()     {}

// Null is the term `null`.
type Null struct{ Base }

// Bool is a boolean literal.
type Bool struct {
	Base
	Value bool
}

// Num is a numeric literal. Evaluated arithmetic stays in float64 per
// the term model; exactness for display/export happens at the boundary
// (see quill/value.go), not here.
type Num struct {
	Base
	Value float64
}

// Str is a string literal with no interpolation.
type Str struct {
	Base
	Value string
}

// Enum is an enum tag, e.g. `` `Foo ``, optionally carrying a payload
// expression, e.g. `` `Some 5 ``. Payload is nil for a bare tag.
type Enum struct {
	Base
	Tag     Ident
	Payload Term
}

// Fun is a single-argument lambda. Multi-argument functions are curried
// chains of Fun, matching the evaluator's one-Arg-frame-per-App design.
type Fun struct {
	Base
	Param Ident
	Body  Term
}

// Let is a non-recursive binding (see RecRecord for the recursive,
// mutually-referential case used by record literals).
type Let struct {
	Base
	Name  Ident
	Bound Term
	Body  Term
}

// App is function application.
type App struct {
	Base
	Fun Term
	Arg Term
}

// Var is a free or bound variable reference.
type Var struct {
	Base
	Name Ident
}

// Record is a non-recursive record literal: fields may not refer to
// each other. Whether that is enforced statically or left to surface as
// an UnboundIdentifier at evaluation time is an implementation choice;
// this implementation enforces it
// dynamically, by evaluating fields in the *outer* environment, so a
// self-reference simply resolves like any other free variable and fails
// the normal UnboundIdentifier path if there is no binding for it. See
// DESIGN.md.
type Record struct {
	Base
	Fields map[Ident]Term
}

// RecRecord is a recursive record literal: fields may refer to each
// other (and to themselves) because every field name is pre-bound in
// the environment used to evaluate every other field.
type RecRecord struct {
	Base
	Fields map[Ident]Term
}

// List is a list literal.
type List struct {
	Base
	Elems []Term
}

// Lbl embeds an already-constructed Label as a term (e.g. the label
// half of a Promise/Assume/Contract once it has been built by the
// compiler-side of the pipeline, which is out of scope here).
type Lbl struct {
	Base
	Label *Label
}

// Sym is a fresh nominal token, allocated by the evaluator's symbol
// counter. It is opaque: only identity comparison (Sym == Sym) is ever
// performed on it, to implement contract seals.
type Sym struct {
	Base
	ID uint64
}

// Wrapped is a contract seal: a value tagged with the Sym that sealed
// it, so that a matching Unwrap can later strip it back off.
type Wrapped struct {
	Base
	Sym   uint64
	Inner Term
}

// Chunk is one piece of a StrChunks interpolation: either literal text
// or a nested expression to be rendered and concatenated in.
type Chunk interface {
	isChunk()
}

// Literal is a literal text chunk.
type Literal struct{ Text string }

func (Literal) isChunk() {}

// Expr is a nested-expression chunk.
type Expr struct{ Term Term }

func (Expr) isChunk() {}

// StrChunks is a string with interpolated sub-expressions.
type StrChunks struct {
	Base
	Chunks []Chunk
}

// Op1 is a strict unary primitive operation applied to Arg.
type Op1 struct {
	Base
	Op  UnaryOp
	Arg Term
}

// Op2 is a strict binary primitive operation.
type Op2 struct {
	Base
	Op    BinaryOp
	Left  Term
	Right Term
}

// Promise enters strict type-checking mode for Inner against Type, and
// installs Label's contract as a run-time check around it.
type Promise struct {
	Base
	Type  *Type
	Label *Label
	Inner Term
}

// Assume asserts Type for Inner but checks Inner itself in permissive
// mode; only the run-time contract is enforced.
type Assume struct {
	Base
	Type  *Type
	Label *Label
	Inner Term
}

// Contract reduces to a label-carrying closed function implementing
// Type as a run-time predicate.
type Contract struct {
	Base
	Type  *Type
	Label *Label
}

// DefaultValue marks Inner as a mergeable default (see §4.4).
type DefaultValue struct {
	Base
	Inner Term
}

// ContractWithDefault combines Contract and DefaultValue: Inner is both
// contract-checked and overridable by merge.
type ContractWithDefault struct {
	Base
	Type  *Type
	Label *Label
	Inner Term
}

// Docstring attaches documentation text to Inner; erased to Inner at
// evaluation time.
type Docstring struct {
	Base
	Text  string
	Inner Term
}

// Import is an unresolved import by path; the resolver (see
// internal/importer) turns it into a ResolvedImport.
type Import struct {
	Base
	Path string
}

// ResolvedImport refers to an already-resolved file by id.
type ResolvedImport struct {
	Base
	FileID int
}

// BoundName returns the name bound by a Let or a Fun parameter, and
// false for every other term — used by generic tree walks that need "the identifier
// this node introduces", e.g. pretty-printers. It is a convenience
// helper, not part of the Term contract.
func BoundName(t Term) (Ident, bool) {
	switch x := t.(type) {
	case *Fun:
		return x.Param, true
	case *Let:
		return x.Name, true
	}
	return "", false
}
