package typecheck

import (
	"fmt"

	"github.com/quill-lang/quill/internal/core/term"
	"golang.org/x/xerrors"
)

// RowUnifError is the lowest tier of the checker's error hierarchy: a
// specific row mismatch discovered by unifyRows — a label missing from
// a closed row, an extra label a closed row cannot absorb, a row
// constraint collision, or a payload-kind mismatch between a bare enum
// tag and one carrying a type.
type RowUnifError struct {
	Label term.Ident
	Kind  string // "missing", "extra", "forbidden", "kind"
	Pos   *term.Span
}

func (e *RowUnifError) Error() string {
	return fmt.Sprintf("row error: %s field %q", e.Kind, e.Label)
}

// UnifError climbs one level: a plain type mismatch, or, when an arrow
// type's domain fails to unify, that failure (possibly a RowUnifError)
// wrapped with the two arrow types being compared.
type UnifError struct {
	Expected, Got term.Type
	Pos           *term.Span
	cause         error
}

func (e *UnifError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("cannot unify types at %s: %v", e.Pos, e.cause)
	}
	return fmt.Sprintf("cannot unify types at %s", e.Pos)
}

func (e *UnifError) Unwrap() error { return e.cause }

// TypecheckError is the top-level error the checker returns: a UnifError
// (or RowUnifError) in the context of the specific term being checked
// or inferred against an expected type.
type TypecheckError struct {
	Term term.Term
	Pos  *term.Span
	cause error
}

func (e *TypecheckError) Error() string {
	return fmt.Sprintf("type error at %s: %v", e.Pos, e.cause)
}

func (e *TypecheckError) Unwrap() error { return e.cause }

func rowErr(kind string, label term.Ident, pos *term.Span) error {
	return &RowUnifError{Label: label, Kind: kind, Pos: pos}
}

func unifyErr(expected, got term.Type, pos *term.Span, cause error) error {
	return &UnifError{Expected: expected, Got: got, Pos: pos, cause: cause}
}

func wrap(t term.Term, cause error) error {
	if cause == nil {
		return nil
	}
	return &TypecheckError{Term: t, Pos: t.Span(), cause: xerrors.Errorf("%w", cause)}
}
