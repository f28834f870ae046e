// Package evalerr defines the evaluation error domain. It
// is split out from eval so that internal/core/operation and
// internal/core/merge — which both need to raise these errors — do not
// need to import the evaluator itself, avoiding an import cycle (the
// evaluator dispatches into both of them).
package evalerr

import (
	"fmt"

	"github.com/quill-lang/quill/internal/core/term"
	"golang.org/x/xerrors"
)

// Code identifies which of the closed set of evaluation error kinds an
// Error carries, so callers can dispatch on it (xerrors.As-style)
// without string-matching Error's message.
type Code int

const (
	CodeBlame Code = iota
	CodeTypeError
	CodeNotEnoughArgs
	CodeFieldMissing
	CodeUnboundIdentifier
	CodeInfiniteRecursion
	CodeOther
)

func (c Code) String() string {
	switch c {
	case CodeBlame:
		return "BlameError"
	case CodeTypeError:
		return "TypeError"
	case CodeNotEnoughArgs:
		return "NotEnoughArgs"
	case CodeFieldMissing:
		return "FieldMissing"
	case CodeUnboundIdentifier:
		return "UnboundIdentifier"
	case CodeInfiniteRecursion:
		return "InfiniteRecursion"
	default:
		return "Other"
	}
}

// Error is the evaluator's single error type, closed over the Code
// enum. Structural context (which operator, which argument position,
// which record) is attached at the point of construction rather than
// accumulated by wrapping: each kind is a flat record of fields, not a
// climbing chain (contrast
// TypecheckError in internal/core/typecheck, which does climb).
type Error struct {
	Code Code
	Pos  *term.Span

	// Fields populated depending on Code; zero value otherwise.
	Label         *term.Label // Blame
	ExpectedType  string      // TypeError
	OpName        string      // TypeError, NotEnoughArgs, FieldMissing
	ArgPos        int         // TypeError
	Offending     interface{} // TypeError: the offending value/term
	ExpectedArity int         // NotEnoughArgs
	FieldName     term.Ident  // FieldMissing
	Record        interface{} // FieldMissing: the record value involved
	Ident         term.Ident  // UnboundIdentifier
	Message       string      // Other

	wrapped error
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeBlame:
		return fmt.Sprintf("blame error: contract %q violated at %s", e.Label.Tag, e.Pos)
	case CodeTypeError:
		return fmt.Sprintf("type error: %s expected %s for argument %d, got %v",
			e.OpName, e.ExpectedType, e.ArgPos, e.Offending)
	case CodeNotEnoughArgs:
		return fmt.Sprintf("%s requires %d argument(s)", e.OpName, e.ExpectedArity)
	case CodeFieldMissing:
		return fmt.Sprintf("field %q missing for %s", e.FieldName, e.OpName)
	case CodeUnboundIdentifier:
		return fmt.Sprintf("unbound identifier %q at %s", e.Ident, e.Pos)
	case CodeInfiniteRecursion:
		return fmt.Sprintf("infinite recursion detected at %s", e.Pos)
	default:
		return e.Message
	}
}

// Unwrap lets xerrors.Is/xerrors.As climb past an Error that itself
// wraps a lower-level cause (merge conflicts wrap the conflicting
// sub-error, for instance).
func (e *Error) Unwrap() error { return e.wrapped }

// Is lets xerrors.Is(err, &evalerr.Error{Code: evalerr.CodeBlame}) match
// any Error of that Code regardless of its other fields.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func Blame(lbl *term.Label, pos *term.Span) *Error {
	return &Error{Code: CodeBlame, Label: lbl, Pos: pos}
}

func TypeMismatch(expected, opName string, argPos int, offending interface{}, pos *term.Span) *Error {
	return &Error{Code: CodeTypeError, ExpectedType: expected, OpName: opName, ArgPos: argPos, Offending: offending, Pos: pos}
}

func NotEnoughArgs(opName string, arity int, pos *term.Span) *Error {
	return &Error{Code: CodeNotEnoughArgs, OpName: opName, ExpectedArity: arity, Pos: pos}
}

func FieldMissing(field term.Ident, opName string, record interface{}, pos *term.Span) *Error {
	return &Error{Code: CodeFieldMissing, FieldName: field, OpName: opName, Record: record, Pos: pos}
}

func UnboundIdentifier(id term.Ident, pos *term.Span) *Error {
	return &Error{Code: CodeUnboundIdentifier, Ident: id, Pos: pos}
}

func InfiniteRecursion(pos *term.Span) *Error {
	return &Error{Code: CodeInfiniteRecursion, Pos: pos}
}

func Other(msg string, pos *term.Span) *Error {
	return &Error{Code: CodeOther, Message: msg, Pos: pos}
}

// Wrap attaches a lower-level cause to an Other error:
// golang.org/x/xerrors provides the actual
// %w-compatible wrapping so xerrors.Is/As still sees through to cause.
func Wrap(msg string, cause error, pos *term.Span) *Error {
	return &Error{Code: CodeOther, Message: fmt.Sprintf("%s: %v", msg, cause), Pos: pos, wrapped: xerrors.Errorf("%s: %w", msg, cause)}
}
