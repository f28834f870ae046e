package quill

import (
	"errors"

	"github.com/quill-lang/quill/internal/core/evalerr"
	"github.com/quill-lang/quill/internal/core/typecheck"
)

// IsBlame reports whether err is (or wraps) a contract violation, the
// public counterpart of xerrors.Is(err, &evalerr.Error{Code:
// evalerr.CodeBlame}).
func IsBlame(err error) bool {
	return errors.Is(err, &evalerr.Error{Code: evalerr.CodeBlame})
}

// IsTypeError reports whether err is (or wraps) a run-time primitive
// type mismatch raised by internal/core/operation.
func IsTypeError(err error) bool {
	return errors.Is(err, &evalerr.Error{Code: evalerr.CodeTypeError})
}

// IsCheckError reports whether err originated from Context.Check
// rather than from evaluation.
func IsCheckError(err error) bool {
	var te *typecheck.TypecheckError
	return errors.As(err, &te)
}
