package script

import (
	"errors"

	"github.com/ardnew/ttc/tmpl"
)

// Predefined errors (sentinel values).
var (
	ErrSyntax             = tmpl.NewError("syntax error")
	ErrUnterminatedString = tmpl.NewError("unterminated string literal")
	ErrUnexpectedStmt     = tmpl.NewError("unexpected statement")
	ErrOutsideBody        = tmpl.NewError("statement outside body")
	ErrUnclosedBlock      = tmpl.NewError("block not closed with end")
	ErrExprCompile        = tmpl.NewError("expression compilation failed")
	ErrExprEvaluate       = tmpl.NewError("expression evaluation failed")
	ErrParamCountMismatch = tmpl.NewError("parameter count mismatch")
	ErrMaxDepthExceeded   = tmpl.NewError("maximum call depth exceeded")
	ErrNotBoolean         = tmpl.NewError("condition is not a boolean")
	ErrNotIterable        = tmpl.NewError("value is not iterable")
	ErrUnknownModule      = tmpl.NewError("unknown module")
	ErrReferenceNotFound  = tmpl.NewError("reference not found")
	ErrReferenceRead      = tmpl.NewError("failed to read reference")
	ErrReferenceCycle     = tmpl.NewError("reference cycle")
	ErrReferenceBody      = tmpl.NewError("reference library has a body")
	ErrCanceled           = tmpl.NewError("evaluation canceled")
)

func compileError(st stmt, err error) error {
	return &tmpl.CompileError{Err: err, Diagnostic: st.diagnostic()}
}

func runtimeError(st stmt, err error) error {
	return &tmpl.RuntimeError{Err: err, Diagnostic: st.diagnostic()}
}

// propagate returns the innermost compile or runtime error carried by err,
// which is raised from nested helper calls, or wraps err with wrap and the
// location of st.
func propagate(st stmt, err error, wrap *tmpl.Error) error {
	var (
		ce *tmpl.CompileError
		re *tmpl.RuntimeError
	)

	if errors.As(err, &ce) {
		return ce
	}

	if errors.As(err, &re) {
		return re
	}

	return runtimeError(st, wrap.Wrap(err))
}

// located reports whether err already carries a statement location.
func located(err error) bool {
	var (
		ce *tmpl.CompileError
		re *tmpl.RuntimeError
	)

	return errors.As(err, &ce) || errors.As(err, &re)
}
