package tmpl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrUnterminatedBlock  = NewError("unterminated block")
	ErrUnknownDirective   = NewError("unknown directive")
	ErrMalformedDirective = NewError("malformed directive")
	ErrEmptyExpression    = NewError("empty expression block")
	ErrReadInput          = NewError("failed to read input")
	ErrNoEvaluator        = NewError("no evaluator configured")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
// Errors created by [Error.Wrap] and [Error.With] share the sentinel's
// message, so a wrapped sentinel still matches with [errors.Is].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError reports malformed template markup. Pos is the location of the
// opening delimiter of the offending block.
type ParseError struct {
	Err       error
	Directive string // directive text, if the failure is in a directive
	Pos       Position
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "parse error at line %d, column %d (offset %d)",
		e.Pos.Line, e.Pos.Column, e.Pos.Offset)

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	if e.Directive != "" {
		fmt.Fprintf(&b, ": %q", e.Directive)
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("offset", e.Pos.Offset),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	}

	if e.Directive != "" {
		attrs = append(attrs, slog.String("directive", e.Directive))
	}

	if e.Err != nil {
		attrs = append(attrs, slog.Any("cause", e.Err))
	}

	return slog.GroupValue(attrs...)
}

// Diagnostic locates an evaluator failure in generated source.
type Diagnostic struct {
	Statement string `json:"statement" yaml:"statement"`
	Line      int    `json:"line"      yaml:"line"`
	Column    int    `json:"column"    yaml:"column"`
}

func (d Diagnostic) attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("line", d.Line),
		slog.Int("column", d.Column),
		slog.String("statement", d.Statement),
	}
}

func (d Diagnostic) format(kind string, err error) string {
	msg := kind
	if d.Line > 0 {
		msg += fmt.Sprintf(" at line %d, column %d", d.Line, d.Column)
	}

	if err != nil {
		msg += ": " + err.Error()
	}

	return msg
}

// CompileError reports generated source the evaluator could not accept.
type CompileError struct {
	Err error
	Diagnostic
}

// Error implements the error interface.
func (e *CompileError) Error() string { return e.format("compile error", e.Err) }

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CompileError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *CompileError) LogValue() slog.Value {
	return slog.GroupValue(append(e.attrs(), slog.Any("cause", e.Err))...)
}

// RuntimeError reports a failure raised while the generated program ran.
type RuntimeError struct {
	Err error
	Diagnostic
}

// Error implements the error interface.
func (e *RuntimeError) Error() string { return e.format("runtime error", e.Err) }

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RuntimeError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *RuntimeError) LogValue() slog.Value {
	return slog.GroupValue(append(e.attrs(), slog.Any("cause", e.Err))...)
}
