package repl

import "github.com/ardnew/ttc/tmpl"

// Sentinel errors.
var (
	ErrOutOfBounds   = tmpl.NewError("index out of range")
	ErrEditDeclined  = tmpl.NewError("decline edit")
	ErrUnknownCmd    = tmpl.NewError("unknown command")
	ErrMissingArg    = tmpl.NewError("missing argument")
	ErrNothingToShow = tmpl.NewError("no template rendered yet")
)
