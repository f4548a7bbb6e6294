package params

import "github.com/ardnew/ttc/tmpl"

var (
	ErrMalformed   = tmpl.NewError("malformed parameter")
	ErrConflict    = tmpl.NewError("conflicting parameter")
	ErrUnsupported = tmpl.NewError("unsupported parameter file")
	ErrDecode      = tmpl.NewError("failed to decode parameter file")
)
