package cmd

import "github.com/ardnew/ttc/tmpl"

var (
	ErrYAMLMarshal   = tmpl.NewError("marshal YAML")
	ErrWriteConfig   = tmpl.NewError("write configuration file")
	ErrFileExists    = tmpl.NewError("file exists (use --force to overwrite)")
	ErrOpenTemplate  = tmpl.NewError("open template")
	ErrWriteOutput   = tmpl.NewError("write output")
	ErrWriteStdin    = tmpl.NewError("--write requires a template file, not stdin")
	ErrUnknownFormat = tmpl.NewError("unknown output format")
)
