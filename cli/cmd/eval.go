package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/params"
	"github.com/ardnew/ttc/script"
	"github.com/ardnew/ttc/tmpl"
)

// evalFlags are the evaluation settings shared by render and repl.
type evalFlags struct {
	Define  []string `help:"Bind a template parameter."                          placeholder:"KEY=VALUE" short:"D"`
	Params  []string `help:"Load parameters from a YAML, JSON or HCL file."      placeholder:"FILE"      short:"p" type:"existingfile"`
	Strict  bool     `help:"Fail on unknown imports and unresolved references."`
	BaseDir string   `help:"Directory for resolving assembly references."        placeholder:"DIR"                 type:"path"`
}

// bindings loads the parameter files in order and then applies the
// command-line definitions, so definitions win.
func (f *evalFlags) bindings(ctx context.Context) (tmpl.Params, error) {
	p := tmpl.Params{}

	for _, path := range uniqueFiles(f.Params) {
		loaded, err := params.Load(path)
		if err != nil {
			return nil, err
		}

		log.TraceContext(ctx, "loaded parameters",
			slog.String("path", path),
			slog.Int("count", len(loaded)),
		)

		params.Merge(p, loaded)
	}

	defined, err := params.Parse(f.Define)
	if err != nil {
		return nil, err
	}

	return params.Merge(p, defined), nil
}

// evaluator builds the script evaluator. References resolve against
// --base-dir, or else the directory containing templatePath.
func (f *evalFlags) evaluator(templatePath string) *script.Evaluator {
	base := f.BaseDir
	if base == "" && templatePath != "" && templatePath != stdinSource {
		base = filepath.Dir(templatePath)
	}

	return script.New(
		script.WithLogger(log.Default()),
		script.WithStrict(f.Strict),
		script.WithBaseDir(base),
	)
}
