package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/tmpl"
)

// defaultExtension is used by --write when the template has no output
// directive.
const defaultExtension = ".txt"

// Render renders a template to standard output or, with --write, to a file
// beside it.
type Render struct {
	Eval evalFlags `embed:""`

	Write bool `help:"Write output beside the template using its output extension." short:"w"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if r.Write && r.Template == stdinSource {
		return ErrWriteStdin
	}

	p, err := r.Eval.bindings(ctx)
	if err != nil {
		return err
	}

	t, err := loadTemplate(ctx, r.Template, tmpl.WithEvaluator(r.Eval.evaluator(r.Template)))
	if err != nil {
		return err
	}

	out, err := t.Render(ctx, p)
	if err != nil {
		return err
	}

	if !r.Write {
		_, err = io.WriteString(stdout(ctx), out)

		return err
	}

	path := outputPath(r.Template, t.OutputExtension())

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil { //nolint:gosec
		return ErrWriteOutput.Wrap(err).With(slog.String("path", path))
	}

	log.DebugContext(ctx, "wrote output",
		slog.String("template", r.Template),
		slog.String("path", path),
		slog.Int("bytes", len(out)),
	)

	return nil
}

// outputPath replaces the extension of templatePath with ext, or with
// [defaultExtension] when ext is empty.
func outputPath(templatePath, ext string) string {
	ext = strings.TrimSpace(ext)

	switch {
	case ext == "":
		ext = defaultExtension
	case !strings.HasPrefix(ext, "."):
		ext = "." + ext
	}

	base := strings.TrimSuffix(templatePath, filepath.Ext(templatePath))
	if base+ext == templatePath {
		return templatePath + ext
	}

	return base + ext
}
