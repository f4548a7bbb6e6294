package cmd

import (
	"context"
	"log/slog"
)

// Parse prints the block model of a template.
type Parse struct {
	Format string `default:"tree" enum:"tree,json,yaml" help:"Output format (${enum})." short:"F"`
	Indent int    `default:"2"                          help:"Indent width."            short:"i"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) error {
	t, err := loadTemplate(ctx, p.Template)
	if err != nil {
		return err
	}

	w := stdout(ctx)

	switch p.Format {
	case "tree":
		return t.Print(ctx, w, p.Indent)
	case "json":
		return t.FormatJSON(ctx, w, p.Indent)
	case "yaml":
		return t.FormatYAML(ctx, w, p.Indent)
	default:
		return ErrUnknownFormat.With(slog.String("format", p.Format))
	}
}
