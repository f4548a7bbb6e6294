package cmd

import (
	"context"
	"io"
)

// Gen prints the program source generated from a template.
type Gen struct {
	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the gen command.
func (g *Gen) Run(ctx context.Context) error {
	t, err := loadTemplate(ctx, g.Template)
	if err != nil {
		return err
	}

	_, err = io.WriteString(stdout(ctx), t.Source())

	return err
}
