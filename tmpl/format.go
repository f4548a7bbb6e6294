package tmpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// MarshalJSON implements json.Marshaler for Template.
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToMap())
}

// ToMap converts the template to a native Go map structure.
func (t *Template) ToMap() map[string]any {
	blocks := make([]any, len(t.blocks))
	for i, b := range t.blocks {
		blocks[i] = BlockMap(b)
	}

	result := map[string]any{
		"blocks": blocks,
		"hash":   strconv.FormatUint(t.hash, 16),
	}

	if ext := t.OutputExtension(); ext != "" {
		result["output"] = ext
	}

	return result
}

// BlockMap converts a block to a native Go map structure.
func BlockMap(b Block) map[string]any {
	span := b.Span()

	m := map[string]any{
		"kind": b.Kind().String(),
		"span": map[string]any{
			"offset": span.Start.Offset,
			"line":   span.Start.Line,
			"column": span.Start.Column,
			"length": span.Len(),
		},
	}

	switch b := b.(type) {
	case TextBlock:
		lines := make([]any, len(b.Lines))
		for i, l := range b.Lines {
			lines[i] = l
		}

		m["lines"] = lines

	case AssemblyDirective:
		m["reference"] = b.Reference

	case ImportDirective:
		m["namespace"] = b.Namespace

	case OutputDirective:
		m["extension"] = b.Extension

	case StandardControlBlock:
		m["content"] = b.Content

	case ExpressionControlBlock:
		m["content"] = b.Content

	case ClassFeatureControlBlock:
		m["content"] = b.Content
	}

	return m
}

// FormatJSON writes the block model as JSON to the writer.
func (t *Template) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(t, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(t)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the block model as YAML to the writer.
func (t *Template) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, t.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// Print writes an indented outline of the block model to the writer, one
// block per line followed by its quoted content.
func (t *Template) Print(_ context.Context, w io.Writer, indent int) error {
	pad := strings.Repeat(" ", max(indent, 1))

	for _, b := range t.blocks {
		span := b.Span()

		_, err := fmt.Fprintf(w, "%s %s [%d,%d)\n",
			b.Kind(), span.Start, span.Start.Offset, span.End)
		if err != nil {
			return err
		}

		for _, line := range blockContent(b) {
			if _, err := fmt.Fprintln(w, pad+strconv.Quote(line)); err != nil {
				return err
			}
		}
	}

	return nil
}

func blockContent(b Block) []string {
	switch b := b.(type) {
	case TextBlock:
		return b.Lines
	case AssemblyDirective:
		return []string{b.Reference}
	case ImportDirective:
		return []string{b.Namespace}
	case OutputDirective:
		return []string{b.Extension}
	case StandardControlBlock:
		return []string{b.Content}
	case ExpressionControlBlock:
		return []string{b.Content}
	case ClassFeatureControlBlock:
		return []string{b.Content}
	default:
		return nil
	}
}
