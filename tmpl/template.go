package tmpl

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/ttc/log"
)

// Params is the named-value binding a template is rendered against.
type Params map[string]any

// Evaluator compiles and runs generated program source.
//
// Evaluate blocks until the program completes and returns its captured
// output. Failures are reported as [*CompileError] or [*RuntimeError].
type Evaluator interface {
	Evaluate(ctx context.Context, source string, params Params) (string, error)
}

// EvaluatorFunc adapts an ordinary function to the [Evaluator] interface.
type EvaluatorFunc func(ctx context.Context, source string, params Params) (string, error)

// Evaluate calls f(ctx, source, params).
func (f EvaluatorFunc) Evaluate(
	ctx context.Context,
	source string,
	params Params,
) (string, error) {
	return f(ctx, source, params)
}

// Template is a parsed template and the program source generated from it.
// A Template is immutable and safe for concurrent use if its [Evaluator] is.
type Template struct {
	blocks    []Block
	source    string
	hash      uint64
	evaluator Evaluator
	logger    log.Logger
}

// Option configures a [Template].
type Option func(*Template)

// WithEvaluator sets the evaluator used by [Template.Render].
func WithEvaluator(e Evaluator) Option {
	return func(t *Template) {
		t.evaluator = e
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(t *Template) {
		t.logger = logger
	}
}

func applyOptions(t *Template, opts ...Option) {
	for _, opt := range opts {
		opt(t)
	}
}

// Parse scans and classifies text into blocks and generates the program
// source for them.
//
// Empty text yields a template with no blocks whose rendered output is
// empty. Malformed markup is reported as a [*ParseError].
func Parse(ctx context.Context, text string, opts ...Option) (*Template, error) {
	t := new(Template)

	applyOptions(t, opts...)

	t.logger.TraceContext(
		ctx,
		"parse start",
		slog.Int("source_length", len(text)),
	)

	segs, err := Scan(text)
	if err != nil {
		t.logger.TraceContext(ctx, "scan failed", slog.Any("error", err))

		return nil, err
	}

	t.logger.TraceContext(ctx, "scan complete", slog.Int("segment_count", len(segs)))

	t.blocks, err = classify(segs)
	if err != nil {
		t.logger.TraceContext(ctx, "classify failed", slog.Any("error", err))

		return nil, err
	}

	t.source = Generate(t.blocks)
	t.hash = xxh3.HashString(t.source)

	t.logger.TraceContext(
		ctx,
		"parse complete",
		slog.Int("block_count", len(t.blocks)),
		slog.Int("generated_length", len(t.source)),
		slog.Uint64("hash", t.hash),
	)

	return t, nil
}

// ParseReader reads all of r and parses it with [Parse].
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Template, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return Parse(ctx, string(data), opts...)
}

// classify converts scanned segments into blocks.
func classify(segs []Segment) ([]Block, error) {
	blocks := make([]Block, 0, len(segs))

	for _, seg := range segs {
		switch seg.Kind {
		case SegmentText:
			blocks = append(blocks, TextBlock{Lines: seg.Lines, Pos: seg.Span})

		case SegmentDirective:
			b, err := parseDirective(seg.Body, seg.Span)
			if err != nil {
				return nil, &ParseError{
					Pos:       seg.Span.Start,
					Directive: strings.TrimSpace(seg.Body),
					Err:       err,
				}
			}

			blocks = append(blocks, b)

		case SegmentStandard:
			blocks = append(blocks, StandardControlBlock{Content: seg.Body, Pos: seg.Span})

		case SegmentExpression:
			if strings.TrimSpace(seg.Body) == "" {
				return nil, &ParseError{Pos: seg.Span.Start, Err: ErrEmptyExpression}
			}

			blocks = append(blocks, ExpressionControlBlock{Content: seg.Body, Pos: seg.Span})

		case SegmentClassFeature:
			blocks = append(blocks, ClassFeatureControlBlock{Content: seg.Body, Pos: seg.Span})
		}
	}

	return blocks, nil
}

// Render evaluates the generated program against params and returns the
// rendered text. Nothing is cached between calls.
//
// Evaluator failures are returned unchanged.
func (t *Template) Render(ctx context.Context, params Params) (string, error) {
	if t.evaluator == nil {
		return "", ErrNoEvaluator
	}

	t.logger.TraceContext(
		ctx,
		"render start",
		slog.Uint64("hash", t.hash),
		slog.Int("param_count", len(params)),
	)

	out, err := t.evaluator.Evaluate(ctx, t.source, params)
	if err != nil {
		t.logger.TraceContext(
			ctx,
			"render failed",
			slog.Uint64("hash", t.hash),
			slog.Any("error", err),
		)

		return "", err
	}

	t.logger.TraceContext(
		ctx,
		"render complete",
		slog.Uint64("hash", t.hash),
		slog.Int("output_length", len(out)),
	)

	return out, nil
}

// Blocks returns a copy of the template's blocks in source order.
func (t *Template) Blocks() []Block {
	return append([]Block(nil), t.blocks...)
}

// Source returns the generated program source.
func (t *Template) Source() string { return t.source }

// Hash returns a fingerprint of the generated program source.
func (t *Template) Hash() uint64 { return t.hash }

// Directives returns the directive blocks in source order.
func (t *Template) Directives() []Block {
	var dirs []Block

	for _, b := range t.blocks {
		if IsDirective(b) {
			dirs = append(dirs, b)
		}
	}

	return dirs
}

// OutputExtension returns the extension declared by the last output
// directive, or "" if there is none.
func (t *Template) OutputExtension() string {
	var ext string

	for _, b := range t.blocks {
		if o, ok := b.(OutputDirective); ok {
			ext = o.Extension
		}
	}

	return ext
}
