package tmpl

//go:generate go tool stringer --linecomment --type Kind --output block_string.go

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a [Block].
type Kind int

const (
	KindText         Kind = iota // text
	KindAssembly                 // assembly
	KindImport                   // import
	KindOutput                   // output
	KindStandard                 // standard
	KindExpression               // expression
	KindClassFeature             // class-feature
)

// Position is a location in template source.
// Offset is a zero-based byte offset, Line and Column are one-based.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is the region of template source a block was produced from.
// End is the byte offset one past the last byte of the region.
type Span struct {
	Start Position `json:"start" yaml:"start"`
	End   int      `json:"end"   yaml:"end"`
}

// Len returns the number of source bytes covered by s.
func (s Span) Len() int { return s.End - s.Start.Offset }

// Block is one unit of a parsed template.
//
// The set of implementations is closed: [TextBlock], [AssemblyDirective],
// [ImportDirective], [OutputDirective], [StandardControlBlock],
// [ExpressionControlBlock], and [ClassFeatureControlBlock].
type Block interface {
	Kind() Kind
	Span() Span

	block()
}

// TextBlock is literal template content.
// Every line retains its line terminator except possibly the last.
type TextBlock struct {
	Lines []string
	Pos   Span
}

// AssemblyDirective names an external library made available to the
// generated program.
type AssemblyDirective struct {
	Reference string
	Pos       Span
}

// ImportDirective brings a namespace into scope for the generated program.
type ImportDirective struct {
	Namespace string
	Pos       Span
}

// OutputDirective declares the extension of the rendered document.
// It carries metadata only and contributes nothing to generated source.
type OutputDirective struct {
	Extension string
	Pos       Span
}

// StandardControlBlock is code inserted verbatim into the body.
type StandardControlBlock struct {
	Content string
	Pos     Span
}

// ExpressionControlBlock is an expression whose value is written to output.
type ExpressionControlBlock struct {
	Content string
	Pos     Span
}

// ClassFeatureControlBlock is a helper definition inserted verbatim.
type ClassFeatureControlBlock struct {
	Content string
	Pos     Span
}

func (TextBlock) Kind() Kind                { return KindText }
func (AssemblyDirective) Kind() Kind        { return KindAssembly }
func (ImportDirective) Kind() Kind          { return KindImport }
func (OutputDirective) Kind() Kind          { return KindOutput }
func (StandardControlBlock) Kind() Kind     { return KindStandard }
func (ExpressionControlBlock) Kind() Kind   { return KindExpression }
func (ClassFeatureControlBlock) Kind() Kind { return KindClassFeature }

func (b TextBlock) Span() Span                { return b.Pos }
func (b AssemblyDirective) Span() Span        { return b.Pos }
func (b ImportDirective) Span() Span          { return b.Pos }
func (b OutputDirective) Span() Span          { return b.Pos }
func (b StandardControlBlock) Span() Span     { return b.Pos }
func (b ExpressionControlBlock) Span() Span   { return b.Pos }
func (b ClassFeatureControlBlock) Span() Span { return b.Pos }

func (TextBlock) block()                {}
func (AssemblyDirective) block()        {}
func (ImportDirective) block()          {}
func (OutputDirective) block()          {}
func (StandardControlBlock) block()     {}
func (ExpressionControlBlock) block()   {}
func (ClassFeatureControlBlock) block() {}

// Text returns the concatenation of all lines.
func (b TextBlock) Text() string { return strings.Join(b.Lines, "") }

// IsDirective reports whether b is one of the directive variants.
func IsDirective(b Block) bool {
	switch b.(type) {
	case AssemblyDirective, ImportDirective, OutputDirective:
		return true
	default:
		return false
	}
}
