package tmpl

//go:generate go tool stringer --linecomment --type SegmentKind --output scan_string.go

import (
	"strings"
	"unicode/utf8"
)

// Markup delimiters.
const (
	openDelim  = "<#"
	closeDelim = "#>"

	directiveMark    = '@'
	expressionMark   = '='
	classFeatureMark = '+'
)

// SegmentKind classifies a raw [Segment] produced by [Scan].
type SegmentKind int

const (
	SegmentText         SegmentKind = iota // text
	SegmentDirective                       // directive
	SegmentStandard                        // standard
	SegmentExpression                      // expression
	SegmentClassFeature                    // class-feature
)

// Segment is one contiguous unit of template source.
//
// Text segments carry their content in Lines. All other segments carry the
// interior between the opening marker and the closing delimiter in Body.
type Segment struct {
	Body  string
	Lines []string
	Span  Span
	Kind  SegmentKind
}

// Scan splits src into segments.
//
// The spans of the returned segments are contiguous and together cover all
// of src. An opening delimiter with no matching close is reported as a
// [*ParseError] positioned at the opening delimiter.
func Scan(src string) ([]Segment, error) {
	s := scanner{src: src, line: 1, col: 1}

	return s.scan()
}

type scanner struct {
	src  string
	segs []Segment

	pos  int
	line int
	col  int

	// pending text run
	textStart Position
	lineStart int
	lines     []string
}

func (s *scanner) position() Position {
	return Position{Offset: s.pos, Line: s.line, Column: s.col}
}

// advance moves forward n bytes, maintaining line and column.
// Columns count runes, not bytes.
func (s *scanner) advance(n int) {
	for ; n > 0 && s.pos < len(s.src); n-- {
		switch ch := s.src[s.pos]; {
		case ch == '\n':
			s.line++
			s.col = 1
		case utf8.RuneStart(ch):
			s.col++
		}

		s.pos++
	}
}

func (s *scanner) scan() ([]Segment, error) {
	s.beginText()

	for s.pos < len(s.src) {
		if strings.HasPrefix(s.src[s.pos:], openDelim) {
			s.flushText()

			if err := s.scanBlock(); err != nil {
				return nil, err
			}

			s.beginText()

			continue
		}

		// Skip ahead to the next byte of interest.
		next := strings.IndexAny(s.src[s.pos:], "\n<")
		if next < 0 {
			s.advance(len(s.src) - s.pos)

			break
		}

		if next > 0 {
			s.advance(next)

			continue
		}

		s.advance(1)

		if s.src[s.pos-1] == '\n' {
			s.lines = append(s.lines, s.src[s.lineStart:s.pos])
			s.lineStart = s.pos
		}
	}

	s.flushText()

	return s.segs, nil
}

func (s *scanner) beginText() {
	s.textStart = s.position()
	s.lineStart = s.pos
	s.lines = nil
}

// flushText emits the pending text run, including a final line that has no
// terminator.
func (s *scanner) flushText() {
	if s.lineStart < s.pos {
		s.lines = append(s.lines, s.src[s.lineStart:s.pos])
		s.lineStart = s.pos
	}

	if len(s.lines) == 0 {
		return
	}

	s.segs = append(s.segs, Segment{
		Kind:  SegmentText,
		Lines: s.lines,
		Span:  Span{Start: s.textStart, End: s.pos},
	})
	s.lines = nil
}

func (s *scanner) scanBlock() error {
	start := s.position()
	s.advance(len(openDelim))

	kind := SegmentStandard

	if s.pos < len(s.src) {
		switch s.src[s.pos] {
		case directiveMark:
			kind = SegmentDirective
		case expressionMark:
			kind = SegmentExpression
		case classFeatureMark:
			kind = SegmentClassFeature
		}

		if kind != SegmentStandard {
			s.advance(1)
		}
	}

	end := strings.Index(s.src[s.pos:], closeDelim)
	if end < 0 {
		return &ParseError{Pos: start, Err: ErrUnterminatedBlock}
	}

	body := s.src[s.pos : s.pos+end]
	s.advance(end + len(closeDelim))

	s.segs = append(s.segs, Segment{
		Kind: kind,
		Body: body,
		Span: Span{Start: start, End: s.pos},
	})

	return nil
}
