package tmpl

import (
	"strings"
)

// Statements of the generated program.
const (
	stmtReference = "reference"
	stmtImport    = "import"
	stmtBegin     = "begin"
	stmtWrite     = "write"
	stmtReturn    = "return"
	stmtEnd       = "end"

	bodyIndent = "    "
)

// Generate renders blocks as program source.
//
// Directive statements are emitted once each, in source order, ahead of the
// body regardless of where the directives appeared in the template. The body
// writes each text line as a string literal, inserts standard and
// class-feature content verbatim, and writes the value of each expression.
// An expression containing "//" has its closing paren on the next line.
//
// Generate is a pure function of its input.
func Generate(blocks []Block) string {
	var head, body strings.Builder

	for _, b := range blocks {
		switch b := b.(type) {
		case AssemblyDirective:
			head.WriteString(stmtReference + " " + Quote(b.Reference) + "\n")

		case ImportDirective:
			head.WriteString(stmtImport + " " + Quote(b.Namespace) + "\n")

		case OutputDirective:
			// metadata only

		case TextBlock:
			for _, line := range b.Lines {
				body.WriteString(bodyIndent + stmtWrite + "(" + Quote(line) + ")\n")
			}

		case StandardControlBlock:
			body.WriteString(b.Content + "\n")

		case ExpressionControlBlock:
			body.WriteString(bodyIndent + stmtWrite + "(" + b.Content)

			// A trailing line comment would swallow the closing paren.
			if strings.Contains(b.Content, "//") {
				body.WriteString("\n" + bodyIndent)
			}

			body.WriteString(")\n")

		case ClassFeatureControlBlock:
			body.WriteString(b.Content + "\n")
		}
	}

	head.WriteString(stmtBegin + "\n")
	head.WriteString(body.String())
	head.WriteString(bodyIndent + stmtReturn + "\n")
	head.WriteString(stmtEnd + "\n")

	return head.String()
}

// Quote returns s as a double-quoted string literal. Backslash, double quote,
// carriage return, line feed, and tab are escaped; every other byte is
// copied unchanged.
func Quote(s string) string {
	var b strings.Builder

	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := range len(s) {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}

	b.WriteByte('"')

	return b.String()
}
