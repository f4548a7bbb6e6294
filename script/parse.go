package script

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	exprparser "github.com/expr-lang/expr/parser"
)

// Statement keywords.
const (
	kwBegin     = "begin"
	kwEnd       = "end"
	kwReturn    = "return"
	kwIf        = "if"
	kwElif      = "elif"
	kwElse      = "else"
	kwFor       = "for"
	kwIn        = "in"
	kwLet       = "let"
	kwDef       = "def"
	kwImport    = "import"
	kwReference = "reference"
)

// Keywords returns the statement keywords, for completion.
func Keywords() []string {
	return []string{
		kwBegin, kwEnd, kwReturn, kwIf, kwElif, kwElse, kwFor, kwIn,
		kwLet, kwDef, kwImport, kwReference,
	}
}

// Parse parses script source into a Program.
//
// Every expression is checked for syntax here. Names are resolved later,
// against the live scope, when the program is executed.
func Parse(src string) (*Program, error) {
	p := &parser{
		input: []byte(src),
		line:  1,
		col:   1,
	}

	stmts, err := p.split()
	if err != nil {
		return nil, err
	}

	return build(stmts)
}

// parser splits source text into statements.
type parser struct {
	input []byte
	pos   int
	line  int
	col   int
}

// split returns the statements of the input. Statements are separated by
// newlines or semicolons at bracket depth zero, outside string literals.
// Comments, and newlines inside brackets, are replaced with a single space.
func (p *parser) split() ([]stmt, error) {
	var (
		stmts []stmt
		text  strings.Builder
		start Position
		depth int
	)

	flush := func() {
		if s := strings.TrimSpace(text.String()); s != "" {
			stmts = append(stmts, stmt{text: s, pos: start})
		}

		text.Reset()
	}

	for !p.eof() {
		ch := p.peek()

		if text.Len() == 0 || strings.TrimSpace(text.String()) == "" {
			if unicode.IsSpace(ch) && ch != '\n' {
				text.Reset()
				p.advance()

				continue
			}

			start = p.position()
		}

		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			s, err := p.skipString(ch)
			if err != nil {
				return nil, compileError(
					stmt{text: strings.TrimSpace(text.String()), pos: start}, err,
				)
			}

			text.WriteString(s)

			continue

		case ch == '/' && p.peekN(2) == "//":
			p.skipLineComment()
			text.WriteByte(' ')

			continue

		case ch == '/' && p.peekN(2) == "/*":
			p.skipBlockComment()
			text.WriteByte(' ')

			continue

		case ch == '(' || ch == '[' || ch == '{':
			depth++

		case ch == ')' || ch == ']' || ch == '}':
			if depth > 0 {
				depth--
			}

		case ch == '\n' && depth > 0:
			p.advance()
			text.WriteByte(' ')

			continue

		case (ch == '\n' || ch == ';') && depth == 0:
			p.advance()
			flush()

			continue
		}

		text.WriteRune(ch)
		p.advance()
	}

	flush()

	return stmts, nil
}

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(p.input[p.pos:])

	return r
}

func (p *parser) peekN(n int) string {
	if p.pos+n > len(p.input) {
		return string(p.input[p.pos:])
	}

	return string(p.input[p.pos : p.pos+n])
}

func (p *parser) advance() {
	if p.eof() {
		return
	}

	r, size := utf8.DecodeRune(p.input[p.pos:])

	p.pos += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) position() Position {
	return Position{
		Offset: p.pos,
		Line:   p.line,
		Column: p.col,
	}
}

func (p *parser) skipLineComment() {
	for !p.eof() && p.peek() != '\n' {
		p.advance()
	}
}

func (p *parser) skipBlockComment() {
	p.advance() // skip '/'
	p.advance() // skip '*'

	for !p.eof() {
		if p.peekN(2) == "*/" {
			p.advance()
			p.advance()

			return
		}

		p.advance()
	}
}

// skipString consumes a string literal and returns its source text.
// Backquoted strings have no escapes.
func (p *parser) skipString(quote rune) (string, error) {
	start := p.pos

	p.advance() // skip opening quote

	for !p.eof() {
		ch := p.peek()
		if ch == '\\' && quote != '`' {
			p.advance()

			if !p.eof() {
				p.advance()
			}

			continue
		}

		if ch == '\n' && quote != '`' {
			break
		}

		p.advance()

		if ch == quote {
			return string(p.input[start:p.pos]), nil
		}
	}

	return "", ErrUnterminatedString.
		With(slog.Int("line", p.line), slog.Int("column", p.col))
}

// frame is an open block during tree construction.
type frame struct {
	opener stmt
	kind   string
	target *[]node
	cond   *ifStmt
}

// builder assembles statements into a Program.
type builder struct {
	prog  *Program
	stack []*frame
}

func build(stmts []stmt) (*Program, error) {
	b := &builder{prog: new(Program)}

	for _, st := range stmts {
		if err := b.statement(st); err != nil {
			return nil, err
		}
	}

	if n := len(b.stack); n > 0 {
		f := b.stack[n-1]

		return nil, compileError(f.opener, ErrUnclosedBlock.
			With(slog.String("block", f.kind)))
	}

	return b.prog, nil
}

func (b *builder) inBody() bool { return len(b.stack) > 0 }

func (b *builder) emit(n node) {
	f := b.stack[len(b.stack)-1]
	*f.target = append(*f.target, n)
}

func (b *builder) push(f *frame) { b.stack = append(b.stack, f) }

func (b *builder) statement(st stmt) error {
	kw, rest := cutKeyword(st.text)

	switch kw {
	case kwBegin:
		if rest != "" || b.inBody() || b.prog.hasBody {
			return compileError(st, ErrUnexpectedStmt.
				With(slog.String("keyword", kw)))
		}

		b.prog.hasBody = true
		b.push(&frame{opener: st, kind: kwBegin, target: &b.prog.body})

		return nil

	case kwEnd:
		if rest != "" || !b.inBody() {
			return compileError(st, ErrUnexpectedStmt.
				With(slog.String("keyword", kw)))
		}

		b.stack = b.stack[:len(b.stack)-1]

		return nil

	case kwImport, kwReference:
		if b.inBody() {
			return compileError(st, ErrUnexpectedStmt.
				With(slog.String("keyword", kw)))
		}

		name, err := parseName(rest)
		if err != nil {
			return compileError(st, err)
		}

		if kw == kwImport {
			b.prog.imports = append(b.prog.imports, &importStmt{st, name})
		} else {
			b.prog.references = append(b.prog.references, &referenceStmt{st, name})
		}

		return nil

	case kwLet:
		n, err := parseLet(st, rest)
		if err != nil {
			return err
		}

		b.declare(n)

		return nil

	case kwDef:
		n, err := parseDef(st, rest)
		if err != nil {
			return err
		}

		b.declare(n)

		return nil
	}

	if !b.inBody() {
		return compileError(st, ErrOutsideBody)
	}

	switch kw {
	case kwReturn:
		if rest != "" {
			return compileError(st, ErrSyntax.
				With(slog.String("unexpected", rest)))
		}

		b.emit(&returnStmt{st})

	case kwIf:
		br, err := parseBranch(st, rest)
		if err != nil {
			return err
		}

		n := &ifStmt{stmt: st, branches: []*branch{br}}
		b.emit(n)
		b.push(&frame{opener: st, kind: kwIf, target: &br.body, cond: n})

	case kwElif, kwElse:
		f := b.stack[len(b.stack)-1]
		if f.cond == nil || f.cond.hasElse {
			return compileError(st, ErrUnexpectedStmt.
				With(slog.String("keyword", kw)))
		}

		if kw == kwElse {
			if rest != "" {
				return compileError(st, ErrSyntax.
					With(slog.String("unexpected", rest)))
			}

			f.cond.hasElse = true
			f.target = &f.cond.orElse

			return nil
		}

		br, err := parseBranch(st, rest)
		if err != nil {
			return err
		}

		f.cond.branches = append(f.cond.branches, br)
		f.target = &br.body

	case kwFor:
		n, err := parseFor(st, rest)
		if err != nil {
			return err
		}

		b.emit(n)
		b.push(&frame{opener: st, kind: kwFor, target: &n.body})

	default:
		if text, ok := literalWrite(st.text); ok {
			b.emit(&textStmt{stmt: st, text: text})

			break
		}

		if err := checkExpr(st, st.text); err != nil {
			return err
		}

		b.emit(&exprStmt{stmt: st, expr: st.text})
	}

	return nil
}

// declare places a let or def in the open block, or among the top-level
// declarations when no block is open.
func (b *builder) declare(n node) {
	if b.inBody() {
		b.emit(n)

		return
	}

	b.prog.decls = append(b.prog.decls, n)
}

// cutKeyword splits a statement into its leading keyword and the rest.
// It returns an empty keyword when the statement does not begin with one.
func cutKeyword(text string) (string, string) {
	word, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		word, rest = text[:i], strings.TrimSpace(text[i:])
	}

	switch word {
	case kwBegin, kwEnd, kwReturn, kwIf, kwElif, kwElse, kwFor,
		kwLet, kwDef, kwImport, kwReference:
		return word, rest
	}

	return "", text
}

// literalWrite reports whether src writes a single double-quoted string
// literal and returns the literal's bytes. Such writes skip expr, which
// would replace invalid UTF-8 in the literal with U+FFFD.
func literalWrite(src string) (string, bool) {
	arg, ok := strings.CutPrefix(src, writeFunc+"(")
	if !ok {
		return "", false
	}

	arg, ok = strings.CutSuffix(strings.TrimSpace(arg), ")")
	if !ok {
		return "", false
	}

	arg = strings.TrimSpace(arg)
	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return "", false
	}

	var b strings.Builder

	b.Grow(len(arg))

	for i := 1; i < len(arg)-1; i++ {
		switch c := arg[i]; c {
		case '"':
			return "", false

		case '\\':
			i++
			if i >= len(arg)-1 {
				return "", false
			}

			switch arg[i] {
			case '\\', '"':
				b.WriteByte(arg[i])
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				return "", false
			}

		default:
			b.WriteByte(c)
		}
	}

	return b.String(), true
}

func checkExpr(st stmt, src string) error {
	if strings.TrimSpace(src) == "" {
		return compileError(st, ErrSyntax.
			With(slog.String("expected", "expression")))
	}

	if _, err := exprparser.Parse(src); err != nil {
		return compileError(st, ErrSyntax.Wrap(err))
	}

	return nil
}

func parseName(s string) (string, error) {
	if s == "" {
		return "", ErrSyntax.With(slog.String("expected", "name"))
	}

	if s[0] == '"' || s[0] == '`' {
		name, err := strconv.Unquote(s)
		if err != nil {
			return "", ErrSyntax.Wrap(err).With(slog.String("name", s))
		}

		return name, nil
	}

	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", ErrSyntax.With(slog.String("name", s))
	}

	return s, nil
}

// parseLet parses: NAME '=' EXPR.
func parseLet(st stmt, s string) (*letStmt, error) {
	name, rest := cutIdentifier(s)
	if name == "" {
		return nil, compileError(st, ErrSyntax.
			With(slog.String("expected", "identifier")))
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, "==") {
		return nil, compileError(st, ErrSyntax.
			With(slog.String("expected", "="), slog.String("name", name)))
	}

	expr := strings.TrimSpace(rest[1:])
	if err := checkExpr(st, expr); err != nil {
		return nil, err
	}

	return &letStmt{stmt: st, name: name, expr: expr}, nil
}

// parseDef parses: NAME PARAM* ':' EXPR, where the last PARAM may be
// prefixed with "..." to collect remaining arguments.
func parseDef(st stmt, s string) (*defStmt, error) {
	name, rest := cutIdentifier(s)
	if name == "" {
		return nil, compileError(st, ErrSyntax.
			With(slog.String("expected", "identifier")))
	}

	head, body, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, compileError(st, ErrSyntax.
			With(slog.String("expected", ":"), slog.String("name", name)))
	}

	var params []param

	for _, field := range strings.Fields(head) {
		if len(params) > 0 && params[len(params)-1].variadic {
			return nil, compileError(st, ErrSyntax.
				With(slog.String("unexpected", field),
					slog.String("reason", "variadic parameter must be last")))
		}

		variadic := strings.HasPrefix(field, "...")
		field = strings.TrimPrefix(field, "...")

		if id, tail := cutIdentifier(field); id == "" || tail != "" {
			return nil, compileError(st, ErrSyntax.
				With(slog.String("expected", "parameter"),
					slog.String("got", field)))
		}

		params = append(params, param{name: field, variadic: variadic})
	}

	expr := strings.TrimSpace(body)
	if err := checkExpr(st, expr); err != nil {
		return nil, err
	}

	return &defStmt{stmt: st, name: name, params: params, expr: expr}, nil
}

func parseBranch(st stmt, cond string) (*branch, error) {
	if err := checkExpr(st, cond); err != nil {
		return nil, err
	}

	return &branch{stmt: st, cond: cond}, nil
}

// parseFor parses: [KEY ','] NAME 'in' EXPR.
func parseFor(st stmt, s string) (*forStmt, error) {
	n := &forStmt{stmt: st}

	first, rest := cutIdentifier(s)
	if first == "" {
		return nil, compileError(st, ErrSyntax.
			With(slog.String("expected", "identifier")))
	}

	rest = strings.TrimSpace(rest)
	if after, ok := strings.CutPrefix(rest, ","); ok {
		second, tail := cutIdentifier(strings.TrimSpace(after))
		if second == "" {
			return nil, compileError(st, ErrSyntax.
				With(slog.String("expected", "identifier")))
		}

		n.key, n.value, rest = first, second, strings.TrimSpace(tail)
	} else {
		n.value = first
	}

	kw, expr := cutKeywordIn(rest)
	if !kw {
		return nil, compileError(st, ErrSyntax.
			With(slog.String("expected", kwIn)))
	}

	if err := checkExpr(st, expr); err != nil {
		return nil, err
	}

	n.expr = expr

	return n, nil
}

func cutKeywordIn(s string) (bool, string) {
	after, ok := strings.CutPrefix(s, kwIn)
	if !ok || after == "" || !unicode.IsSpace(rune(after[0])) {
		return false, s
	}

	return true, strings.TrimSpace(after)
}

// cutIdentifier splits a leading identifier from s.
func cutIdentifier(s string) (string, string) {
	end := 0

	for i, r := range s {
		if i == 0 && !isIdentifierStart(r) {
			return "", s
		}

		if i > 0 && !isIdentifierContinue(r) {
			break
		}

		end = i + utf8.RuneLen(r)
	}

	return s[:end], s[end:]
}

// Character classification

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}
