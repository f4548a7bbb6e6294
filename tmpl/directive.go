package tmpl

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/sahilm/fuzzy"
)

// Directive keywords.
const (
	keywordAssembly = "assembly"
	keywordImport   = "import"
	keywordOutput   = "output"
)

var directiveKeywords = []string{keywordAssembly, keywordImport, keywordOutput}

// directiveLexer recognizes keywords and attribute names even when they are
// not separated by whitespace, e.g. `importnamespace="x"`.
var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `assembly|import|output`},
	{Name: "Attr", Pattern: `namespace|name|extension`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_.\-]*`},
	{Name: "Punct", Pattern: `=`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// directive is the grammar of a directive body.
type directive struct {
	Assembly *string `parser:"  'assembly' 'name' '=' @String"`
	Import   *string `parser:"| 'import' 'namespace' '=' @String"`
	Output   *string `parser:"| 'output' 'extension' '=' @String"`
}

var directiveParser = participle.MustBuild[directive](
	participle.Lexer(directiveLexer),
	participle.Elide("Whitespace"),
)

// ParseDirective parses the body of a directive block, the text between
// "<#@" and "#>", into one of [AssemblyDirective], [ImportDirective], or
// [OutputDirective].
//
// The attribute value is the text between the quotes with no escape
// processing.
func ParseDirective(body string) (Block, error) {
	return parseDirective(body, Span{})
}

func parseDirective(body string, span Span) (Block, error) {
	text := strings.TrimSpace(body)

	if !hasKeywordPrefix(text) {
		return nil, unknownDirective(text)
	}

	d, err := directiveParser.ParseString("", text)
	if err != nil {
		return nil, ErrMalformedDirective.
			With(slog.String("directive", text)).
			Wrap(err)
	}

	switch {
	case d.Assembly != nil:
		return AssemblyDirective{Reference: unquote(*d.Assembly), Pos: span}, nil
	case d.Import != nil:
		return ImportDirective{Namespace: unquote(*d.Import), Pos: span}, nil
	case d.Output != nil:
		return OutputDirective{Extension: unquote(*d.Output), Pos: span}, nil
	default:
		return nil, ErrMalformedDirective.With(slog.String("directive", text))
	}
}

func hasKeywordPrefix(text string) bool {
	for _, kw := range directiveKeywords {
		if strings.HasPrefix(text, kw) {
			return true
		}
	}

	return false
}

// unknownDirective builds an error naming the leading word of text and, when
// one is close, the keyword it most resembles.
func unknownDirective(text string) error {
	word := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	err := ErrUnknownDirective.With(slog.String("directive", text))

	if len(word) == 0 {
		return err
	}

	err = err.With(slog.String("keyword", word[0]))

	if s := Suggest(word[0], directiveKeywords); s != "" {
		return err.
			With(slog.String("suggest", s)).
			Wrap(fmt.Errorf("%q (did you mean %q?)", word[0], s))
	}

	return err.Wrap(fmt.Errorf("%q", word[0]))
}

// Suggest returns the candidate that best matches word, or "" if none is
// similar enough.
func Suggest(word string, candidates []string) string {
	if m := fuzzy.Find(word, candidates); len(m) > 0 {
		return m[0].Str
	}

	// Also match when the word is a near superset of a candidate, e.g. a
	// doubled letter.
	for _, c := range candidates {
		if len(fuzzy.Find(c, []string{word})) > 0 {
			return c
		}
	}

	return ""
}

// unquote strips the surrounding double quotes from a String token.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	return s
}
