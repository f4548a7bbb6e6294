package repl

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/ttc/script"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"set", "unset", "params", "gen", "edit", "clear", "help", "quit",
}

// isWordBoundary reports whether r delimits a completion word. This includes
// whitespace, the member-access dot, expression operators and the block
// delimiter characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'#', '@', '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte boundaries within input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word at
// wordStart. For "x + site.owner.na" with the word "na", the parent path is
// "site.owner". Top-level words have an empty parent.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")

	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:end])
}

// exprBuiltinNames returns the names of the expression language builtins in
// sorted order.
func exprBuiltinNames() []string {
	return slices.Sorted(maps.Keys(builtin.Index))
}

// candidates returns the completion names valid below parent. The top level
// offers bound parameters, modules, statement keywords and builtins. Below a
// parameter map it offers the map's keys, and below a module its members.
func (s *session) candidates(parent string) []string {
	if parent == "" {
		names := s.paramChildren("")
		names = append(names, script.ModuleNames()...)
		names = append(names, script.Keywords()...)
		names = append(names, exprBuiltinNames()...)

		return names
	}

	if names := s.paramChildren(parent); len(names) > 0 {
		return names
	}

	return script.ModuleMembers(parent)
}

// isFunction reports whether the candidate name below parent is callable, so
// it can be displayed with a "()" suffix.
func isFunction(parent, name string) bool {
	if parent == "" {
		_, ok := builtin.Index[name]

		return ok
	}

	v, ok := script.ModuleMember(parent, name)

	return ok && reflect.TypeOf(v) != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// completion is the state of the completion bar for one input position.
type completion struct {
	matches   fuzzy.Matches
	parent    string
	wordStart int
	wordEnd   int
}

// complete computes the fuzzy matches for the word at cursor. An empty word
// at the top level yields no matches so the hint stays visible. An empty word
// after a dot yields every child, unfiltered, for browsing.
func (s *session) complete(mode inputMode, input string, cursor int) completion {
	word, ws, we := wordBounds(input, cursor)
	c := completion{wordStart: ws, wordEnd: we}

	var names []string

	switch {
	case mode == modeCtrl && strings.TrimSpace(input[:ws]) == "":
		if word == "" {
			return c
		}

		names = ctrlCommands

	case mode == modeCtrl:
		fields := strings.Fields(input[:ws])
		if len(fields) == 0 || (fields[0] != "set" && fields[0] != "unset") {
			return c
		}

		c.parent = parentPath(input, ws)
		names = s.paramChildren(c.parent)

	default:
		c.parent = parentPath(input, ws)
		names = s.candidates(c.parent)
	}

	if len(names) == 0 {
		return c
	}

	if word == "" {
		if c.parent == "" {
			return c
		}

		c.matches = make(fuzzy.Matches, len(names))
		for i, n := range names {
			c.matches[i] = fuzzy.Match{Str: n, Index: i}
		}

		return c
	}

	c.matches = fuzzy.Find(word, names)

	return c
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// width. The selected candidate is highlighted while tab-cycling.
func renderCandidateBar(c completion, suggIdx int, tabActive bool, width int) string {
	if len(c.matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range c.matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx,
			isFunction(c.parent, match.Str))

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected, fn bool) string {
	base := suggestionStyle
	highlight := matchStyle

	if selected {
		base = selectedStyle
		highlight = selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if fn {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
