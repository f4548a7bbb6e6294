package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/ttc/script"
)

// exprSignatures lists the parameters of the expression language builtins
// most often used in templates.
var exprSignatures = map[string][]string{
	"len":       {"v"},
	"all":       {"array", "predicate"},
	"any":       {"array", "predicate"},
	"one":       {"array", "predicate"},
	"none":      {"array", "predicate"},
	"map":       {"array", "mapper"},
	"filter":    {"array", "predicate"},
	"find":      {"array", "predicate"},
	"findIndex": {"array", "predicate"},
	"groupBy":   {"array", "mapper"},
	"sortBy":    {"array", "mapper", "order"},
	"count":     {"array", "predicate"},
	"sum":       {"array"},
	"min":       {"array"},
	"max":       {"array"},
	"join":      {"array", "separator"},
	"split":     {"string", "separator"},
	"replace":   {"string", "old", "new"},
	"trim":      {"string"},
	"upper":     {"string"},
	"lower":     {"string"},
	"repeat":    {"string", "n"},
	"hasPrefix": {"string", "prefix"},
	"hasSuffix": {"string", "suffix"},
	"int":       {"v"},
	"float":     {"v"},
	"string":    {"v"},
	"type":      {"v"},
	"keys":      {"map"},
	"values":    {"map"},
	"toJSON":    {"v"},
	"fromJSON":  {"string"},
	"date":      {"string", "layout"},
	"now":       {},
}

// functionCall describes the call enclosing the cursor.
type functionCall struct {
	name     string // qualified name, e.g. "path.cat"
	argIndex int
	inCall   bool
}

func isNameRune(r rune) bool {
	return r == '.' || r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// detectFunctionCall reports the innermost unclosed call before cursor and
// the index of the argument being typed.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	open := -1
	depth := 0

scan:
	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i

				break scan
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	arg := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				arg++
			}
		}
	}

	return functionCall{name: name, argIndex: arg, inCall: true}
}

// signatureOf returns the display signature and parameter names of a
// builtin or module function, or "" if name is not a known function.
func signatureOf(name string) (string, []string) {
	if params, ok := exprSignatures[name]; ok {
		return name + "(" + strings.Join(params, ", ") + ")", params
	}

	module, member, ok := strings.Cut(name, ".")
	if !ok {
		return "", nil
	}

	v, ok := script.ModuleMember(module, member)
	if !ok {
		return "", nil
	}

	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Func {
		return "", nil
	}

	params := make([]string, t.NumIn())
	for i := range params {
		in := t.In(i)
		if t.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + typeName(in.Elem())
		} else {
			params[i] = typeName(in)
		}
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

// typeName returns a short readable name for a parameter type.
func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "list"
	case reflect.Map:
		return "map"
	case reflect.Pointer:
		return typeName(t.Elem())
	case reflect.Interface:
		return "any"
	default:
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

// renderSignatureHint renders a signature with the parameter at argIndex
// highlighted. A variadic parameter stays highlighted for every argument
// from its position on.
func renderSignatureHint(signature string, params []string, argIndex int) string {
	open := strings.Index(signature, "(")
	if open < 0 {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(signature[:open]))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")
		if (variadic && argIndex >= i) || argIndex == i {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
