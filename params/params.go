package params

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/ttc/tmpl"
)

// Parse converts "key=value" assignments into params.
//
// Values are typed: true/false become bool, integers int64, other numbers
// float64, and anything else a string. A value may be quoted to force a
// string. An assignment without "=" binds true.
func Parse(args []string) (tmpl.Params, error) {
	p := tmpl.Params{}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, ErrMalformed.With(slog.String("arg", arg))
		}

		var v any = true
		if ok {
			v = parseValue(value)
		}

		if err := Set(p, key, v); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func parseValue(s string) any {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'' || s[0] == '`') &&
		s[len(s)-1] == s[0] {
		if s[0] == '\'' {
			return s[1 : len(s)-1]
		}

		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}

	switch s {
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}

// Set binds value at the dotted key path in p, creating intermediate maps.
// It fails if a path element is already bound to a non-map value.
func Set(p tmpl.Params, key string, value any) error {
	path := strings.Split(key, ".")
	m := map[string]any(p)

	for i, name := range path {
		if name == "" {
			return ErrMalformed.With(slog.String("key", key))
		}

		if i == len(path)-1 {
			m[name] = value

			break
		}

		switch next := m[name].(type) {
		case nil:
			child := map[string]any{}
			m[name] = child
			m = child

		case map[string]any:
			m = next

		default:
			return ErrConflict.With(
				slog.String("key", key),
				slog.String("at", strings.Join(path[:i+1], ".")),
			)
		}
	}

	return nil
}

// Unset removes the binding at the dotted key path. Emptied intermediate
// maps are kept. It reports whether anything was removed.
func Unset(p tmpl.Params, key string) bool {
	path := strings.Split(key, ".")
	m := map[string]any(p)

	for _, name := range path[:len(path)-1] {
		next, ok := m[name].(map[string]any)
		if !ok {
			return false
		}

		m = next
	}

	last := path[len(path)-1]
	if _, ok := m[last]; !ok {
		return false
	}

	delete(m, last)

	return true
}

// Merge copies each source into dst in order. Nested maps are merged
// recursively; any other value replaces what dst held. dst may be nil.
func Merge(dst tmpl.Params, src ...tmpl.Params) tmpl.Params {
	if dst == nil {
		dst = tmpl.Params{}
	}

	for _, s := range src {
		mergeMap(dst, s)
	}

	return dst
}

func mergeMap(dst, src map[string]any) {
	for k, v := range src {
		sm, ok := v.(map[string]any)
		if !ok {
			dst[k] = v

			continue
		}

		dm, ok := dst[k].(map[string]any)
		if !ok {
			dm = make(map[string]any, len(sm))
			dst[k] = dm
		}

		mergeMap(dm, sm)
	}
}

// Keys returns the dotted paths of every leaf value in p, for completion.
func Keys(p tmpl.Params) []string {
	var keys []string

	var walk func(prefix string, m map[string]any)

	walk = func(prefix string, m map[string]any) {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if child, ok := m[k].(map[string]any); ok && len(child) > 0 {
				walk(prefix+k+".", child)

				continue
			}

			keys = append(keys, prefix+k)
		}
	}

	walk("", p)

	return keys
}
