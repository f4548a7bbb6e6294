package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/ttc/log"
)

// resolve returns a [kong.ConfigurationLoader] for the YAML configuration
// file at path, as written by the init command.
//
// Keys are flag names. Nested mappings are joined with hyphens, so both of
// these set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Underscores may stand in for hyphens. Command-line flags override
// configuration values. A malformed file is reported and ignored.
func resolve(path string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}

		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			log.Warn("ignoring malformed configuration",
				slog.String("path", path),
				slog.Any("error", err),
			)

			return config{}, nil
		}

		c := config{}
		c.flatten("", doc)

		return c, nil
	}
}

// config implements [kong.Resolver] over flattened configuration keys.
type config map[string]any

// flatten copies m into c, joining nested keys with hyphens.
func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := strings.ReplaceAll(prefix+k, "_", "-")

		switch sub := v.(type) {
		case map[string]any:
			c.flatten(key+"-", sub)

		case map[any]any:
			conv := make(map[string]any, len(sub))
			for sk, sv := range sub {
				conv[fmt.Sprint(sk)] = sv
			}

			c.flatten(key+"-", conv)

		default:
			c[key] = scalar(v)
		}
	}
}

// scalar converts decoded YAML numbers to strings, which kong parses with
// the flag's own mapper.
func scalar(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		s := make([]any, len(v))
		for i, e := range v {
			s[i] = scalar(e)
		}

		return s
	default:
		return v
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	return nil, nil
}
