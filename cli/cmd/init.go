package cmd

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init writes the current global flag values to the configuration file.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	confPath, ok := modelVar(ctx, ConfigIdentifier)
	if !ok {
		panic("internal error: configuration path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalWithOptions(i.settings(ctx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(ctx,
		"initialized configuration file",
		slog.String("path", confPath),
		slog.Int("settings", strings.Count(string(data), "\n")),
	)

	return nil
}

// settings collects the application-level flag values keyed by flag name.
// Help and profiling flags are omitted, as are empty values.
func (i *Init) settings(ctx context.Context) map[string]any {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return map[string]any{}
	}

	ignore := []string{"help", profile.Tag}
	out := make(map[string]any, len(ktx.Model.Flags))

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if v, ok := plainValue(ktx.FlagValue(flag)); ok {
			out[flag.Name] = v
		}
	}

	return out
}

// plainValue converts a flag value to a YAML-friendly value, unwrapping
// named types such as the log level. Empty strings and slices are skipped.
func plainValue(val any) (any, bool) {
	if val == nil {
		return nil, false
	}

	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.String:
		if rv.Len() == 0 {
			return nil, false
		}

		return rv.String(), true

	case reflect.Bool:
		return rv.Bool(), true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true

	case reflect.Float32, reflect.Float64:
		return rv.Float(), true

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}

		s := make([]any, 0, rv.Len())
		for j := range rv.Len() {
			if e, ok := plainValue(rv.Index(j).Interface()); ok {
				s = append(s, e)
			}
		}

		return s, true

	default:
		return nil, false
	}
}
