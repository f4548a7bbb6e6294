package repl

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/params"
	"github.com/ardnew/ttc/tmpl"
)

// session holds the state shared by every line entered in the REPL: the
// parameters bound so far and the most recently rendered template.
type session struct {
	params tmpl.Params
	eval   tmpl.Evaluator
	logger log.Logger
	text   string // last fragment entered
	last   *tmpl.Template
}

func newSession(p tmpl.Params, eval tmpl.Evaluator, logger log.Logger) *session {
	if p == nil {
		p = tmpl.Params{}
	}

	return &session{params: p, eval: eval, logger: logger}
}

// render compiles fragment as a template and renders it with the session
// parameters. A fragment that compiles becomes the last template even if
// rendering fails, so gen can show what was generated.
func (s *session) render(ctx context.Context, fragment string) (string, error) {
	s.text = fragment

	t, err := tmpl.Parse(ctx, fragment,
		tmpl.WithEvaluator(s.eval),
		tmpl.WithLogger(s.logger),
	)
	if err != nil {
		return "", err
	}

	s.last = t

	out, err := t.Render(ctx, s.params)

	s.logger.TraceContext(ctx, "repl render",
		slog.Int("blocks", len(t.Blocks())),
		slog.Bool("ok", err == nil),
	)

	return out, err
}

// set binds one key=value argument.
func (s *session) set(arg string) error {
	if arg == "" {
		return ErrMissingArg.With(slog.String("command", "set"))
	}

	p, err := params.Parse([]string{arg})
	if err != nil {
		return err
	}

	s.params = params.Merge(s.params, p)

	return nil
}

// unset removes a key, reporting whether it was bound.
func (s *session) unset(key string) (bool, error) {
	if key == "" {
		return false, ErrMissingArg.With(slog.String("command", "unset"))
	}

	return params.Unset(s.params, key), nil
}

// dump renders the bound parameters as YAML.
func (s *session) dump() (string, error) {
	if len(s.params) == 0 {
		return "", nil
	}

	b, err := yaml.MarshalWithOptions(map[string]any(s.params), yaml.Indent(2))
	if err != nil {
		return "", err
	}

	return strings.TrimRight(string(b), "\n"), nil
}

// generated returns the script generated for the last template.
func (s *session) generated() (string, error) {
	if s.last == nil {
		return "", ErrNothingToShow
	}

	return s.last.Source(), nil
}

// paramChildren returns the keys directly below the dotted path parent in
// the bound parameters, or the top-level keys when parent is empty.
func (s *session) paramChildren(parent string) []string {
	var cur any = map[string]any(s.params)

	if parent != "" {
		for seg := range strings.SplitSeq(parent, ".") {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}

			if cur, ok = m[seg]; !ok {
				return nil
			}
		}
	}

	m, ok := cur.(map[string]any)
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}

// command executes a control-mode command and returns its output. Commands
// that act on the terminal (quit, clear, edit) return no output and are
// carried out by the caller.
func (s *session) command(name, arg string) (string, error) {
	switch name {
	case "set":
		return "", s.set(arg)

	case "unset":
		ok, err := s.unset(arg)
		if err != nil || ok {
			return "", err
		}

		return hintStyle.Render("not bound: " + arg), nil

	case "p", "params":
		return s.dump()

	case "g", "gen":
		return s.generated()

	case "h", "help":
		return helpMessage, nil

	case "q", "quit", "exit", "c", "clear", "e", "edit":
		return "", nil

	default:
		return "", ErrUnknownCmd.With(slog.String("command", name))
	}
}
