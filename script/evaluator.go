package script

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/readahead"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/tmpl"
)

// DefaultMaxDepth is the default maximum helper call depth.
const DefaultMaxDepth = 100

// Evaluator compiles and runs generated template programs.
//
// An Evaluator holds only configuration, and every call to
// [Evaluator.Evaluate] runs in a fresh machine, so one Evaluator may serve
// concurrent renders.
type Evaluator struct {
	logger     log.Logger
	references map[string]string
	baseDir    string
	processEnv []string
	maxDepth   int
	strict     bool
}

// Option configures an [Evaluator].
type Option func(*Evaluator)

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithMaxDepth sets the maximum helper call depth.
// Values less than 1 select [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(e *Evaluator) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		e.maxDepth = depth
	}
}

// WithStrict reports unknown imports and unresolved references as compile
// errors instead of logging and ignoring them.
func WithStrict(strict bool) Option {
	return func(e *Evaluator) {
		e.strict = strict
	}
}

// WithReference registers library source under name, for use by a
// reference statement.
func WithReference(name, source string) Option {
	return func(e *Evaluator) {
		if e.references == nil {
			e.references = make(map[string]string)
		}

		e.references[name] = source
	}
}

// WithBaseDir sets the directory relative to which reference files are
// resolved.
func WithBaseDir(dir string) Option {
	return func(e *Evaluator) {
		e.baseDir = dir
	}
}

// WithProcessEnv sets the "KEY=VALUE" entries seen by sys.env.
// A nil slice selects the environment of the current process.
func WithProcessEnv(env []string) Option {
	return func(e *Evaluator) {
		e.processEnv = env
	}
}

// New returns an Evaluator configured with opts.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate parses and runs source with params bound as variables and
// returns the captured output.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	source string,
	params tmpl.Params,
) (string, error) {
	prog, err := Parse(source)
	if err != nil {
		return "", err
	}

	e.logger.TraceContext(ctx, "evaluate",
		slog.Int("imports", len(prog.imports)),
		slog.Int("references", len(prog.references)),
		slog.Int("params", len(params)))

	return newMachine(ctx, e, params).run(prog)
}

// Check parses source and loads its references, imports and top-level
// declarations without running the body.
func (e *Evaluator) Check(ctx context.Context, source string) error {
	prog, err := Parse(source)
	if err != nil {
		return err
	}

	return newMachine(ctx, e, nil).declare(prog)
}

// resolve returns the source of the named reference library.
func (e *Evaluator) resolve(name string) (string, error) {
	if src, ok := e.references[name]; ok {
		return src, nil
	}

	path := name
	if !filepath.IsAbs(path) && e.baseDir != "" {
		path = filepath.Join(e.baseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrReferenceNotFound.With(
				slog.String("reference", name),
				slog.String("path", path),
			)
		}

		return "", ErrReferenceRead.Wrap(err).
			With(slog.String("reference", name))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReferenceRead.Wrap(err).
			With(slog.String("reference", name))
	}

	return string(data), nil
}

var _ tmpl.Evaluator = (*Evaluator)(nil)
