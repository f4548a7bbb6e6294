package script

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/tmpl"
)

const writeFunc = "write"

// machine holds the state of a single program execution.
type machine struct {
	ctx    context.Context
	eval   *Evaluator
	logger log.Logger

	out strings.Builder

	modules  map[string]map[string]any
	imported map[string]any
	params   map[string]any
	vars     map[string]any
	funcs    map[string]*defStmt

	depth    int
	fault    error
	loading  []string
	loaded   map[string]bool
	returned bool

	programs map[uint64]*vm.Program
}

func newMachine(ctx context.Context, e *Evaluator, params map[string]any) *machine {
	return &machine{
		ctx:      ctx,
		eval:     e,
		logger:   e.logger,
		modules:  modules(buildProcessEnvMap(e.processEnv)),
		imported: make(map[string]any),
		params:   maps.Clone(params),
		vars:     make(map[string]any),
		funcs:    make(map[string]*defStmt),
		loaded:   make(map[string]bool),
		programs: make(map[uint64]*vm.Program),
	}
}

// run executes a template program and returns its captured output.
func (m *machine) run(prog *Program) (string, error) {
	if err := m.declare(prog); err != nil {
		return "", err
	}

	// Helpers defined anywhere at the top of the body are callable from
	// the first statement on.
	for _, n := range prog.body {
		if d, ok := n.(*defStmt); ok && len(d.params) > 0 {
			m.funcs[d.name] = d
		}
	}

	if err := m.exec(prog.body); err != nil {
		return "", err
	}

	return m.out.String(), nil
}

// declare loads the references, imports and top-level declarations of prog.
func (m *machine) declare(prog *Program) error {
	for _, r := range prog.references {
		if err := m.reference(r); err != nil {
			return err
		}
	}

	for _, i := range prog.imports {
		if err := m.importModule(i); err != nil {
			return err
		}
	}

	return m.exec(prog.decls)
}

func (m *machine) importModule(st *importStmt) error {
	members, ok := m.modules[st.name]
	if !ok {
		err := ErrUnknownModule.With(slog.String("module", st.name))
		if s := tmpl.Suggest(st.name, slices.Sorted(maps.Keys(m.modules))); s != "" {
			err = err.With(slog.String("suggestion", s))
		}

		if m.eval.strict {
			return compileError(st.stmt, err)
		}

		m.logger.WarnContext(m.ctx, "ignoring import", slog.Any("error", err))

		return nil
	}

	for name, member := range members {
		if _, shadow := builtin.Index[name]; shadow {
			continue
		}

		m.imported[name] = member
	}

	m.logger.TraceContext(m.ctx, "import",
		slog.String("module", st.name),
		slog.Int("members", len(members)))

	return nil
}

func (m *machine) reference(st *referenceStmt) error {
	if m.loaded[st.name] {
		return nil
	}

	if slices.Contains(m.loading, st.name) {
		return compileError(st.stmt, ErrReferenceCycle.With(
			slog.String("reference", st.name),
			slog.String("chain", strings.Join(append(m.loading, st.name), " -> ")),
		))
	}

	src, err := m.eval.resolve(st.name)
	if err != nil {
		if m.eval.strict {
			return compileError(st.stmt, err)
		}

		m.logger.WarnContext(m.ctx, "ignoring reference", slog.Any("error", err))

		return nil
	}

	lib, err := Parse(src)
	if err != nil {
		return err
	}

	if lib.hasBody {
		return compileError(st.stmt, ErrReferenceBody.
			With(slog.String("reference", st.name)))
	}

	m.loading = append(m.loading, st.name)
	defer func() { m.loading = m.loading[:len(m.loading)-1] }()

	if err := m.declare(lib); err != nil {
		return err
	}

	m.loaded[st.name] = true

	m.logger.TraceContext(m.ctx, "reference",
		slog.String("name", st.name),
		slog.Int("decls", len(lib.decls)))

	return nil
}

// exec runs a statement list until it is exhausted or a return is reached.
func (m *machine) exec(nodes []node) error {
	for _, n := range nodes {
		if m.returned {
			return nil
		}

		if err := m.ctx.Err(); err != nil {
			return runtimeError(n.statement(), ErrCanceled.Wrap(err))
		}

		if err := m.step(n); err != nil {
			return err
		}
	}

	return nil
}

func (m *machine) step(n node) error {
	switch n := n.(type) {
	case *exprStmt:
		_, err := m.evaluate(n.stmt, n.expr, nil)

		return err

	case *textStmt:
		m.out.WriteString(n.text)

	case *letStmt:
		v, err := m.evaluate(n.stmt, n.expr, nil)
		if err != nil {
			return err
		}

		m.vars[n.name] = v

	case *defStmt:
		if len(n.params) > 0 {
			m.funcs[n.name] = n
			delete(m.vars, n.name)

			return nil
		}

		v, err := m.evaluate(n.stmt, n.expr, nil)
		if err != nil {
			return err
		}

		delete(m.funcs, n.name)
		m.vars[n.name] = v

	case *ifStmt:
		return m.branch(n)

	case *forStmt:
		return m.loop(n)

	case *returnStmt:
		m.returned = true
	}

	return nil
}

func (m *machine) branch(n *ifStmt) error {
	for _, br := range n.branches {
		v, err := m.evaluate(br.stmt, br.cond, nil)
		if err != nil {
			return err
		}

		ok, isBool := v.(bool)
		if !isBool {
			return runtimeError(br.stmt, ErrNotBoolean.
				With(slog.String("type", fmt.Sprintf("%T", v))))
		}

		if ok {
			return m.exec(br.body)
		}
	}

	if n.hasElse {
		return m.exec(n.orElse)
	}

	return nil
}

func (m *machine) loop(n *forStmt) error {
	seq, err := m.evaluate(n.stmt, n.expr, nil)
	if err != nil {
		return err
	}

	names := []string{n.value}
	if n.key != "" {
		names = append(names, n.key)
	}

	saved := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := m.vars[name]; ok {
			saved[name] = v
		}
	}

	defer func() {
		for _, name := range names {
			if v, ok := saved[name]; ok {
				m.vars[name] = v
			} else {
				delete(m.vars, name)
			}
		}
	}()

	err = iterate(seq, func(key, val any) (bool, error) {
		if err := m.ctx.Err(); err != nil {
			return false, runtimeError(n.stmt, ErrCanceled.Wrap(err))
		}

		if n.key != "" {
			m.vars[n.key] = key
		}

		m.vars[n.value] = val

		if err := m.exec(n.body); err != nil {
			return false, err
		}

		return !m.returned, nil
	})
	if err != nil && !located(err) {
		return runtimeError(n.stmt, err)
	}

	return err
}

// call invokes a helper with positional arguments.
func (m *machine) call(name string, args []any) (any, error) {
	d := m.funcs[name]

	required, variadic := d.arity()
	if len(args) < required || (!variadic && len(args) > required) {
		return nil, runtimeError(d.stmt, ErrParamCountMismatch.With(
			slog.String("name", name),
			slog.Int("expected", required),
			slog.Int("got", len(args)),
		))
	}

	if m.depth >= m.eval.maxDepth {
		return nil, runtimeError(d.stmt, ErrMaxDepthExceeded.With(
			slog.String("name", name),
			slog.Int("max_depth", m.eval.maxDepth),
		))
	}

	m.depth++
	defer func() { m.depth-- }()

	bind := make(map[string]any, len(d.params))

	for i, p := range d.params {
		if p.variadic {
			bind[p.name] = append(make([]any, 0, len(args)-i), args[i:]...)

			break
		}

		bind[p.name] = args[i]
	}

	return m.evaluate(d.stmt, d.expr, bind)
}

func (m *machine) write(args ...any) (any, error) {
	for _, a := range args {
		m.out.WriteString(stringify(a))
	}

	return nil, nil
}

// scope returns the variables visible to an expression. Later sources
// shadow earlier ones: modules, imports, params, variables, then locals.
func (m *machine) scope(locals map[string]any) map[string]any {
	env := make(map[string]any,
		len(m.modules)+len(m.imported)+len(m.params)+len(m.vars)+len(locals))

	for name, members := range m.modules {
		env[name] = members
	}

	maps.Copy(env, m.imported)
	maps.Copy(env, m.params)
	maps.Copy(env, m.vars)
	maps.Copy(env, locals)

	delete(env, writeFunc)

	for name := range m.funcs {
		if _, local := locals[name]; !local {
			delete(env, name)
		}
	}

	return env
}

// evaluate compiles and runs a single expression against the current scope.
func (m *machine) evaluate(st stmt, src string, locals map[string]any) (any, error) {
	env := m.scope(locals)

	prog, err := m.compile(src, env)
	if err != nil {
		return nil, compileError(st, ErrExprCompile.Wrap(err))
	}

	out, err := vm.Run(prog, env)
	if err != nil {
		if fault := m.fault; fault != nil {
			m.fault = nil

			return nil, fault
		}

		return nil, propagate(st, err, ErrExprEvaluate)
	}

	return out, nil
}

// compile returns the program for src type-checked against env, reusing a
// previous compilation when the names and types in scope are unchanged.
func (m *machine) compile(src string, env map[string]any) (*vm.Program, error) {
	funcs := make([]string, 0, len(m.funcs))

	for name := range m.funcs {
		if _, local := env[name]; !local {
			funcs = append(funcs, name)
		}
	}

	slices.Sort(funcs)

	key := m.cacheKey(src, env, funcs)
	if prog, ok := m.programs[key]; ok {
		return prog, nil
	}

	opts := make([]expr.Option, 0, len(funcs)+2)
	opts = append(opts,
		expr.Env(env),
		expr.Function(writeFunc, m.write),
	)

	for _, name := range funcs {
		opts = append(opts, expr.Function(name, func(args ...any) (any, error) {
			out, err := m.call(name, args)
			if err != nil && m.fault == nil {
				m.fault = err
			}

			return out, err
		}))
	}

	prog, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, err
	}

	m.programs[key] = prog

	m.logger.TraceContext(m.ctx, "compile",
		slog.String("source", src),
		slog.Int("scope", len(env)),
		slog.Int("funcs", len(funcs)))

	return prog, nil
}

func (m *machine) cacheKey(src string, env map[string]any, funcs []string) uint64 {
	var sb strings.Builder

	sb.WriteString(src)
	sb.WriteByte(0)

	for _, name := range slices.Sorted(maps.Keys(env)) {
		fmt.Fprintf(&sb, "%s:%T;", name, env[name])
	}

	sb.WriteByte(0)
	sb.WriteString(strings.Join(funcs, ";"))

	return xxh3.HashString(sb.String())
}
