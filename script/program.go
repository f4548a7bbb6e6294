package script

import (
	"github.com/ardnew/ttc/tmpl"
)

// Program is a parsed script.
//
// A template program has a body delimited by begin and end. A reference
// library has none and may declare only imports, references, and
// let or def statements.
type Program struct {
	references []*referenceStmt
	imports    []*importStmt
	decls      []node
	body       []node
	hasBody    bool
}

// HasBody reports whether the program has a begin/end body.
func (p *Program) HasBody() bool { return p.hasBody }

// Imports returns the module names imported by the program, in order.
func (p *Program) Imports() []string {
	names := make([]string, len(p.imports))
	for i, s := range p.imports {
		names[i] = s.name
	}

	return names
}

// References returns the library names referenced by the program, in order.
func (p *Program) References() []string {
	names := make([]string, len(p.references))
	for i, s := range p.references {
		names[i] = s.name
	}

	return names
}

// Position locates a statement in program source.
type Position struct {
	Offset int
	Line   int
	Column int
}

// stmt is the location and text common to every statement.
type stmt struct {
	text string
	pos  Position
}

func (s stmt) diagnostic() tmpl.Diagnostic {
	return tmpl.Diagnostic{
		Statement: s.text,
		Line:      s.pos.Line,
		Column:    s.pos.Column,
	}
}

type node interface {
	statement() stmt
}

type (
	exprStmt struct {
		stmt

		expr string
	}

	// textStmt writes literal bytes.
	textStmt struct {
		stmt

		text string
	}

	letStmt struct {
		stmt

		name string
		expr string
	}

	defStmt struct {
		stmt

		name   string
		params []param
		expr   string
	}

	ifStmt struct {
		stmt

		branches []*branch
		orElse   []node
		hasElse  bool
	}

	branch struct {
		stmt

		cond string
		body []node
	}

	forStmt struct {
		stmt

		key   string // optional
		value string
		expr  string
		body  []node
	}

	returnStmt struct {
		stmt
	}

	importStmt struct {
		stmt

		name string
	}

	referenceStmt struct {
		stmt

		name string
	}
)

// param is a helper parameter. A variadic parameter collects all remaining
// arguments and must be last.
type param struct {
	name     string
	variadic bool
}

func (s stmt) statement() stmt { return s }

// arity returns the number of required arguments and whether more are
// accepted.
func (d *defStmt) arity() (int, bool) {
	n := len(d.params)
	if n > 0 && d.params[n-1].variadic {
		return n - 1, true
	}

	return n, false
}
