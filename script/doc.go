// Package script runs the programs generated by package tmpl.
//
// A program is a list of statements separated by newlines or semicolons.
// Expressions are written in expr-lang and everything else is a keyword
// statement:
//
//	reference "lib.ttc"        load declarations from a library
//	import "path"              bring a module's members into scope
//	let NAME = EXPR            bind a variable
//	def NAME PARAM* : EXPR     define a helper, or a constant if no params
//	begin ... end              the body
//	if EXPR / elif / else      conditional, closed by end
//	for [KEY,] NAME in EXPR    loop, closed by end
//	return                     stop and return the output
//	EXPR                       evaluate for effect
//
// The body writes its output with write(v...), which appends the text of
// each value.
//
// # Scope
//
// Names are resolved innermost first:
//
//  1. Helper parameters
//  2. Variables bound by let, def and for
//  3. Render parameters
//  4. Imported module members
//  5. Builtin modules (sys, path, file, text, mung, yaml)
//
// Helpers with parameters are registered as expr functions. Helpers
// defined at the top level of the body can be called before the statement
// that defines them.
//
// # Example
//
//	import "path"
//	def greet who : "Hello, " + who + "!"
//	begin
//	    for name in names
//	        write(greet(name), "\n")
//	    end
//	    write(base("/tmp/out.txt"))
//	end
package script
