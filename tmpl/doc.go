// Package tmpl compiles text templates into program source.
//
// A template is literal text interleaved with markup blocks:
//
//	<#@ import namespace="path" #>   directive
//	<# for x in items #>             standard control block
//	<#= x #>                         expression control block
//	<#+ def twice n : n * 2 #>       class-feature control block
//
// Every block ends at the first following "#>". Text outside blocks is
// copied to the output byte for byte.
//
// # Pipeline
//
// [Scan] splits source into segments, [Parse] classifies them into a
// [Block] sequence (parsing directive bodies with [ParseDirective]), and
// [Generate] renders the blocks as program source with directives hoisted
// ahead of the body:
//
//	import "path"
//	begin
//	    write("Hello ")
//	    write(name)
//	    return
//	end
//
// # Rendering
//
// Running generated source is delegated to an [Evaluator] supplied with
// [WithEvaluator]. [Template.Render] forwards the source and a [Params]
// binding to the evaluator and returns its output or failure unchanged.
// The script package provides the standard evaluator.
//
//	t, err := tmpl.Parse(ctx, "Hello <#= name #>!", tmpl.WithEvaluator(script.New()))
//	out, err := t.Render(ctx, tmpl.Params{"name": "World"})
//
// # Errors
//
// Malformed markup is reported as [*ParseError]. Evaluators report
// [*CompileError] for source they cannot accept and [*RuntimeError] for
// failures raised while running.
package tmpl
