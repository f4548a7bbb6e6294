package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/ttc/tmpl"
)

func render(t *testing.T, text string, params tmpl.Params, opts ...Option) (string, error) {
	t.Helper()

	tp, err := tmpl.Parse(t.Context(), text, tmpl.WithEvaluator(New(opts...)))
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", text, err)
	}

	return tp.Render(t.Context(), params)
}

func mustRender(t *testing.T, text string, params tmpl.Params, opts ...Option) string {
	t.Helper()

	out, err := render(t, text, params, opts...)
	if err != nil {
		t.Fatalf("Render(%q) error: %v", text, err)
	}

	return out
}

func TestRender_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		params tmpl.Params
		want   string
	}{
		{
			name:   "expression",
			input:  "Hello <#= Name #>!",
			params: tmpl.Params{"Name": "World"},
			want:   "Hello World!",
		},
		{
			name:  "unknown import with static text",
			input: "<#@ import namespace=\"System\" #>Static text only",
			want:  "Static text only",
		},
		{
			name:  "helper used twice",
			input: "<#+ def twice n : n * 2 #><#= twice(2) #>,<#= twice(5) #>",
			want:  "4,10",
		},
		{
			name:  "helper used before definition",
			input: "<#= twice(2) #><#+ def twice n : n * 2 #>",
			want:  "4",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "multi-line text",
			input: "first\nsecond\n\nfourth\n",
			want:  "first\nsecond\n\nfourth\n",
		},
		{
			name:  "expression with trailing comment",
			input: "x <#= 1 // c #> y",
			want:  "x 1 y",
		},
		{
			name:   "multi-line expression with comment",
			input:  "<#= [\n  a, // first\n  b\n] #>",
			params: tmpl.Params{"a": 1, "b": 2},
			want:   "[1 2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRender(t, tt.input, tt.params); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_EscapingRoundTrip(t *testing.T) {
	inputs := []string{
		`back\slash`,
		`"quoted"`,
		"tab\tcr\rlf\n",
		"\\n is not a newline",
		"mixed ünïcödé ✓\r\n",
		"# hash // slashes /* not a comment */ ; semicolon",
		"{ braces } [ brackets ] ( parens",
		"caf\xe9 latin-1\n",
		"\xff\xfe raw \\ \"bytes\"\x80",
	}

	for _, input := range inputs {
		if got := mustRender(t, input, nil); got != input {
			t.Errorf("Render(%q) = %q", input, got)
		}
	}
}

func TestRender_ControlFlow(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		params tmpl.Params
		want   string
	}{
		{
			name:   "for slice",
			input:  "<# for x in items #><#= x #>,<# end #>",
			params: tmpl.Params{"items": []any{"a", "b"}},
			want:   "a,b,",
		},
		{
			name:   "for typed slice with index",
			input:  "<# for i, x in items #><#= i #>=<#= x #> <# end #>",
			params: tmpl.Params{"items": []string{"a", "b"}},
			want:   "0=a 1=b ",
		},
		{
			name:   "for map sorted",
			input:  "<# for k, v in m #><#= k #>=<#= v #>;<# end #>",
			params: tmpl.Params{"m": map[string]any{"b": 2, "a": 1}},
			want:   "a=1;b=2;",
		},
		{
			name:  "for integer",
			input: "<# for i in 3 #><#= i #><# end #>",
			want:  "012",
		},
		{
			name:  "for string",
			input: "<# for c in \"héj\" #>[<#= c #>]<# end #>",
			want:  "[h][é][j]",
		},
		{
			name:   "for nil",
			input:  "a<# for x in items #><#= x #><# end #>b",
			params: tmpl.Params{"items": nil},
			want:   "ab",
		},
		{
			name:   "if",
			input:  "<# if n > 1 #>many<# elif n == 1 #>one<# else #>none<# end #>",
			params: tmpl.Params{"n": 2},
			want:   "many",
		},
		{
			name:   "elif",
			input:  "<# if n > 1 #>many<# elif n == 1 #>one<# else #>none<# end #>",
			params: tmpl.Params{"n": 1},
			want:   "one",
		},
		{
			name:   "else",
			input:  "<# if n > 1 #>many<# elif n == 1 #>one<# else #>none<# end #>",
			params: tmpl.Params{"n": 0},
			want:   "none",
		},
		{
			name:  "return stops output",
			input: "a<# return #>b",
			want:  "a",
		},
		{
			name:  "return inside loop",
			input: "<# for i in 10 #><# if i == 3 #><# return #><# end #><#= i #><# end #>",
			want:  "012",
		},
		{
			name:   "let",
			input:  "<# let y = x * 2 #><#= y #>",
			params: tmpl.Params{"x": 3},
			want:   "6",
		},
		{
			name:  "loop variable restored",
			input: "<# let x = \"outer\" #><# for x in [1, 2] #><#= x #><# end #><#= x #>",
			want:  "12outer",
		},
		{
			name:  "constant def",
			input: "<#+ def greeting : \"hi\" #><#= upper(greeting) #>",
			want:  "HI",
		},
		{
			name:  "variadic helper",
			input: "<#+ def count ...xs : len(xs) #><#= count() #>/<#= count(1, 2, 3) #>",
			want:  "0/3",
		},
		{
			name:  "recursive helper",
			input: "<#+ def fact n : n <= 1 ? 1 : n * fact(n - 1) #><#= fact(5) #>",
			want:  "120",
		},
		{
			name:  "write values",
			input: "<# write(nil, true, 1.5, \"s\") #>",
			want:  "true1.5s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRender(t, tt.input, tt.params); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_Modules(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"qualified", `<#= path.ext("notes.md") #>`, ".md"},
		{"imported", `<#@ import namespace="path" #><#= base("/a/b.txt") #>`, "b.txt"},
		{"imported builtin not shadowed", `<#@ import namespace="path" #><#= abs(-2) #>`, "2"},
		{"text title", `<#= text.title("hello world") #>`, "Hello World"},
		{"text indent", `<#= text.indent("> ", "a\n\nb") #>`, "> a\n\n> b"},
		{"text lines", `<#= len(text.lines("a\nb\n")) #>`, "2"},
		{"yaml encode", `<#= yaml.encode({"a": 1}) #>`, "a: 1\n"},
		{"yaml decode", `<#= yaml.decode("k: v").k #>`, "v"},
		{"sys env", `<#= sys.env("TTC_TEST") #>`, "value"},
		{"imported sys env", `<#@ import namespace="sys" #><#= env("TTC_TEST") #>`, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRender(t, tt.input, nil, WithProcessEnv([]string{"TTC_TEST=value"}))
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    []Option
		target  error
		runtime bool
	}{
		{
			name:   "unknown name",
			input:  "<#= nosuch #>",
			target: ErrExprCompile,
		},
		{
			name:   "strict unknown import",
			input:  "<#@ import namespace=\"System\" #>x",
			opts:   []Option{WithStrict(true)},
			target: ErrUnknownModule,
		},
		{
			name:   "standard block syntax",
			input:  "<# write(1 + ) #>",
			target: ErrSyntax,
		},
		{
			name:   "statement after end",
			input:  "<# end #>",
			target: ErrOutsideBody,
		},
		{
			name:    "not boolean",
			input:   "<# if 1 #>x<# end #>",
			target:  ErrNotBoolean,
			runtime: true,
		},
		{
			name:    "not iterable",
			input:   "<# for x in true #><# end #>",
			target:  ErrNotIterable,
			runtime: true,
		},
		{
			name:    "arity",
			input:   "<#+ def twice n : n * 2 #><#= twice(1, 2) #>",
			target:  ErrParamCountMismatch,
			runtime: true,
		},
		{
			name:    "depth",
			input:   "<#+ def deep n : deep(n + 1) #><#= deep(0) #>",
			opts:    []Option{WithMaxDepth(10)},
			target:  ErrMaxDepthExceeded,
			runtime: true,
		},
		{
			name:    "runtime failure",
			input:   "<#= items[5] #>",
			target:  ErrExprEvaluate,
			runtime: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := render(t, tt.input, tmpl.Params{"items": []any{1}}, tt.opts...)
			if err == nil {
				t.Fatalf("expected error, got output %q", out)
			}

			if out != "" {
				t.Errorf("output %q returned with error", out)
			}

			if !errors.Is(err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.target)
			}

			var (
				ce *tmpl.CompileError
				re *tmpl.RuntimeError
			)

			switch {
			case tt.runtime && !errors.As(err, &re):
				t.Errorf("expected *tmpl.RuntimeError, got %T", err)
			case !tt.runtime && !errors.As(err, &ce):
				t.Errorf("expected *tmpl.CompileError, got %T", err)
			}
		})
	}
}

func TestRender_ErrorLocation(t *testing.T) {
	_, err := render(t, "Hello <#= nosuch #>", nil)

	var ce *tmpl.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *tmpl.CompileError, got %v", err)
	}

	// begin / write("Hello ") / write( nosuch )
	if ce.Line != 3 || ce.Column != 5 {
		t.Errorf("location = %d:%d, want 3:5", ce.Line, ce.Column)
	}

	if ce.Statement != "write( nosuch )" {
		t.Errorf("statement = %q", ce.Statement)
	}

	if !strings.Contains(err.Error(), "line 3, column 5") {
		t.Errorf("error %q lacks location", err.Error())
	}
}

func TestRender_References(t *testing.T) {
	t.Run("registered", func(t *testing.T) {
		got := mustRender(t,
			`<#@ assembly name="lib" #><#= shout("hi") #>`, nil,
			WithReference("lib", "def shout s : upper(s) + \"!\""))
		if got != "HI!" {
			t.Errorf("Render() = %q", got)
		}
	})

	t.Run("nested", func(t *testing.T) {
		got := mustRender(t,
			`<#@ assembly name="a" #><#= x + y #>`, nil,
			WithReference("a", "reference \"b\"\nlet x = y * 10"),
			WithReference("b", "let y = 4"))
		if got != "44" {
			t.Errorf("Render() = %q", got)
		}
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()

		err := os.WriteFile(filepath.Join(dir, "lib.ttc"), []byte(`let greeting = "hey"`), 0o600)
		if err != nil {
			t.Fatal(err)
		}

		got := mustRender(t, `<#@ assembly name="lib.ttc" #><#= greeting #>`, nil,
			WithBaseDir(dir))
		if got != "hey" {
			t.Errorf("Render() = %q", got)
		}
	})

	t.Run("missing lenient", func(t *testing.T) {
		got := mustRender(t, `<#@ assembly name="nope" #>ok`, nil,
			WithBaseDir(t.TempDir()))
		if got != "ok" {
			t.Errorf("Render() = %q", got)
		}
	})

	t.Run("missing strict", func(t *testing.T) {
		_, err := render(t, `<#@ assembly name="nope" #>ok`, nil,
			WithBaseDir(t.TempDir()), WithStrict(true))
		if !errors.Is(err, ErrReferenceNotFound) {
			t.Errorf("error = %v, want ErrReferenceNotFound", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := render(t, `<#@ assembly name="a" #>`, nil,
			WithReference("a", `reference "b"`),
			WithReference("b", `reference "a"`))
		if !errors.Is(err, ErrReferenceCycle) {
			t.Errorf("error = %v, want ErrReferenceCycle", err)
		}
	})

	t.Run("body", func(t *testing.T) {
		_, err := render(t, `<#@ assembly name="a" #>`, nil,
			WithReference("a", "begin\nend"))
		if !errors.Is(err, ErrReferenceBody) {
			t.Errorf("error = %v, want ErrReferenceBody", err)
		}
	})
}

func TestEvaluate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New().Evaluate(ctx, "begin\nwrite(1)\nend", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	if !errors.Is(err, ErrCanceled) {
		t.Errorf("error = %v, want ErrCanceled", err)
	}
}

func TestEvaluate_ParamsNotMutated(t *testing.T) {
	params := tmpl.Params{"x": 1}

	out, err := New().Evaluate(t.Context(), "begin\nlet x = 2\nwrite(x)\nend", params)
	if err != nil {
		t.Fatal(err)
	}

	if out != "2" {
		t.Errorf("output = %q", out)
	}

	if params["x"] != 1 {
		t.Errorf("params mutated: %v", params)
	}
}

func TestEvaluator_Check(t *testing.T) {
	ev := New(WithStrict(true))

	if err := ev.Check(t.Context(), "import \"path\"\nbegin\nwrite(nosuch)\nend"); err != nil {
		t.Errorf("Check() error: %v", err)
	}

	if err := ev.Check(t.Context(), "import \"nope\"\nbegin\nend"); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("Check() error = %v, want ErrUnknownModule", err)
	}
}

func TestEvaluator_Concurrent(t *testing.T) {
	tp, err := tmpl.Parse(t.Context(),
		"<#+ def greet who : \"Hello \" + who #><#= greet(Name) #>",
		tmpl.WithEvaluator(New()))
	if err != nil {
		t.Fatal(err)
	}

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup

	for _, name := range names {
		wg.Go(func() {
			for range 10 {
				out, err := tp.Render(t.Context(), tmpl.Params{"Name": name})
				if err != nil {
					t.Error(err)

					return
				}

				if out != "Hello "+name {
					t.Errorf("Render(%s) = %q", name, out)

					return
				}
			}
		})
	}

	wg.Wait()
}

func TestModuleIntrospection(t *testing.T) {
	names := ModuleNames()

	want := []string{"file", "mung", "path", "sys", "text", "yaml"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("ModuleNames() = %v, want %v", names, want)
	}

	members := ModuleMembers("sys")
	if len(members) == 0 || members[1] != "env" {
		t.Errorf("ModuleMembers(sys) = %v", members)
	}

	if ModuleMembers("nope") != nil {
		t.Error("ModuleMembers(nope) should be nil")
	}

	if v, ok := ModuleMember("path", "base"); !ok || v == nil {
		t.Errorf("ModuleMember(path, base) = %v, %v", v, ok)
	}

	if _, ok := ModuleMember("path", "nope"); ok {
		t.Error("ModuleMember(path, nope) should not exist")
	}

	if _, ok := ModuleMember("nope", "base"); ok {
		t.Error("ModuleMember(nope, base) should not exist")
	}
}
