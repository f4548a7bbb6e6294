package tmpl

import (
	"strconv"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Template {
	t.Helper()

	tp, err := Parse(t.Context(), src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}

	return tp
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "begin\n    return\nend\n",
		},
		{
			name:  "plain_text",
			input: "Line one\nLine two",
			want: "begin\n" +
				"    write(\"Line one\\n\")\n" +
				"    write(\"Line two\")\n" +
				"    return\nend\n",
		},
		{
			name:  "expression",
			input: "Hello <#= Name #>!",
			want: "begin\n" +
				"    write(\"Hello \")\n" +
				"    write( Name )\n" +
				"    write(\"!\")\n" +
				"    return\nend\n",
		},
		{
			name:  "directives_hoisted",
			input: "a<#@ import namespace=\"X\" #>b<#@ assembly name=\"L\" #>",
			want: "import \"X\"\n" +
				"reference \"L\"\n" +
				"begin\n" +
				"    write(\"a\")\n" +
				"    write(\"b\")\n" +
				"    return\nend\n",
		},
		{
			name:  "output_directive_emits_nothing",
			input: "<#@ output extension=\".txt\" #>x",
			want:  "begin\n    write(\"x\")\n    return\nend\n",
		},
		{
			name:  "standard_verbatim",
			input: "<# if x #>y<# end #>",
			want: "begin\n" +
				" if x \n" +
				"    write(\"y\")\n" +
				" end \n" +
				"    return\nend\n",
		},
		{
			name:  "expression_line_comment",
			input: "<#= 1 // one #>",
			want: "begin\n" +
				"    write( 1 // one \n" +
				"    )\n" +
				"    return\nend\n",
		},
		{
			name:  "class_feature_verbatim",
			input: "<#+ def twice n : n * 2 #><#= twice(2) #>",
			want: "begin\n" +
				" def twice n : n * 2 \n" +
				"    write( twice(2) )\n" +
				"    return\nend\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustParse(t, tt.input).Source()
			if got != tt.want {
				t.Errorf("generated source mismatch\ngot:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestGenerate_DirectivesPrecedeBody(t *testing.T) {
	src := "one\n<#@ import namespace=\"A\" #>two\n<#@ import namespace=\"B\" #>" +
		"<#@ assembly name=\"C\" #>three"

	lines := strings.Split(mustParse(t, src).Source(), "\n")

	want := []string{`import "A"`, `import "B"`, `reference "C"`, "begin"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}

	for _, line := range lines[len(want):] {
		if strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "reference ") {
			t.Errorf("directive statement %q found in body", line)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	src := "<#@ import namespace=\"path\" #>Hi <#= name #>\n<# for x in xs #><#= x #><# end #>"
	tp := mustParse(t, src)

	first := Generate(tp.Blocks())
	for range 10 {
		if got := Generate(tp.Blocks()); got != first {
			t.Fatalf("Generate not deterministic:\n%s\n---\n%s", first, got)
		}
	}

	if first != tp.Source() {
		t.Errorf("Source() differs from Generate(Blocks())")
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", `""`},
		{"plain", `"plain"`},
		{"tab\there", `"tab\there"`},
		{"cr\rlf\n", `"cr\rlf\n"`},
		{`say "hi"`, `"say \"hi\""`},
		{`C:\path`, `"C:\\path"`},
		{"héllo ✓", `"héllo ✓"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Quote(tt.input); got != tt.want {
				t.Errorf("Quote(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestQuote_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"a\\b\"c\rd\ne\tf",
		"\\\\\"\"\n\n",
		"mixed ünïcödé\ttext\r\n",
		`\n is not a newline`,
	}

	for _, s := range inputs {
		got, err := strconv.Unquote(Quote(s))
		if err != nil {
			t.Fatalf("Unquote(Quote(%q)) error: %v", s, err)
		}

		if got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}
