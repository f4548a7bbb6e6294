package repl

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/params"
	"github.com/ardnew/ttc/script"
	"github.com/ardnew/ttc/tmpl"
)

func newTestSession(p tmpl.Params) *session {
	return newSession(p, script.New(), log.Logger{})
}

func TestSession_Render(t *testing.T) {
	tests := []struct {
		name     string
		params   tmpl.Params
		fragment string
		want     string
	}{
		{"text only", nil, "plain", "plain"},
		{"expression", tmpl.Params{"name": "Ada"}, "Hello <#= name #>!", "Hello Ada!"},
		{"nested", tmpl.Params{"site": map[string]any{"title": "Docs"}}, "<#= site.title #>", "Docs"},
		{"module", nil, `<#= path.ext("a.md") #>`, ".md"},
		{"loop", nil, "<# for i in 3 #><#= i #><# end #>", "012"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(tt.params)

			got, err := s.render(t.Context(), tt.fragment)
			if err != nil {
				t.Fatalf("render() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("render() = %q, want %q", got, tt.want)
			}

			if s.text != tt.fragment {
				t.Errorf("text = %q, want %q", s.text, tt.fragment)
			}
		})
	}
}

func TestSession_RenderErrors(t *testing.T) {
	s := newTestSession(nil)

	if _, err := s.render(t.Context(), "<#= nosuch #>"); err == nil {
		t.Error("render(unknown name) should fail")
	}

	if s.last == nil {
		t.Error("a fragment that parses should become the last template")
	}

	if _, err := s.render(t.Context(), "<#= open"); err == nil {
		t.Error("render(unterminated block) should fail")
	}
}

func TestSession_SetUnset(t *testing.T) {
	s := newTestSession(nil)

	if err := s.set("site.title=Docs"); err != nil {
		t.Fatalf("set() error = %v", err)
	}

	if err := s.set("count=3"); err != nil {
		t.Fatalf("set() error = %v", err)
	}

	got, err := s.render(t.Context(), "<#= site.title #>:<#= count + 1 #>")
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}

	if got != "Docs:4" {
		t.Errorf("render() = %q, want %q", got, "Docs:4")
	}

	if keys := params.Keys(s.params); !slices.Equal(keys, []string{"count", "site.title"}) {
		t.Errorf("Keys() = %v", keys)
	}

	if ok, err := s.unset("site.title"); err != nil || !ok {
		t.Errorf("unset(site.title) = %v, %v", ok, err)
	}

	if ok, _ := s.unset("site.title"); ok {
		t.Error("second unset should report not bound")
	}

	if err := s.set(""); !errors.Is(err, ErrMissingArg) {
		t.Errorf("set(\"\") error = %v, want %v", err, ErrMissingArg)
	}

	if err := s.set("=x"); !errors.Is(err, params.ErrMalformed) {
		t.Errorf("set(=x) error = %v, want %v", err, params.ErrMalformed)
	}

	if _, err := s.unset(""); !errors.Is(err, ErrMissingArg) {
		t.Errorf("unset(\"\") error = %v, want %v", err, ErrMissingArg)
	}
}

func TestSession_Dump(t *testing.T) {
	s := newTestSession(nil)

	if got, err := s.dump(); err != nil || got != "" {
		t.Errorf("dump() of empty params = %q, %v", got, err)
	}

	_ = s.set("count=3")
	_ = s.set("site.title=Docs")

	got, err := s.dump()
	if err != nil {
		t.Fatalf("dump() error = %v", err)
	}

	for _, want := range []string{"count: 3", "site:", "  title: Docs"} {
		if !strings.Contains(got, want) {
			t.Errorf("dump() = %q, missing %q", got, want)
		}
	}
}

func TestSession_Generated(t *testing.T) {
	s := newTestSession(nil)

	if _, err := s.generated(); !errors.Is(err, ErrNothingToShow) {
		t.Errorf("generated() error = %v, want %v", err, ErrNothingToShow)
	}

	if _, err := s.render(t.Context(), "a<#= 1 #>"); err != nil {
		t.Fatal(err)
	}

	got, err := s.generated()
	if err != nil {
		t.Fatalf("generated() error = %v", err)
	}

	if got != s.last.Source() || got == "" {
		t.Errorf("generated() = %q", got)
	}
}

func TestSession_Command(t *testing.T) {
	s := newTestSession(tmpl.Params{"name": "Ada"})

	tests := []struct {
		name    string
		cmd     string
		arg     string
		want    string
		wantErr error
	}{
		{name: "help", cmd: "help", want: "set K=V"},
		{name: "params", cmd: "params", want: "name: Ada"},
		{name: "set", cmd: "set", arg: "x=1"},
		{name: "unset missing", cmd: "unset", arg: "nope", want: "not bound: nope"},
		{name: "gen before render", cmd: "gen", wantErr: ErrNothingToShow},
		{name: "quit", cmd: "quit"},
		{name: "unknown", cmd: "frobnicate", wantErr: ErrUnknownCmd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.command(tt.cmd, tt.arg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("command() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("command() error = %v", err)
			}

			if !strings.Contains(got, tt.want) {
				t.Errorf("command() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
