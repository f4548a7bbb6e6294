package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/ttc/log"
)

func TestMain(m *testing.M) {
	root, err := os.MkdirTemp("", "ttc-cli-test-*")
	if err != nil {
		panic(err)
	}

	// The configuration and cache directories are resolved once per process.
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))

	code := m.Run()

	os.RemoveAll(root)
	os.Exit(code)
}

// runArgs runs the CLI and returns its standard output.
func runArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	err := run(t.Context(), func(int) {}, &out, io.Discard, args)

	return out.String(), err
}

// keepLogger restores the package-level logger after a test reconfigures it.
func keepLogger(t *testing.T) {
	t.Helper()

	saved := log.Default()

	t.Cleanup(func() {
		log.Config(
			log.WithOutput(os.Stderr),
			log.WithLevel(saved.Level()),
			log.WithFormat(saved.Format()),
		)
	})
}

func TestRun_Render(t *testing.T) {
	keepLogger(t)

	page := filepath.Join(t.TempDir(), "page.tt")
	if err := os.WriteFile(page, []byte("<# let n = 3 #>n=<#= n #>"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := runArgs(t, "--log-level", "error", page)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	if got != "n=3" {
		t.Errorf("output = %q, want %q", got, "n=3")
	}
}

func TestRun_ConfigFile(t *testing.T) {
	keepLogger(t)

	conf := configPath(baseConfig + ".yaml")

	t.Cleanup(func() { os.Remove(conf) })

	if _, err := runArgs(t, "--log-format", "json", "init", "--force"); err != nil {
		t.Fatalf("init error = %v", err)
	}

	data, err := os.ReadFile(conf)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}

	for _, want := range []string{"log-format: json", "log-level: info"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config %q missing %q", data, want)
		}
	}

	if strings.Contains(string(data), "pprof") {
		t.Errorf("config %q should omit profiling flags", data)
	}

	// The written file is read back on the next run.
	if _, err := runArgs(t, "init", "--force"); err != nil {
		t.Fatalf("second init error = %v", err)
	}

	if log.Default().Format() != log.FormatJSON {
		t.Errorf("format from config = %v, want json", log.Default().Format())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	keepLogger(t)

	if _, err := runArgs(t, "render", "--no-such-flag"); err == nil {
		t.Error("unknown flag should fail")
	}
}

func TestBasePrefix(t *testing.T) {
	if p := basePrefix(); p == "" || strings.HasPrefix(p, ".") || strings.Contains(p, string(filepath.Separator)) {
		t.Errorf("basePrefix() = %q", p)
	}

	if !strings.HasSuffix(configDir(), basePrefix()) || !strings.HasSuffix(cacheDir(), basePrefix()) {
		t.Errorf("configDir() = %q, cacheDir() = %q", configDir(), cacheDir())
	}
}
