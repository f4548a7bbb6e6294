package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	logger := Make(&bytes.Buffer{})

	if got := logger.Level(); got != DefaultLevel {
		t.Errorf("Level() = %v, want %v", got, DefaultLevel)
	}
	if got := logger.Format(); got != DefaultFormat {
		t.Errorf("Format() = %v, want %v", got, DefaultFormat)
	}
	if logger.caller != DefaultCaller {
		t.Errorf("caller = %v, want %v", logger.caller, DefaultCaller)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(Logger, string, ...slog.Attr)
		minLevel Level
		logged   bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"error at debug", Logger.Error, LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(Make(&buf, WithLevel(tt.minLevel)), "message")

			if logged := buf.Len() > 0; logged != tt.logged {
				t.Errorf("logged = %v, want %v (%q)", logged, tt.logged, buf.String())
			}
		})
	}
}

func TestLogger_LevelNames(t *testing.T) {
	tests := []struct {
		logFunc func(Logger, string, ...slog.Attr)
		want    string
	}{
		{Logger.Trace, "TRACE"},
		{Logger.Debug, "DEBUG"},
		{Logger.Info, "INFO"},
		{Logger.Warn, "WARN"},
		{Logger.Error, "ERROR"},
	}

	for _, format := range []Format{FormatText, FormatJSON} {
		for _, pretty := range []bool{true, false} {
			for _, tt := range tests {
				name := format.String() + "/" + tt.want
				if pretty {
					name += "/pretty"
				}

				t.Run(name, func(t *testing.T) {
					var buf bytes.Buffer
					logger := Make(&buf,
						WithLevel(LevelTrace),
						WithFormat(format),
						WithPretty(pretty))

					tt.logFunc(logger, "message")

					if !strings.Contains(buf.String(), tt.want) {
						t.Errorf("output %q does not contain %q", buf.String(), tt.want)
					}
					if strings.Contains(buf.String(), "DEBUG-4") {
						t.Errorf("output %q contains raw slog level", buf.String())
					}
				})
			}
		}
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none"))
	logger.Info("rendered", slog.String("template", "a.tt"), slog.Int("bytes", 12))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}

	if entry["msg"] != "rendered" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["template"] != "a.tt" {
		t.Errorf("template = %v", entry["template"])
	}
	if entry["bytes"] != float64(12) {
		t.Errorf("bytes = %v", entry["bytes"])
	}
	if _, ok := entry["time"]; ok {
		t.Errorf("time present with layout none: %v", entry)
	}
}

func TestLogger_PlainText(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithPretty(false))
	logger.Info("test message", slog.String("key", "value"))

	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("output %q does not contain key=value", buf.String())
	}
}

func TestLogger_Caller(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		source string
	}{
		{"json", []Option{WithFormat(FormatJSON)}, `"source"`},
		{"pretty", []Option{WithPretty(true)}, "log_test.go:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Make(&buf, append(tt.opts, WithCaller(true))...).Info("with caller")

			if !strings.Contains(buf.String(), tt.source) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.source)
			}

			buf.Reset()
			Make(&buf, append(tt.opts, WithCaller(false))...).Info("without caller")

			if strings.Contains(buf.String(), tt.source) {
				t.Errorf("output %q contains %q", buf.String(), tt.source)
			}
		})
	}
}

func TestLogger_Wrap(t *testing.T) {
	var buf bytes.Buffer
	base := Make(&buf, WithLevel(LevelError))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelError {
		t.Errorf("base level = %v, want %v", base.Level(), LevelError)
	}

	wrapped.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("wrapped logger did not write to base output: %q", buf.String())
	}

	var zero Logger

	buf.Reset()
	zero.Wrap(WithOutput(&buf)).Info("from zero")

	if !strings.Contains(buf.String(), "from zero") {
		t.Errorf("zero logger Wrap did not apply defaults: %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON)).With(slog.String("key", "value"))
	logger.Info("test message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}

	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("test")
	l.Debug("test")
	l.Info("test")
	l.Warn("test")
	l.Error("test")
	l.InfoContext(t.Context(), "test")

	if l.With(slog.String("key", "value")).Logger != nil {
		t.Error("With on zero Logger produced a handler")
	}
	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}
}

func TestLogger_ContextMethods(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(Logger)
	}{
		{"trace", func(l Logger) { l.TraceContext(t.Context(), "ctx message") }},
		{"debug", func(l Logger) { l.DebugContext(t.Context(), "ctx message") }},
		{"info", func(l Logger) { l.InfoContext(t.Context(), "ctx message") }},
		{"warn", func(l Logger) { l.WarnContext(t.Context(), "ctx message") }},
		{"error", func(l Logger) { l.ErrorContext(t.Context(), "ctx message") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(Make(&buf, WithLevel(LevelTrace)))

			if !strings.Contains(buf.String(), "ctx message") {
				t.Errorf("%s message not logged", tt.name)
			}
		})
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON))

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			logger.Info("concurrent message", slog.Int("id", i))
		})
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 100 {
		t.Errorf("expected 100 log lines, got %d", len(lines))
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := Make(&buf, WithPretty(false))

	for b.Loop() {
		buf.Reset()
		logger.Info("benchmark message", slog.Int("iteration", 1))
	}
}

func BenchmarkLogger_Info_Pretty(b *testing.B) {
	var buf bytes.Buffer
	logger := Make(&buf, WithCaller(true))

	for b.Loop() {
		buf.Reset()
		logger.Info("benchmark message", slog.Int("iteration", 1))
	}
}
