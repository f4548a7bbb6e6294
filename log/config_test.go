package log

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, "trace"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LevelTrace + 2, "trace+2"},
		{LevelInfo + 1, "info+1"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info+2", LevelInfo + 2},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{" JSON ", FormatJSON},
		{"text", FormatText},
		{"xml", DefaultFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseFormat(tt.in); got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelsAndFormats(t *testing.T) {
	levels := slices.Collect(Levels())
	if want := []string{"trace", "debug", "info", "warn", "error"}; !slices.Equal(levels, want) {
		t.Errorf("Levels() = %v, want %v", levels, want)
	}

	formats := slices.Collect(Formats())
	if want := []string{"text", "json"}; !slices.Equal(formats, want) {
		t.Errorf("Formats() = %v, want %v", formats, want)
	}
}

func TestConfig_Options(t *testing.T) {
	c := makeConfig(nil,
		WithLevel(LevelWarn),
		WithFormat(FormatJSON),
		WithCaller(true),
		WithPretty(false))

	if c.level != LevelWarn {
		t.Errorf("level = %v, want %v", c.level, LevelWarn)
	}
	if c.format != FormatJSON {
		t.Errorf("format = %v, want %v", c.format, FormatJSON)
	}
	if !c.caller {
		t.Error("caller not enabled")
	}
	if c.pretty {
		t.Error("pretty not disabled")
	}
	if c.output == nil {
		t.Error("nil writer not replaced")
	}
}

func TestConfig_OptionsDoNotMutate(t *testing.T) {
	base := makeConfig(nil)
	derived := apply(base, WithLevel(LevelError))

	if base.level != DefaultLevel {
		t.Errorf("base level changed to %v", base.level)
	}
	if derived.level != LevelError {
		t.Errorf("derived level = %v, want %v", derived.level, LevelError)
	}
}

func TestConfig_formatTime(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		name   string
		layout string
		want   string
	}{
		{"rfc3339", "RFC3339", "2023-10-15T14:30:45Z"},
		{"rfc3339 nano", "rfc3339-nano", "2023-10-15T14:30:45.123456789Z"},
		{"kitchen", "Kitchen", "2:30PM"},
		{"datetime", "DateTime", "2023-10-15 14:30:45"},
		{"custom", "2006/01/02", "2023/10/15"},
		{"none", "none", ""},
		{"empty", "", ""},
		{"whitespace", "   \t  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := WithTimeLayout(tt.layout)(config{})
			if got := c.formatTime(now); got != tt.want {
				t.Errorf("formatTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_formatTime_CustomLayoutVerbatim(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 0, time.UTC)
	c := WithTimeLayout("   2006-01-02")(config{})

	if got := c.formatTime(now); !strings.HasPrefix(got, "   2023") {
		t.Errorf("formatTime() = %q, want leading whitespace kept", got)
	}
}

func BenchmarkConfig_formatTime(b *testing.B) {
	c := WithTimeLayout("RFC3339Nano")(config{})
	now := time.Now()

	for b.Loop() {
		_ = c.formatTime(now)
	}
}
