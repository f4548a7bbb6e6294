package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ttc/log"
)

// logFormat configures the logger format as a side effect of parsing via
// encoding.TextUnmarshaler, so it applies to errors reported during parsing.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing via
// encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevelDefault}"  enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"${logFormatDefault}" enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"${logTimeDefault}"                           help:"Set timestamp layout (a Go layout, a name like kitchen, or none)."`
	Caller     bool      `default:"false"                                       help:"Include caller information."                                       negatable:""`
	Pretty     bool      `default:"true"                                        help:"Enable colorized pretty printing."                                 negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelDefault":  log.DefaultLevel.String(),
		"logLevelEnum":     strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatDefault": log.DefaultFormat.String(),
		"logFormatEnum":    strings.Join(slices.Collect(log.Formats()), ","),
		"logTimeDefault":   "RFC3339",
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// start applies the parsed logger settings, including those that have no
// TextUnmarshaler hook.
func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan makes an early pass over the command line and applies logger flags
// before kong begins parsing, so the logger is configured regardless of
// where the flags appear. Boolean flags have no TextUnmarshaler hook and are
// only applied here until [logConfig.start].
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		name, value, assigned := strings.Cut(args[i], "=")

		// next consumes the following argument as the value of a non-boolean
		// flag given without "=".
		next := func() string {
			if !assigned && i+1 < len(args) && args[i+1] != "" && args[i+1][0] != '-' {
				i++

				return args[i]
			}

			return value
		}

		// flag parses a boolean flag value; a bare flag is true.
		flag := func() (bool, bool) {
			if !assigned {
				return true, true
			}

			v, err := strconv.ParseBool(value)

			return v, err == nil
		}

		switch name {
		case "--":
			return

		case "--log-level":
			_ = f.Level.UnmarshalText([]byte(next()))

		case "--log-format":
			_ = f.Format.UnmarshalText([]byte(next()))

		case "--log-pretty", "--no-log-pretty":
			if v, ok := flag(); ok {
				f.Pretty = v == (name == "--log-pretty")
				log.Config(log.WithPretty(f.Pretty))
			}

		case "--log-caller", "--no-log-caller":
			if v, ok := flag(); ok {
				f.Caller = v == (name == "--log-caller")
				log.Config(log.WithCaller(f.Caller))
			}
		}
	}
}
