// Package log wraps [log/slog] with a small set of levels, formats, and
// functional options.
//
// A [Logger] is an immutable value. Options are applied when it is created
// with [Make] or derived with [Logger.Wrap]; nothing is reconfigured in place,
// so a Logger may be shared freely between goroutines. The zero Logger
// discards everything.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("kitchen"),
//		log.WithCaller(true))
//
//	logger.Info("rendered", slog.String("template", name))
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-expression detail
// such as program cache hits. Level names print in upper case ("TRACE", not
// "DEBUG-4") in every format.
//
// # Formats
//
// [FormatText] is the default. When pretty output is enabled (the default)
// text records are styled with lipgloss; styling is dropped when the output
// is not a terminal. [FormatJSON] emits one object per line.
//
// # Package logger
//
// The package-level functions ([Info], [Warn], ...) write through [Default],
// which logs to standard error until replaced with [Config].
package log
