// Package cli contains the command line interface for ttc.
//
// # Usage
//
//	ttc [flags] [render] <template> [-D key=value ...] [-p params.yaml ...]
//	ttc gen <template>
//	ttc parse [-F tree|json|yaml] <template>
//	ttc repl [-D key=value ...]
//	ttc init [--force]
//
// render is the default command, so "ttc page.tt" renders page.tt to
// standard output. A template path of "-" reads standard input.
//
// # Configuration
//
// Global flags may be set in config.yaml (or config.json) in the user
// configuration directory, for example ~/.config/ttc/config.yaml:
//
//	log-level: debug
//	log:
//	  pretty: false
//
// "ttc init" writes the current values of the global flags to that file.
// Command-line flags override configuration values.
//
// # Logging Options
//
//   - --log-level: trace, debug, info, warn or error
//   - --log-format: text or json
//   - --log-time-layout: a Go time layout, a name such as kitchen, or none
//   - --[no-]log-caller: include caller information
//   - --[no-]log-pretty: colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: allocs, block, clock, cpu, goroutine, heap, mem, mutex,
//     thread or trace
//   - --pprof-dir: profile output directory (default ~/.cache/ttc/pprof)
package cli
