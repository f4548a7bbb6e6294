// Package profile starts runtime profiling with [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	ttc --pprof-mode cpu render page.tt
//
// Without the tag [Modes] is empty and [Profiler.Start] always returns a
// no-op, so callers never need their own build constraints.
//
// Profiles are written to [Profiler.Path] (one file per mode, for example
// cpu.pprof) and can be inspected with:
//
//	go tool pprof -http=: ~/.cache/ttc/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
