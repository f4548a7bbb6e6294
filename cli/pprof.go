package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"${pprofModeHelp}" placeholder:"${enum}"`
	Dir  string `default:"${pprofDir}"                          help:"Profile output directory"           type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	help := "Enable profiling"
	if !profile.Enabled {
		help += " (requires build tag " + profile.Tag + ")"
	}

	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofModeHelp": help,
		"pprofDir":      filepath.Join(cacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Profiling (pprof)"}
}

// start starts profiling if a mode was selected and returns the function
// that stops it.
func (f pprofConfig) start(ctx context.Context) (stop func()) {
	if f.Mode == "" {
		return func() {}
	}

	log.DebugContext(ctx, "pprof start",
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
	)

	p := profile.Make(
		profile.WithMode(f.Mode),
		profile.WithPath(f.Dir),
		profile.WithQuiet(true),
	).Start()

	return func() {
		p.Stop()

		log.DebugContext(ctx, "pprof stop",
			slog.String("mode", f.Mode),
			slog.String("dir", f.Dir),
		)
	}
}
