package cli

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ttc/cli/cmd"
	"github.com/ardnew/ttc/pkg"
)

// CLI is the top-level command-line interface for ttc.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a template"`
	Gen    cmd.Gen    `cmd:""                    help:"Print the script generated from a template"`
	Parse  cmd.Parse  `cmd:""                    help:"Print the block structure of a template"`
	Repl   cmd.Repl   `cmd:""                    help:"Render template fragments interactively"`
	Init   cmd.Init   `cmd:""                    help:"Write current settings to the configuration file"`
}

// Run executes the ttc CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	return run(ctx, exit, os.Stdout, os.Stderr, args)
}

func run(
	ctx context.Context,
	exit func(code int),
	stdout, stderr io.Writer,
	args []string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	yamlPath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: yamlPath,
		cmd.CacheIdentifier:  cacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Apply logger flags before kong parses, so parse errors are logged
	// with the requested settings wherever the flags appear.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdout, stderr),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(yamlPath), yamlPath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// The singleton provider above reads ctx when a command first asks for
	// it, so commands receive this context.
	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}
