// Package cmd implements the ttc subcommands.
//
// Each command is a kong command struct with a Run(context.Context) method.
// The CLI stores the parsed [kong.Context] in the context with
// [WithContext] so commands can reach the model's variables and writers.
package cmd

var (
	// CacheIdentifier is the kong variable holding the runtime cache
	// directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path of the YAML
	// configuration file.
	ConfigIdentifier = "config"
)
