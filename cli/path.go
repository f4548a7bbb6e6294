package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/ttc/pkg"
)

// baseConfig is the base name of the configuration files.
const baseConfig = "config"

const defaultDirMode os.FileMode = 0o700

// exeRename rewrites executable names that make poor directory names.
var exeRename = []struct {
	rex *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`^__debug_bin\d*$`), pkg.Name}, // dlv default output
	{regexp.MustCompile(`^\.+`), ""},                  // leading dots
}

// basePrefix is the name of the per-user configuration and cache
// directories: the executable's base name without extension, after
// [exeRename], or [pkg.Name] if nothing is left.
var basePrefix = sync.OnceValue(func() string {
	id := os.Args[0]
	if exe, err := os.Executable(); err == nil {
		id = exe
	}

	id = filepath.Base(id)
	id = strings.TrimSuffix(id, filepath.Ext(id))

	for _, r := range exeRename {
		id = r.rex.ReplaceAllString(id, r.rep)
	}

	if id == "" {
		return pkg.Name
	}

	return id
})

// userDir returns the per-user directory from userDir, falling back to
// ~/hidden and finally the working directory.
func userDir(user func() (string, error), hidden string) string {
	dir, err := user()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

var (
	configDir = sync.OnceValue(func() string { return userDir(os.UserConfigDir, ".config") })
	cacheDir  = sync.OnceValue(func() string { return userDir(os.UserCacheDir, ".cache") })
)

// configPath joins elem onto the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
