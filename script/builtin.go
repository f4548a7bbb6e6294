package script

// This file defines the builtin modules available to every script. Each
// module is a map of members reachable by qualified name (path.cat) and
// flattened into unqualified scope by import. The module table is lazily
// initialized once per process and cloned on every use, so callers may
// mutate the result without affecting the shared cache.

import (
	"bufio"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/goccy/go-yaml"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Private singleton cache.
//
//nolint:gochecknoglobals
var (
	moduleCacheOnce sync.Once
	moduleCache     map[string]map[string]any
)

func makeModuleCache() map[string]map[string]any {
	moduleCacheOnce.Do(func() {
		moduleCache = map[string]map[string]any{
			"sys": {
				"target":   getTarget(),
				"platform": getPlatform(),
				"hostname": getHostname(),
				"user":     getUser(),
				"shell":    getShell(),
				"cwd":      getCwd,
			},
			"path": {
				"abs":  pathAbs,
				"cat":  pathCat,
				"rel":  pathRel,
				"base": filepath.Base,
				"dir":  filepath.Dir,
				"ext":  filepath.Ext,
			},
			"file": {
				"exists":    fileExists,
				"isDir":     fileIsDir,
				"isRegular": fileIsRegular,
				"isSymlink": fileIsSymlink,
				"read":      fileRead,
			},
			"text": {
				"title":   textTitle,
				"indent":  textIndent,
				"quote":   strconv.Quote,
				"unquote": textUnquote,
				"lines":   textLines,
			},
			"mung": {
				"prefix":   mungPrefix,
				"prefixif": mungPrefixIf,
			},
			"yaml": {
				"encode": yamlEncode,
				"decode": yamlDecode,
			},
		}
	})

	mods := make(map[string]map[string]any, len(moduleCache))
	for name, members := range moduleCache {
		mods[name] = maps.Clone(members)
	}

	return mods
}

// modules returns a fresh copy of the builtin modules with the sys module
// bound to the given process environment.
func modules(processEnv map[string]string) map[string]map[string]any {
	mods := makeModuleCache()
	mods["sys"]["env"] = envFunc(processEnv)

	return mods
}

// ModuleNames returns the names of the builtin modules in sorted order.
func ModuleNames() []string {
	return slices.Sorted(maps.Keys(makeModuleCache()))
}

// ModuleMembers returns the member names of the named builtin module in
// sorted order, or nil if there is no such module.
func ModuleMembers(name string) []string {
	members, ok := modules(nil)[name]
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(members))
}

// ModuleMember returns the value of a member of a builtin module, for
// introspection such as signature hints.
func ModuleMember(module, name string) (any, bool) {
	members, ok := modules(nil)[module]
	if !ok {
		return nil, false
	}

	v, ok := members[name]

	return v, ok
}

// ---------------------------------------------------------------------------
// System information helpers
// ---------------------------------------------------------------------------

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

func (t target) String() string { return t.Arch + "-" + t.OS }

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		arm, ok := os.LookupEnv("GOARM")
		if ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch strings.TrimSpace(arm) {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
func getPlatform() target {
	var (
		o, a string
		ok   bool
	)

	if o, ok = os.LookupEnv("GOHOSTOS"); !ok {
		if o, ok = os.LookupEnv("GOOS"); !ok {
			o = runtime.GOOS
		}
	}

	if a, ok = os.LookupEnv("GOHOSTARCH"); !ok {
		if a, ok = os.LookupEnv("GOARCH"); !ok {
			a = runtime.GOARCH
		}
	}

	return target{OS: o, Arch: a}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUser() *user.User {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return u
}

func getShell() string {
	shell, ok := os.LookupEnv("SHELL")
	if ok {
		return shell
	}

	u := getUser()
	if u == nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

// ---------------------------------------------------------------------------
// Filesystem
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeSymlink != 0
}

func fileRead(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

func textTitle(s string) string {
	return cases.Title(language.Und).String(s)
}

// textIndent prefixes every non-empty line of s with prefix.
func textIndent(prefix, s string) string {
	lines := strings.SplitAfter(s, "\n")

	var sb strings.Builder

	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			sb.WriteString(prefix)
		}

		sb.WriteString(line)
	}

	return sb.String()
}

func textUnquote(s string) (string, error) {
	return strconv.Unquote(s)
}

func textLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}

	return strings.Split(s, "\n")
}

// ---------------------------------------------------------------------------
// PATH-like string manipulation (mung)
// ---------------------------------------------------------------------------

func mungPrefix(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// mungPrefixIf prefixes key with each prefix that names a directory.
func mungPrefixIf(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(fileIsDir),
	).String()
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

func yamlEncode(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func yamlDecode(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}

	return v, nil
}

// ---------------------------------------------------------------------------
// Process environment
// ---------------------------------------------------------------------------

// buildProcessEnvMap converts a "KEY=VALUE" string slice to a map.
// If envList is nil, os.Environ() is used.
func buildProcessEnvMap(envList []string) map[string]string {
	if envList == nil {
		envList = os.Environ()
	}

	result := make(map[string]string, len(envList))

	for _, entry := range envList {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			result[key] = value
		}
	}

	return result
}

func envFunc(processEnv map[string]string) func(string) string {
	return func(key string) string {
		return processEnv[key]
	}
}
