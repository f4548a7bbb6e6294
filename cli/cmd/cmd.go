package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/tmpl"
)

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer kong was configured with, or [os.Stdout].
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// modelVar returns the kong variable named key, if any.
func modelVar(ctx context.Context, key string) (string, bool) {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return "", false
	}

	v, ok := ktx.Model.Vars()[key]

	return v, ok
}

// stdinSource names standard input wherever a template path is accepted.
const stdinSource = "-"

// loadTemplate parses the template at path, or standard input for "-".
func loadTemplate(ctx context.Context, path string, opts ...tmpl.Option) (*tmpl.Template, error) {
	var r io.Reader = os.Stdin

	if path != stdinSource {
		f, err := os.Open(path)
		if err != nil {
			return nil, ErrOpenTemplate.Wrap(err).With(slog.String("path", path))
		}
		defer f.Close()

		r = f
	}

	opts = append([]tmpl.Option{tmpl.WithLogger(log.Default())}, opts...)

	return tmpl.ParseReader(ctx, r, opts...)
}

// fileKey uniquely identifies a file by its device and inode numbers.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueFiles returns paths with duplicates removed, keeping the last
// occurrence of each file so that its position in a merge order wins.
// Symlinks and relative paths that resolve to the same file are duplicates.
// Paths that cannot be resolved are kept so that opening them reports the
// error.
func uniqueFiles(paths []string) []string {
	keys := make([]*fileKey, len(paths))
	last := make(map[fileKey]int, len(paths))

	for i, path := range paths {
		key, ok := resolveFileKey(path)
		if !ok {
			continue
		}

		keys[i] = &key
		last[key] = i
	}

	out := make([]string, 0, len(paths))

	for i, path := range paths {
		if keys[i] != nil && last[*keys[i]] != i {
			continue
		}

		out = append(out, path)
	}

	return out
}

func resolveFileKey(path string) (fileKey, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
