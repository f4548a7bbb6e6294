package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/ttc/cli/cmd/repl"
	"github.com/ardnew/ttc/log"
)

// Repl starts an interactive session that renders each input line as a
// template fragment.
type Repl struct {
	Eval evalFlags `embed:""`

	History   string `help:"History file (default: ${cache}/repl.history)." placeholder:"FILE" type:"path"`
	NoHistory bool   `help:"Do not read or write a history file."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	p, err := r.Eval.bindings(ctx)
	if err != nil {
		return err
	}

	return repl.Run(ctx, repl.Config{
		Params:      p,
		Evaluator:   r.Eval.evaluator(""),
		HistoryPath: r.historyPath(ctx),
		Logger:      log.Default(),
	})
}

// historyPath resolves the history file, creating the cache directory when
// the default is used. It returns "" when history is disabled or the cache
// directory cannot be created.
func (r *Repl) historyPath(ctx context.Context) string {
	if r.NoHistory {
		return ""
	}

	if r.History != "" {
		return r.History
	}

	dir, ok := modelVar(ctx, CacheIdentifier)
	if !ok || dir == "" {
		return ""
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.WarnContext(ctx, "history disabled",
			slog.String("cache", dir),
			slog.Any("error", err),
		)

		return ""
	}

	return filepath.Join(dir, repl.HistoryFile)
}
