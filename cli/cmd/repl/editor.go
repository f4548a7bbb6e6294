package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/tmpl"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-parse-retry loop.
// It writes the current fragment to a temp file, opens the user's editor and
// parses the result. On a parse error the user is asked whether to re-edit;
// declining abandons the edit.
type editCommand struct {
	text    string
	ctxFunc func() context.Context
	logger  log.Logger
	edited  string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An emptied file leaves edited empty.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp(os.TempDir(), "ttc-repl-*.tt")
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.text

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		content = string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		_, parseErr := tmpl.Parse(ctx, content, tmpl.WithLogger(c.logger))

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(content)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			c.edited = content

			return nil
		}

		fmt.Fprintf(c.stderr, "\nParse error: %s\n", parseErr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !confirm(c.stdin) {
			return ErrEditDeclined
		}
	}
}

// confirm reads a yes/no answer, defaulting to yes. End of input is no.
func confirm(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "n", "no":
		return false
	default:
		return true
	}
}

// runEditor opens $EDITOR, or vi, on path and waits for it to exit.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	// $EDITOR may carry arguments, e.g. "code --wait".
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
