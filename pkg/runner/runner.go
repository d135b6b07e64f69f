// Package runner executes generated Python with the configured interpreter.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"typyc/pkg/build"
	"typyc/pkg/config"
	"typyc/pkg/logx"
	"typyc/pkg/utils"
)

// EntryModule is run when a directory is built with --run and no entry is named.
const EntryModule = "main"

// ExitError reports a script that ran but exited non-zero.
type ExitError struct {
	Script string
	Code   int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Script, e.Code)
}

type Runner struct {
	Python string
	Args   []string // appended after the script's own arguments
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    *logx.Logger
}

// New returns a runner wired to the process's standard streams.
func New(cfg config.RunConfig, lg *logx.Logger) *Runner {
	if lg == nil {
		lg = logx.Discard()
	}
	python := cfg.Python
	if python == "" {
		python = "python3"
	}
	return &Runner{
		Python: python,
		Args:   cfg.Args,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    lg,
	}
}

// Run executes script and waits for it. Cancelling ctx kills the interpreter.
func (r *Runner) Run(ctx context.Context, script string, args ...string) error {
	full, _, err := utils.GetPathInfo(script)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err != nil {
		return err
	}

	argv := append([]string{full}, args...)
	argv = append(argv, r.Args...)
	cmd := exec.CommandContext(ctx, r.Python, argv...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	r.Log.Infof("running %s %s", r.Python, strings.Join(argv, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Script: full, Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("run %s: %w", full, err)
	}
	return nil
}

// Entry picks the output file to run after b has built.
//
// A single-file build runs that file's output. A directory build runs the
// output of entry, a path relative to the source root naming either the .typy
// source or its .py output; with no entry it runs main.py at the output root.
func Entry(b *build.Builder, entry string) (string, error) {
	var src string
	switch {
	case entry != "":
		if filepath.IsAbs(entry) {
			return "", fmt.Errorf("entry %s must be relative to %s", entry, b.RootDir())
		}
		switch filepath.Ext(entry) {
		case utils.SourceExt:
		case utils.OutputExt, "":
			entry = utils.ReplaceExt(entry, utils.SourceExt)
		default:
			return "", fmt.Errorf("entry %s: want a %s or %s path", entry, utils.SourceExt, utils.OutputExt)
		}
		src = filepath.Join(b.RootDir(), filepath.Clean(entry))
	case b.SingleFile():
		src = b.Root()
	default:
		src = filepath.Join(b.RootDir(), EntryModule+utils.SourceExt)
	}

	out, err := b.OutputPath(src)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(out); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if entry == "" && !b.SingleFile() {
				return "", fmt.Errorf("no %s%s to run in %s; name one with --run-entry", EntryModule, utils.OutputExt, filepath.Dir(out))
			}
			return "", fmt.Errorf("entry %s was not built", out)
		}
		return "", err
	}
	return out, nil
}
