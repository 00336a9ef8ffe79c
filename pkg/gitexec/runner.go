// Package gitexec drives the git command line, the authoritative access
// path to repository state.
//
// The package stays deliberately dumb: it runs commands, splits output
// records and reports failures with captured stderr. Interpreting the
// records is the business of callers.
package gitexec

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner executes git commands against one working directory.
type Runner struct {
	dir string
	git string
	env []string
	l   *zap.Logger
	_   struct{}
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets a zap logger on the runner
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.l = l
		}
	}
}

// WithGit overrides the git executable
func WithGit(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.git = path
		}
	}
}

// WithEnv appends environment variables, as KEY=VALUE strings, to the
// inherited environment of every command.
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// New builds a Runner for the given working directory.
func New(dir string, opts ...Option) *Runner {
	r := &Runner{
		dir: dir,
		git: "git",
		l:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir yields the working directory commands run in
func (r *Runner) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Run executes one git command and yields its stdout. Failures carry
// the captured stderr, see CmdError.
func (r *Runner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := r.command(ctx, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.l.Debug("git call",
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.Int("stdout_bytes", stdout.Len()),
		zap.Bool("failed", err != nil),
	)
	if err != nil {
		return nil, &CmdError{
			Args:   args,
			Stdout: strings.TrimSpace(stdout.String()),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// RunZ executes one git command producing NUL terminated records and
// yields the split records.
func (r *Runner) RunZ(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return SplitZ(out), nil
}

// RunLines executes one git command and yields its non-empty output lines.
func (r *Runner) RunLines(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return SplitLines(out), nil
}

// RunString executes one git command and yields its stdout with
// surrounding whitespace trimmed.
func (r *Runner) RunString(ctx context.Context, args ...string) (string, error) {
	out, err := r.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Runner) command(ctx context.Context, args []string) *exec.Cmd {
	cmdArgs := append([]string{"-C", r.dir}, args...)
	cmd := exec.CommandContext(ctx, r.git, cmdArgs...)
	// force a stable locale, output gets parsed
	cmd.Env = append(append(os.Environ(), "LC_ALL=C"), r.env...)
	return cmd
}

// SplitZ splits NUL terminated output into records, dropping the empty
// trailing record.
func SplitZ(out []byte) []string {
	records := strings.Split(string(out), "\x00")
	result := records[:0]
	for _, rec := range records {
		if rec != "" {
			result = append(result, rec)
		}
	}
	return result
}

// SplitLines splits newline terminated output into non-empty lines.
func SplitLines(out []byte) []string {
	lines := strings.Split(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
	result := lines[:0]
	for _, line := range lines {
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
