package gitexec

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Batch is a long lived plumbing process answering one query per
// request line. Spawning the process once and streaming queries beats
// one process per path by a wide margin on large trees.
//
// A Batch is not safe for concurrent use.
type Batch struct {
	args   []string
	cmd    *exec.Cmd
	in     io.WriteCloser
	out    *bufio.Reader
	stderr *bytes.Buffer
	l      *zap.Logger
	_      struct{}
}

// StartBatch spawns a git command that keeps answering request lines on
// stdin with one response line each, such as cat-file --batch-check or
// annex find --batch.
func (r *Runner) StartBatch(ctx context.Context, args ...string) (*Batch, error) {
	cmd := r.command(ctx, args)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, &CmdError{Args: args, Err: err}
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &CmdError{Args: args, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &CmdError{Args: args, Err: err}
	}
	r.l.Debug("git batch started", zap.Strings("args", args))
	return &Batch{
		args:   args,
		cmd:    cmd,
		in:     in,
		out:    bufio.NewReader(out),
		stderr: &stderr,
		l:      r.l,
	}, nil
}

// Query writes one request line and reads one response line. An empty
// response line is a valid answer.
func (b *Batch) Query(req string) (string, error) {
	if _, err := io.WriteString(b.in, req+"\n"); err != nil {
		return "", b.fail(err)
	}
	line, err := b.out.ReadString('\n')
	if err != nil {
		return "", b.fail(err)
	}
	return strings.TrimRight(line, "\n"), nil
}

// Close ends the request stream and reaps the process.
func (b *Batch) Close() error {
	if err := b.in.Close(); err != nil {
		return b.fail(err)
	}
	if err := b.cmd.Wait(); err != nil {
		return b.fail(err)
	}
	b.l.Debug("git batch closed", zap.Strings("args", b.args))
	return nil
}

func (b *Batch) fail(err error) error {
	return &CmdError{
		Args:   b.args,
		Stderr: strings.TrimSpace(b.stderr.String()),
		Err:    err,
	}
}
