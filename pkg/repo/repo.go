// Package repo implements status, diff and save primitives on a single
// content versioned working tree.
//
// A Repo drives one repository through git plumbing and, when the
// repository has one, the annex extension. All state queries reduce to
// three enumerations: the worktree listing, a revision listing and the
// set of paths with unstaged modifications. The package fuses those
// into per path states and builds the save protocol on top.
//
// Repo handles are synchronous and single threaded: concurrent use of
// one handle is not supported.
package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/datatree/datatree/pkg/annex"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/gitexec"
	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Repo is the handle on one repository worktree.
type Repo struct {
	root   string
	gitDir string
	run    *gitexec.Runner
	ext    *annex.Ext
	fs     afero.Fs
	batch  *gitexec.Batch
	opts   []Option
	l      *zap.Logger
	_      struct{}
}

// Option configures a Repo handle
type Option func(*repoSettings)

type repoSettings struct {
	fs  afero.Fs
	git string
	env []string
	l   *zap.Logger
}

// WithLogger sets a zap logger on the handle
func WithLogger(l *zap.Logger) Option {
	return func(s *repoSettings) {
		if l != nil {
			s.l = l
		}
	}
}

// WithFs overrides the filesystem used for path probing
func WithFs(fs afero.Fs) Option {
	return func(s *repoSettings) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithGit overrides the git executable
func WithGit(path string) Option {
	return func(s *repoSettings) {
		if path != "" {
			s.git = path
		}
	}
}

// WithEnv appends environment variables to every spawned command
func WithEnv(env ...string) Option {
	return func(s *repoSettings) {
		s.env = append(s.env, env...)
	}
}

// IsValidRepo tells whether path looks like a repository root. The git
// directory of a linked subdataset checkout may be a plain file, both
// layouts are accepted.
func IsValidRepo(path string) bool {
	fi, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && (fi.IsDir() || fi.Mode().IsRegular())
}

// Open builds the handle for an existing repository rooted at path.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, status.ErrNotARepo.Wrap(err)
	}
	if !IsValidRepo(abs) {
		return nil, status.ErrNotARepo.Wrap(errors.New(abs))
	}

	settings := &repoSettings{
		fs: afero.NewOsFs(),
		l:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(settings)
	}

	runnerOpts := []gitexec.Option{gitexec.WithLogger(settings.l)}
	if settings.git != "" {
		runnerOpts = append(runnerOpts, gitexec.WithGit(settings.git))
	}
	if len(settings.env) > 0 {
		runnerOpts = append(runnerOpts, gitexec.WithEnv(settings.env...))
	}
	run := gitexec.New(abs, runnerOpts...)

	gitDir, err := run.RunString(context.Background(), "rev-parse", "--git-dir")
	if err != nil {
		return nil, status.ErrNotARepo.Wrap(err)
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(abs, gitDir)
	}

	r := &Repo{
		root:   abs,
		gitDir: gitDir,
		run:    run,
		fs:     settings.fs,
		opts:   opts,
		l:      settings.l.With(zap.String("repo", abs)),
	}
	if annex.Detect(settings.fs, gitDir) {
		r.ext = annex.New(run, gitDir,
			annex.WithFs(settings.fs),
			annex.WithLogger(r.l),
		)
	}
	return r, nil
}

// Init creates a fresh repository at path and yields its handle. With
// withAnnex the annex extension is initialized as well.
func Init(ctx context.Context, path string, withAnnex bool, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, status.ErrNotARepo.Wrap(err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, status.ErrNotARepo.Wrap(err)
	}
	settings := &repoSettings{l: zap.NewNop()}
	for _, opt := range opts {
		opt(settings)
	}
	runnerOpts := []gitexec.Option{gitexec.WithLogger(settings.l)}
	if settings.git != "" {
		runnerOpts = append(runnerOpts, gitexec.WithGit(settings.git))
	}
	if len(settings.env) > 0 {
		runnerOpts = append(runnerOpts, gitexec.WithEnv(settings.env...))
	}
	run := gitexec.New(abs, runnerOpts...)
	if _, err := run.Run(ctx, "init", "-q"); err != nil {
		return nil, status.ErrNotARepo.Wrap(err)
	}

	r, err := Open(abs, opts...)
	if err != nil {
		return nil, err
	}
	if withAnnex {
		ext := annex.New(r.run, r.gitDir,
			annex.WithFs(r.fs),
			annex.WithLogger(r.l),
		)
		if err := ext.Init(ctx, ""); err != nil {
			return nil, err
		}
		r.ext = ext
	}
	return r, nil
}

// Close releases background plumbing processes held by the handle.
func (r *Repo) Close() error {
	if r.batch == nil {
		return nil
	}
	b := r.batch
	r.batch = nil
	return b.Close()
}

// Root yields the absolute worktree root
func (r *Repo) Root() string {
	return r.root
}

// GitDir yields the absolute git directory
func (r *Repo) GitDir() string {
	return r.gitDir
}

// HasAnnex tells whether the repository carries an initialized annex
func (r *Repo) HasAnnex() bool {
	return r.ext != nil
}

// Annex yields the annex extension, nil without one
func (r *Repo) Annex() *annex.Ext {
	return r.ext
}

// batchCheck lazily spawns the object query process. One process serves
// all ref resolutions of the handle lifetime.
func (r *Repo) batchCheck() (*gitexec.Batch, error) {
	if r.batch != nil {
		return r.batch, nil
	}
	// handle scoped lifetime, reaped by Close
	b, err := r.run.StartBatch(context.Background(), "cat-file", "--batch-check")
	if err != nil {
		return nil, err
	}
	r.batch = b
	return b, nil
}

// ResolveRef resolves a revision name to a commit id, reporting
// ErrInvalidRef for names the repository cannot resolve.
func (r *Repo) ResolveRef(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", status.ErrInvalidRef.Wrap(errors.New("empty reference"))
	}
	b, err := r.batchCheck()
	if err != nil {
		return "", err
	}
	resp, err := b.Query(ref + "^{commit}")
	if err != nil {
		return "", status.ErrInvalidRef.Wrap(err)
	}
	fields := strings.Fields(resp)
	if len(fields) >= 2 && fields[1] == "commit" {
		return fields[0], nil
	}
	return "", status.ErrInvalidRef.Wrap(errors.New(ref))
}

// HeadCommit yields the commit id of HEAD, reporting ErrNoHead on a
// repository without commits.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	sha, err := r.ResolveRef(ctx, "HEAD")
	if err != nil {
		if errors.Is(err, status.ErrInvalidRef) {
			return "", status.ErrNoHead.Wrap(errors.New(r.root))
		}
		return "", err
	}
	return sha, nil
}

// Tag records a tag on the current HEAD commit. A non empty message
// makes it an annotated tag.
func (r *Repo) Tag(ctx context.Context, name, message string) error {
	args := []string{"tag"}
	if message != "" {
		args = append(args, "-m", message)
	}
	args = append(args, name)
	_, err := r.run.Run(ctx, args...)
	return err
}

// abs resolves a root relative slash path to a native absolute path.
func (r *Repo) abs(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

// lexists probes a root relative path on disk, dangling symlinks count
// as existing.
func (r *Repo) lexists(rel string) bool {
	abs := r.abs(rel)
	if lst, ok := r.fs.(afero.Lstater); ok {
		if _, lstatCalled, err := lst.LstatIfPossible(abs); lstatCalled {
			return err == nil
		}
	}
	_, err := r.fs.Stat(abs)
	return err == nil
}

// pathType types a root relative path from the filesystem, used for
// content git knows no mode for.
func (r *Repo) pathType(rel string) model.PathType {
	abs := r.abs(rel)
	if lst, ok := r.fs.(afero.Lstater); ok {
		if fi, lstatCalled, err := lst.LstatIfPossible(abs); err == nil && lstatCalled && fi.Mode()&os.ModeSymlink != 0 {
			return model.TypeSymlink
		}
	}
	if fi, err := r.fs.Stat(abs); err == nil && fi.IsDir() {
		return model.TypeDirectory
	}
	return model.TypeFile
}
