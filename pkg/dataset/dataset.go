// Package dataset drives whole dataset trees. It layers recursive
// status, diff and save over the single repository engine, mints and
// reads dataset identities, and records command runs.
//
// Drivers report model.Result streams with absolute paths, so results
// compose across nesting levels.
package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/datatree/datatree/pkg/dataset/status"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/repo"
	"go.uber.org/zap"
)

// Dataset is the handle on one dataset worktree.
type Dataset struct {
	path string
	repo *repo.Repo
	cfg  Config
	opts []Option
	l    *zap.Logger
	_    struct{}
}

// Option configures a Dataset handle
type Option func(*settings)

type settings struct {
	l        *zap.Logger
	repoOpts []repo.Option
}

// WithLogger sets a zap logger on the handle and its repository
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.l = l
			s.repoOpts = append(s.repoOpts, repo.WithLogger(l))
		}
	}
}

// WithRepoOptions forwards options to the underlying repository handle
func WithRepoOptions(opts ...repo.Option) Option {
	return func(s *settings) {
		s.repoOpts = append(s.repoOpts, opts...)
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{l: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Require opens the dataset rooted exactly at path. A repository
// without a datatree configuration still opens, its identity is simply
// empty.
func Require(path string, opts ...Option) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, status.ErrNoDataset.Wrap(err)
	}
	if !repo.IsValidRepo(abs) {
		return nil, status.ErrNoDataset.Wrap(errors.New(abs))
	}

	s := newSettings(opts)
	r, err := repo.Open(abs, s.repoOpts...)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		path: abs,
		repo: r,
		opts: opts,
		l:    s.l.With(zap.String("dataset", abs)),
	}
	cfg, err := loadConfig(abs)
	switch {
	case err == nil:
		ds.cfg = cfg
	case os.IsNotExist(err):
		// bare repository acting as dataset
	default:
		_ = r.Close()
		return nil, err
	}
	return ds, nil
}

// Find locates the dataset containing start, walking upward to the
// filesystem root.
func Find(start string, opts ...Option) (*Dataset, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, status.ErrNoDataset.Wrap(err)
	}
	root := findRoot(abs)
	if root == "" {
		return nil, status.ErrNoDataset.Wrap(errors.New(start))
	}
	return Require(root, opts...)
}

func findRoot(abs string) string {
	dir := abs
	for {
		if repo.IsValidRepo(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Close releases the underlying repository handle.
func (d *Dataset) Close() error {
	return d.repo.Close()
}

// Path yields the absolute dataset root
func (d *Dataset) Path() string {
	return d.path
}

// ID yields the dataset identifier, empty without a configuration
func (d *Dataset) ID() string {
	return d.cfg.ID
}

// Config yields the dataset configuration
func (d *Dataset) Config() Config {
	return d.cfg
}

// Repo exposes the underlying repository handle.
func (d *Dataset) Repo() *repo.Repo {
	return d.repo
}

func (d *Dataset) abs(rel string) string {
	return filepath.Join(d.path, filepath.FromSlash(rel))
}

// openSub opens the subdataset checked out at a root relative path,
// propagating the handle options.
func (d *Dataset) openSub(rel string) (*Dataset, error) {
	return Require(d.abs(rel), d.opts...)
}

// relPaths turns caller paths into root relative slash paths. Absolute
// paths must point inside the dataset, relative ones resolve against
// the root. The root itself means no restriction and drops out.
func (d *Dataset) relPaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel := p
		if filepath.IsAbs(p) {
			var err error
			rel, err = filepath.Rel(d.path, p)
			if err != nil {
				return nil, status.ErrOutsideDataset.Wrap(err)
			}
		}
		rel = filepath.ToSlash(filepath.Clean(rel))
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return nil, status.ErrOutsideDataset.Wrap(errors.New(p))
		}
		if rel == "." {
			continue
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// recursion depth accounting: zero stops descending, negative never
// runs out
func startDepth(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func nextDepth(depth int) int {
	if depth > 0 {
		return depth - 1
	}
	return depth
}
