// Package annex extends repository queries with content identity and
// local availability of annexed files.
//
// Annexed files are recorded as placeholder links, the actual payload
// lives in a local object store below the git directory. The package
// shells out to git-annex for record queries and probes the object
// store directly for availability.
package annex

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/datatree/datatree/pkg/annex/status"
	"github.com/datatree/datatree/pkg/gitexec"
	"github.com/datatree/datatree/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Ext gives access to the annex of one repository.
//
// Ext is not safe for concurrent use, matching the access model of the
// repository handle owning it.
type Ext struct {
	run      *gitexec.Runner
	objDir   string
	fs       afero.Fs
	hashdirs map[string]hashDirs
	l        *zap.Logger
	_        struct{}
}

// hashDirs keeps the two store layout fragments reported per key. Which
// one the store uses depends on filesystem capabilities at init time, so
// both get probed.
type hashDirs struct {
	mixed string
	lower string
}

// Option configures an Ext
type Option func(*Ext)

// WithFs overrides the filesystem used for object store probing
func WithFs(fs afero.Fs) Option {
	return func(x *Ext) {
		if fs != nil {
			x.fs = fs
		}
	}
}

// WithLogger sets a zap logger
func WithLogger(l *zap.Logger) Option {
	return func(x *Ext) {
		if l != nil {
			x.l = l
		}
	}
}

// New builds the annex extension for a repository with the given git
// directory. The runner must be rooted at the repository worktree.
func New(run *gitexec.Runner, gitDir string, opts ...Option) *Ext {
	x := &Ext{
		run:      run,
		objDir:   filepath.Join(gitDir, "annex", "objects"),
		fs:       afero.NewOsFs(),
		hashdirs: make(map[string]hashDirs),
		l:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Detect tells whether the repository with the given git directory has
// an initialized annex.
func Detect(fs afero.Fs, gitDir string) bool {
	ok, err := afero.DirExists(fs, filepath.Join(gitDir, "annex"))
	return err == nil && ok
}

// ObjDir yields the root of the local object store
func (x *Ext) ObjDir() string {
	return x.objDir
}

// Query controls one annex info query.
type Query struct {
	// Ref asks about a revision instead of the worktree
	Ref string

	// Paths restricts the query to these paths, relative to the
	// repository root
	Paths []string

	// EvalAvailability probes the local object store per record
	EvalAvailability bool

	// Init seeds the result, query findings merge into it
	Init *model.InfoMap

	_ struct{}
}

// Info yields annex content records for the worktree or a revision.
//
// Records merge into a copy of the query seed: paths the annex knows
// nothing about pass through untouched.
func (x *Ext) Info(ctx context.Context, q Query) (*model.InfoMap, error) {
	out := q.Init.Clone()

	// the --include matcher lifts the default restriction to locally
	// present content
	args := []string{"annex", "find", "--json", "--include", "*"}
	if q.Ref != "" {
		args = []string{"annex", "findref", "--json", q.Ref}
	} else if len(q.Paths) > 0 {
		args = append(args, "--")
		args = append(args, q.Paths...)
	}

	lines, err := x.run.RunLines(ctx, args...)
	if err != nil {
		return nil, status.ErrAnnex.Wrap(err)
	}
	restrict := pathSet(q.Paths)
	for _, line := range lines {
		rec, err := decodeFindRecord(line)
		if err != nil {
			return nil, err
		}
		if q.Ref != "" && restrict != nil {
			// findref takes no path arguments, restrict after the fact
			if _, ok := restrict[rec.File]; !ok {
				continue
			}
		}
		x.merge(out, rec)
	}
	if q.EvalAvailability {
		x.MarkAvailability(out)
	}
	x.l.Debug("annex info",
		zap.String("ref", q.Ref),
		zap.Int("paths", len(q.Paths)),
		zap.Int("records", out.Len()),
	)
	return out, nil
}

func (x *Ext) merge(out *model.InfoMap, rec findRecord) {
	info, _ := out.Get(rec.File)
	info.Key = rec.Key
	if size, err := strconv.ParseInt(rec.Bytesize, 10, 64); err == nil {
		info.Bytesize = size
		info.SizeKnown = true
	}
	if info.Type == "" {
		info.Type = model.TypeFile
	}
	x.hashdirs[rec.Key] = hashDirs{mixed: rec.HashDirMixed, lower: rec.HashDirLower}
	out.Set(rec.File, info)
}

// MarkAvailability probes the local object store for every record
// carrying a key and fills in availability and object location.
func (x *Ext) MarkAvailability(info *model.InfoMap) {
	probed := 0
	info.Range(func(path string, i model.ContentInfo) bool {
		if i.Key == "" {
			return true
		}
		probed++
		if loc, ok := x.locate(i.Key); ok {
			i.Availability = model.AvailabilityPresent
			i.ObjPath = loc
		} else {
			i.Availability = model.AvailabilityAbsent
			i.ObjPath = ""
		}
		info.Set(path, i)
		return true
	})
	x.l.Debug("availability probe", zap.Int("keys", probed))
}

// locate probes the candidate object paths for a key. The mixed case
// layout is tried first, it is what annex picks on capable filesystems.
func (x *Ext) locate(key string) (string, bool) {
	hd, ok := x.hashdirs[key]
	if !ok {
		return "", false
	}
	for _, dir := range []string{hd.mixed, hd.lower} {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(x.objDir, filepath.FromSlash(dir), key, key)
		if exists, err := afero.Exists(x.fs, candidate); err == nil && exists {
			return candidate, true
		}
	}
	return "", false
}

// Init initializes the annex of the repository
func (x *Ext) Init(ctx context.Context, description string) error {
	args := []string{"annex", "init"}
	if description != "" {
		args = append(args, description)
	}
	if _, err := x.run.Run(ctx, args...); err != nil {
		return status.ErrAnnex.Wrap(err)
	}
	return nil
}

func pathSet(paths []string) map[string]struct{} {
	if len(paths) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}
