// Copyright © 2024 Datatree Authors

package repo

import (
	"context"
	"strings"

	"github.com/datatree/datatree/pkg/annex"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo/status"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const cacheEntries = 512

// cacheKey addresses one content enumeration within a call tree.
type cacheKey struct {
	root      string
	ref       string
	untracked string
	paths     string
}

// infoCache memoizes content enumerations across one recursive
// computation. Repeated queries for the same repository and reference
// come from memory, eviction only ever costs a recomputation.
type infoCache struct {
	lru *lru.Cache[cacheKey, *model.InfoMap]
}

func newInfoCache() *infoCache {
	c, err := lru.New[cacheKey, *model.InfoMap](cacheEntries)
	if err != nil {
		panic(err)
	}
	return &infoCache{lru: c}
}

func (c *infoCache) getOrCompute(key cacheKey, compute func() (*model.InfoMap, error)) (*model.InfoMap, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, v)
	return v, nil
}

// DiffQuery controls one classification run.
type DiffQuery struct {
	// From is the reference revision paths classify against
	From string

	// To is the target revision, empty targets the worktree
	To string

	// Paths restricts the classification, relative to the repository root
	Paths []string

	// Untracked controls untracked reporting when targeting the
	// worktree. Empty defaults to UntrackedAll.
	Untracked model.UntrackedMode

	// IgnoreSubmodules controls nested dataset evaluation. Empty
	// defaults to IgnoreSubmodulesNone.
	IgnoreSubmodules model.IgnoreSubmodules

	_ struct{}
}

// DiffStatus classifies every path of the target endpoint against the
// reference revision.
func (r *Repo) DiffStatus(ctx context.Context, q DiffQuery) (*model.StatusMap, error) {
	return r.diffstatus(ctx, q, newInfoCache())
}

func (r *Repo) diffstatus(ctx context.Context, q DiffQuery, cache *infoCache) (*model.StatusMap, error) {
	if q.Untracked == "" {
		q.Untracked = model.UntrackedAll
	}
	if err := q.Untracked.Validate(); err != nil {
		return nil, err
	}
	if q.IgnoreSubmodules == "" {
		q.IgnoreSubmodules = model.IgnoreSubmodulesNone
	}
	if err := q.IgnoreSubmodules.Validate(); err != nil {
		return nil, err
	}
	if q.From == "" {
		return nil, status.ErrInvalidRef.Wrap(errors.New("empty reference"))
	}

	from, err := r.cachedInfo(ctx, cache, ContentInfoQuery{Ref: q.From, Paths: q.Paths})
	if err != nil {
		return nil, err
	}

	var (
		to       *model.InfoMap
		modified map[string]struct{}
		lexists  func(string) bool
	)
	if q.To == "" {
		to, err = r.cachedInfo(ctx, cache, ContentInfoQuery{Paths: q.Paths, Untracked: q.Untracked})
		if err != nil {
			return nil, err
		}
		modified, err = r.modifiedSet(ctx, q.Paths)
		if err != nil {
			return nil, err
		}
		lexists = r.lexists
	} else {
		to, err = r.cachedInfo(ctx, cache, ContentInfoQuery{Ref: q.To, Paths: q.Paths})
		if err != nil {
			return nil, err
		}
		// membership in a revision listing is existence
		lexists = func(string) bool { return true }
	}

	st := classifyPaths(to, from, modified, q.IgnoreSubmodules, lexists)

	// probing nested checkouts only makes sense against the worktree
	if q.To == "" && q.IgnoreSubmodules != model.IgnoreSubmodulesAll {
		if err := r.evalSubdatasets(ctx, q, st, cache); err != nil {
			return nil, err
		}
	}
	r.l.Debug("classified",
		zap.String("from", q.From),
		zap.String("to", q.To),
		zap.Int("records", st.Len()),
	)
	return st, nil
}

func (r *Repo) cachedInfo(ctx context.Context, cache *infoCache, q ContentInfoQuery) (*model.InfoMap, error) {
	key := cacheKey{
		root:      r.root,
		ref:       q.Ref,
		untracked: string(q.Untracked),
		paths:     strings.Join(q.Paths, "\x00"),
	}
	return cache.getOrCompute(key, func() (*model.InfoMap, error) {
		return r.ContentInfo(ctx, q)
	})
}

// classifyPaths fuses the target state, the reference state and the set
// of paths with unstaged modifications into per path states.
//
// A path only the target knows is added when it carries an identity,
// untracked otherwise. A path both states know classifies by identity
// equality, with the modified set as tie break for staged identities
// hiding worktree edits, and existence deciding between clean or
// modified and deleted. A path only the reference knows is deleted with
// the deletion already staged, so its entry keeps the reference
// identity.
func classifyPaths(
	to, from *model.InfoMap,
	modified map[string]struct{},
	ignore model.IgnoreSubmodules,
	lexists func(string) bool,
) *model.StatusMap {
	st := model.NewStatusMap()

	to.Range(func(path string, toInfo model.ContentInfo) bool {
		fromInfo, inFrom := from.Get(path)
		_, editedInWorktree := modified[path]

		entry := model.StatusEntry{Type: toInfo.Type}
		switch {
		case !inFrom:
			if toInfo.HasIdentity() {
				entry.State = model.StateAdded
			} else {
				entry.State = model.StateUntracked
			}
		case toInfo.GitSHA == fromInfo.GitSHA && !editedInWorktree:
			if ignore == model.IgnoreSubmodulesAll && toInfo.Type == model.TypeDataset {
				return true
			}
			if lexists(path) {
				entry.State = model.StateClean
			} else {
				entry.State = model.StateDeleted
			}
		default:
			if lexists(path) {
				entry.State = model.StateModified
			} else {
				entry.State = model.StateDeleted
			}
		}

		switch entry.State {
		case model.StateClean, model.StateAdded, model.StateModified:
			entry.GitSHA = toInfo.GitSHA
			entry.Bytesize = toInfo.Bytesize
			entry.SizeKnown = toInfo.SizeKnown
		}
		if inFrom {
			entry.PrevSHA = fromInfo.GitSHA
		}
		st.Set(path, entry)
		return true
	})

	from.Range(func(path string, fromInfo model.ContentInfo) bool {
		if to.Has(path) {
			return true
		}
		st.Set(path, model.StatusEntry{
			Type:    fromInfo.Type,
			State:   model.StateDeleted,
			GitSHA:  fromInfo.GitSHA,
			PrevSHA: fromInfo.GitSHA,
		})
		return true
	})

	return st
}

// evalSubdatasets refines dataset links after classification. A link
// whose recorded and checked out commit ids agree can still hide
// modifications, probing the nested worktree settles it.
func (r *Repo) evalSubdatasets(ctx context.Context, q DiffQuery, st *model.StatusMap, cache *infoCache) error {
	shortCircuit := q.IgnoreSubmodules == model.IgnoreSubmodulesOther
	for _, path := range st.Paths() {
		entry, _ := st.Get(path)
		if entry.Type != model.TypeDataset {
			continue
		}
		switch entry.State {
		case model.StateClean:
			if err := r.probeSubdataset(ctx, q, st, cache, path, entry); err != nil {
				return err
			}
		case model.StateAdded, model.StateUntracked, model.StateModified, model.StateDeleted:
			// conclusive without probing
		default:
			return status.ErrCorruptStatus.Wrap(
				errors.New(path + " classified " + string(entry.State)))
		}
		if shortCircuit {
			if e, _ := st.Get(path); e.State == model.StateModified {
				break
			}
		}
	}
	return nil
}

func (r *Repo) probeSubdataset(
	ctx context.Context,
	q DiffQuery,
	st *model.StatusMap,
	cache *infoCache,
	path string,
	entry model.StatusEntry,
) error {
	subRoot := r.abs(path)
	if !IsValidRepo(subRoot) {
		// not checked out, the recorded state is all there is
		return nil
	}
	sub, err := Open(subRoot, r.opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = sub.Close()
	}()

	head, err := sub.HeadCommit(ctx)
	if err != nil {
		if !errors.Is(err, status.ErrNoHead) {
			return err
		}
		head = ""
	}
	if head != entry.GitSHA {
		entry.State = model.StateModified
		st.Set(path, entry)
		return nil
	}

	// same commit checked out, the nested worktree may still be dirty
	substatus, err := sub.diffstatus(ctx, DiffQuery{
		From:             "HEAD",
		Untracked:        q.Untracked,
		IgnoreSubmodules: model.IgnoreSubmodulesOther,
	}, cache)
	if err != nil {
		return err
	}
	if !substatus.AllClean() {
		entry.State = model.StateModified
		st.Set(path, entry)
	}
	return nil
}

// StatusQuery controls a worktree status computation.
type StatusQuery struct {
	Paths            []string
	Untracked        model.UntrackedMode
	IgnoreSubmodules model.IgnoreSubmodules
	_                struct{}
}

// Status classifies the worktree against HEAD. On a repository without
// commits the classification runs against the empty tree, reporting
// everything as added or untracked.
func (r *Repo) Status(ctx context.Context, q StatusQuery) (*model.StatusMap, error) {
	from := "HEAD"
	if _, err := r.HeadCommit(ctx); err != nil {
		if !errors.Is(err, status.ErrNoHead) {
			return nil, err
		}
		from = model.EmptyTreeRef
	}
	return r.DiffStatus(ctx, DiffQuery{
		From:             from,
		Paths:            q.Paths,
		Untracked:        q.Untracked,
		IgnoreSubmodules: q.IgnoreSubmodules,
	})
}

// AnnexStatusQuery controls an annex aware status computation.
type AnnexStatusQuery struct {
	Paths            []string
	Untracked        model.UntrackedMode
	IgnoreSubmodules model.IgnoreSubmodules
	EvalAvailability bool
	_                struct{}
}

// AnnexStatus is Status enriched with annex content identity: keys,
// sizes and, on request, local availability. Annex placeholder links
// report as files. On a repository without an annex it degrades to
// plain Status.
func (r *Repo) AnnexStatus(ctx context.Context, q AnnexStatusQuery) (*model.StatusMap, error) {
	st, err := r.Status(ctx, StatusQuery{
		Paths:            q.Paths,
		Untracked:        q.Untracked,
		IgnoreSubmodules: q.IgnoreSubmodules,
	})
	if err != nil || r.ext == nil {
		return st, err
	}

	var seed *model.InfoMap
	_, headErr := r.HeadCommit(ctx)
	switch {
	case headErr == nil:
		seed, err = r.ext.Info(ctx, annex.Query{Ref: "HEAD", Paths: q.Paths})
		if err != nil {
			return nil, err
		}
	case errors.Is(headErr, status.ErrNoHead):
		seed = nil
	default:
		return nil, headErr
	}

	info, err := r.ext.Info(ctx, annex.Query{
		Paths:            q.Paths,
		Init:             seed,
		EvalAvailability: q.EvalAvailability,
	})
	if err != nil {
		return nil, err
	}

	for _, path := range st.Paths() {
		entry, _ := st.Get(path)
		ai, ok := info.Get(path)
		if !ok || ai.Key == "" {
			continue
		}
		entry.Key = ai.Key
		entry.Bytesize = ai.Bytesize
		entry.SizeKnown = ai.SizeKnown
		entry.Availability = ai.Availability
		entry.ObjPath = ai.ObjPath
		if entry.Type == model.TypeSymlink {
			entry.Type = model.TypeFile
		}
		st.Set(path, entry)
	}
	return st, nil
}
