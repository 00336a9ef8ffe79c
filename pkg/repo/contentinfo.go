// Copyright © 2024 Datatree Authors

package repo

import (
	"context"
	"strings"

	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/gitexec"
	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo/status"
	"go.uber.org/zap"
)

// ContentInfoQuery controls one content enumeration.
type ContentInfoQuery struct {
	// Ref enumerates a revision instead of the worktree
	Ref string

	// Paths restricts the enumeration, relative to the repository root
	Paths []string

	// Untracked controls untracked reporting, worktree only. Empty
	// defaults to UntrackedAll.
	Untracked model.UntrackedMode

	_ struct{}
}

// ContentInfo enumerates paths of the worktree or a revision.
//
// The worktree listing covers the staged state plus deletions and
// modifications relative to it, plus untracked content according to the
// untracked mode, with standard ignore rules honored. A revision
// listing covers the full tree recorded in that revision.
func (r *Repo) ContentInfo(ctx context.Context, q ContentInfoQuery) (*model.InfoMap, error) {
	if q.Ref != "" {
		return r.refInfo(ctx, q)
	}
	return r.worktreeInfo(ctx, q)
}

func (r *Repo) worktreeInfo(ctx context.Context, q ContentInfoQuery) (*model.InfoMap, error) {
	untracked := q.Untracked
	if untracked == "" {
		untracked = model.UntrackedAll
	}
	if err := untracked.Validate(); err != nil {
		return nil, err
	}

	args := []string{"ls-files", "--stage", "-z", "-d", "-m"}
	switch untracked {
	case model.UntrackedAll:
		args = append(args, "-o", "--exclude-standard")
	case model.UntrackedNormal:
		args = append(args, "-o", "--directory", "--no-empty-directory", "--exclude-standard")
	}
	args = appendPathspec(args, q.Paths)

	records, err := r.run.RunZ(ctx, args...)
	if err != nil {
		return nil, err
	}

	info := model.NewInfoMap()
	for _, rec := range records {
		path, ci, bare, err := parseStageRecord(rec)
		if err != nil {
			return nil, err
		}
		if bare {
			// a bare record is either untracked content, or the second
			// mention of an already listed index entry
			if info.Has(path) {
				continue
			}
			info.Set(path, model.ContentInfo{Type: r.pathType(path)})
			continue
		}
		info.SetIfAbsent(path, ci)
	}
	r.l.Debug("worktree enumerated",
		zap.Int("query_paths", len(q.Paths)),
		zap.Int("records", info.Len()),
	)
	return info, nil
}

func (r *Repo) refInfo(ctx context.Context, q ContentInfoQuery) (*model.InfoMap, error) {
	args := []string{"ls-tree", q.Ref, "-z", "-r", "--full-tree"}
	args = appendPathspec(args, q.Paths)

	records, err := r.run.RunZ(ctx, args...)
	if err != nil {
		var cmdErr *gitexec.CmdError
		if errors.As(err, &cmdErr) &&
			cmdErr.OutputContains("not a valid object name", "bad revision", "not a tree object", "unknown revision") {
			return nil, status.ErrInvalidRef.Wrap(err)
		}
		return nil, err
	}

	info := model.NewInfoMap()
	for _, rec := range records {
		path, ci, err := parseTreeRecord(rec)
		if err != nil {
			return nil, err
		}
		info.SetIfAbsent(path, ci)
	}
	r.l.Debug("revision enumerated",
		zap.String("ref", q.Ref),
		zap.Int("records", info.Len()),
	)
	return info, nil
}

// modifiedSet yields the paths with unstaged modifications relative to
// the staged state, the authoritative tie break for paths whose staged
// identity matches the reference.
func (r *Repo) modifiedSet(ctx context.Context, paths []string) (map[string]struct{}, error) {
	args := appendPathspec([]string{"ls-files", "-z", "-m"}, paths)
	records, err := r.run.RunZ(ctx, args...)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(records))
	for _, rec := range records {
		set[normalizePath(rec)] = struct{}{}
	}
	return set, nil
}

// parseStageRecord parses one ls-files record. Records with index
// metadata read "<mode> <object> <stage>\t<path>", records without
// carry a bare path.
func parseStageRecord(rec string) (string, model.ContentInfo, bool, error) {
	tab := strings.IndexByte(rec, '\t')
	if tab < 0 {
		return normalizePath(rec), model.ContentInfo{}, true, nil
	}
	fields := strings.Fields(rec[:tab])
	if len(fields) != 3 {
		return "", model.ContentInfo{}, false, status.ErrBadRecord.Wrap(errors.New(rec))
	}
	ci := model.ContentInfo{
		Type:   model.TypeFromMode(fields[0]),
		GitSHA: fields[1],
	}
	return normalizePath(rec[tab+1:]), ci, false, nil
}

// parseTreeRecord parses one ls-tree record, reading
// "<mode> <objtype> <object>\t<path>".
func parseTreeRecord(rec string) (string, model.ContentInfo, error) {
	tab := strings.IndexByte(rec, '\t')
	if tab < 0 {
		return "", model.ContentInfo{}, status.ErrBadRecord.Wrap(errors.New(rec))
	}
	fields := strings.Fields(rec[:tab])
	if len(fields) != 3 {
		return "", model.ContentInfo{}, status.ErrBadRecord.Wrap(errors.New(rec))
	}
	ci := model.ContentInfo{
		Type:   model.TypeFromMode(fields[0]),
		GitSHA: fields[2],
	}
	return normalizePath(rec[tab+1:]), ci, nil
}

// normalizePath strips the trailing slash of directory records
func normalizePath(path string) string {
	return strings.TrimSuffix(path, "/")
}

func appendPathspec(args, paths []string) []string {
	if len(paths) == 0 {
		return args
	}
	args = append(args, "--")
	return append(args, paths...)
}
