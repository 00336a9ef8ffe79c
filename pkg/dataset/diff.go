// Copyright © 2024 Datatree Authors

package dataset

import (
	"context"

	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo"
	"go.uber.org/zap"
)

// DiffRequest controls one diff run.
type DiffRequest struct {
	// From is the reference revision, empty defaults to HEAD
	From string

	// To is the target revision, empty targets the worktree
	To string

	// Paths restricts the comparison, absolute or relative to the root
	Paths []string

	// Untracked controls untracked reporting against the worktree
	Untracked model.UntrackedMode

	// Recursive follows changed dataset links into the nested dataset
	Recursive bool

	// RecursionLimit caps the descent depth, zero or less means unbounded
	RecursionLimit int

	_ struct{}
}

// Diff reports per path states between two endpoints of the dataset
// history. Recursion derives the nested revision range from the link
// identities recorded in the parent.
func (d *Dataset) Diff(ctx context.Context, req DiffRequest) ([]model.Result, error) {
	if req.From == "" {
		req.From = "HEAD"
	}
	var results []model.Result
	err := d.diffInto(ctx, req, d.path, startDepth(req.RecursionLimit), &results)
	return results, err
}

type subRange struct {
	path string
	from string
	to   string
}

func (d *Dataset) diffInto(ctx context.Context, req DiffRequest, refds string, depth int, out *[]model.Result) error {
	rels, err := d.relPaths(req.Paths)
	if err != nil {
		return err
	}
	st, err := d.repo.DiffStatus(ctx, repo.DiffQuery{
		From:      req.From,
		To:        req.To,
		Paths:     rels,
		Untracked: req.Untracked,
	})
	if err != nil {
		return err
	}

	var subs []subRange
	for _, path := range st.Paths() {
		entry, _ := st.Get(path)
		*out = append(*out, model.DiffResult(refds, d.path, d.abs(path), entry))
		if !req.Recursive || depth == 0 || entry.Type != model.TypeDataset {
			continue
		}
		sr := subRange{path: path}
		switch entry.State {
		case model.StateAdded:
			sr.from = model.EmptyTreeRef
		case model.StateModified:
			sr.from = entry.PrevSHA
		default:
			// nothing to walk below clean or deleted links
			continue
		}
		if req.To != "" {
			sr.to = entry.GitSHA
		}
		subs = append(subs, sr)
	}

	for _, sr := range subs {
		if !repo.IsValidRepo(d.abs(sr.path)) {
			d.l.Debug("subdataset not checked out, skipping descent",
				zap.String("path", d.abs(sr.path)))
			continue
		}
		sub, err := d.openSub(sr.path)
		if err != nil {
			return err
		}
		subReq := req
		subReq.Paths = nil
		subReq.From = sr.from
		subReq.To = sr.to
		err = sub.diffInto(ctx, subReq, refds, nextDepth(depth), out)
		if closeErr := sub.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
