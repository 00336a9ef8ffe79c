// Copyright © 2024 Datatree Authors

package dataset

import (
	"context"

	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo"
	"go.uber.org/zap"
)

// StatusRequest controls one status run.
type StatusRequest struct {
	// Paths restricts reporting, absolute or relative to the root
	Paths []string

	// Untracked controls untracked reporting, empty defaults to all
	Untracked model.UntrackedMode

	// IgnoreSubmodules controls nested dataset evaluation
	IgnoreSubmodules model.IgnoreSubmodules

	// Annex enriches records with content identity from the annex
	Annex bool

	// Availability probes local content presence, implies Annex
	Availability bool

	// Recursive descends into checked out subdatasets
	Recursive bool

	// RecursionLimit caps the descent depth, zero or less means unbounded
	RecursionLimit int

	_ struct{}
}

// Status reports the state of every path in the dataset tree, one
// result per path, clean ones included.
func (d *Dataset) Status(ctx context.Context, req StatusRequest) ([]model.Result, error) {
	var results []model.Result
	err := d.statusInto(ctx, req, d.path, startDepth(req.RecursionLimit), &results)
	return results, err
}

func (d *Dataset) statusInto(ctx context.Context, req StatusRequest, refds string, depth int, out *[]model.Result) error {
	rels, err := d.relPaths(req.Paths)
	if err != nil {
		return err
	}

	var st *model.StatusMap
	if req.Annex || req.Availability {
		st, err = d.repo.AnnexStatus(ctx, repo.AnnexStatusQuery{
			Paths:            rels,
			Untracked:        req.Untracked,
			IgnoreSubmodules: req.IgnoreSubmodules,
			EvalAvailability: req.Availability,
		})
	} else {
		st, err = d.repo.Status(ctx, repo.StatusQuery{
			Paths:            rels,
			Untracked:        req.Untracked,
			IgnoreSubmodules: req.IgnoreSubmodules,
		})
	}
	if err != nil {
		return err
	}

	var subs []string
	for _, path := range st.Paths() {
		entry, _ := st.Get(path)
		*out = append(*out, model.StatusResult(refds, d.path, d.abs(path), entry))
		if req.Recursive && depth != 0 && entry.Type == model.TypeDataset {
			subs = append(subs, path)
		}
	}

	for _, path := range subs {
		if !repo.IsValidRepo(d.abs(path)) {
			d.l.Debug("subdataset not checked out, skipping descent",
				zap.String("path", d.abs(path)))
			continue
		}
		sub, err := d.openSub(path)
		if err != nil {
			return err
		}
		subReq := req
		subReq.Paths = nil
		err = sub.statusInto(ctx, subReq, refds, nextDepth(depth), out)
		if closeErr := sub.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
