// Copyright © 2024 Datatree Authors

package dataset

import (
	"context"

	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo"
	"go.uber.org/multierr"
)

// SaveRequest controls one save run.
type SaveRequest struct {
	// Message describes the recorded change
	Message string

	// Paths restricts the save, absolute or relative to the root
	Paths []string

	// Mode selects git or annex staging for content additions
	Mode repo.AddMode

	// Untracked controls what the save sees, empty defaults to all
	Untracked model.UntrackedMode

	// Recursive saves dirty subdatasets first, bottom up
	Recursive bool

	// RecursionLimit caps the descent depth, zero or less means unbounded
	RecursionLimit int

	// Version tags the saved state of this dataset
	Version string

	_ struct{}
}

// Save records all pending changes of the dataset tree. Subdatasets
// save first so the parent sweep records their moved link identities.
// Path level failures surface as error results and in the combined
// error, paths that could be saved still are.
func (d *Dataset) Save(ctx context.Context, req SaveRequest) ([]model.Result, error) {
	return d.saveInto(ctx, req, d.path, startDepth(req.RecursionLimit))
}

func (d *Dataset) saveInto(ctx context.Context, req SaveRequest, refds string, depth int) ([]model.Result, error) {
	rels, err := d.relPaths(req.Paths)
	if err != nil {
		return nil, err
	}

	var results []model.Result
	var errs error

	if req.Recursive && depth != 0 {
		if err := d.saveSubdatasets(ctx, req, refds, depth, rels, &results, &errs); err != nil {
			return results, multierr.Append(errs, err)
		}
	}

	// classify fresh, subdataset saves above have moved link identities
	st, err := d.repo.Status(ctx, repo.StatusQuery{Paths: rels, Untracked: req.Untracked})
	if err != nil {
		return results, multierr.Append(errs, err)
	}

	before := d.headOrEmpty(ctx)
	outcomes, saveErr := d.repo.SaveStatus(ctx, st, repo.SaveOptions{
		Message: req.Message,
		Mode:    req.Mode,
	})
	for _, o := range outcomes {
		res := model.Result{
			Action:   o.Action,
			Status:   model.ResultOK,
			Path:     d.abs(o.Path),
			RefDS:    refds,
			ParentDS: d.path,
			Key:      o.Key,
		}
		if o.Err != nil {
			res.Status = model.ResultError
			res.Message = o.Err.Error()
			res.Err = o.Err
			errs = multierr.Append(errs, o.Err)
		}
		results = append(results, res)
	}
	if saveErr != nil {
		results = append(results, model.Result{
			Action:   model.ActionSave,
			Status:   model.ResultError,
			Path:     d.path,
			Type:     model.TypeDataset,
			RefDS:    refds,
			ParentDS: d.path,
			Message:  saveErr.Error(),
			Err:      saveErr,
		})
		return results, multierr.Append(errs, saveErr)
	}

	after := d.headOrEmpty(ctx)
	dsStatus := model.ResultOK
	if after == before {
		dsStatus = model.ResultNotNeeded
	}
	results = append(results, model.Result{
		Action:   model.ActionSave,
		Status:   dsStatus,
		Path:     d.path,
		Type:     model.TypeDataset,
		RefDS:    refds,
		ParentDS: d.path,
		GitSHA:   after,
	})

	if req.Version != "" {
		results = append(results, d.tagVersion(ctx, req.Version, refds, &errs))
	}
	return results, errs
}

// saveSubdatasets runs the recursive descent of a save: every modified,
// checked out dataset link gets its own unrestricted save first.
func (d *Dataset) saveSubdatasets(ctx context.Context, req SaveRequest, refds string, depth int, rels []string, out *[]model.Result, errs *error) error {
	st, err := d.repo.Status(ctx, repo.StatusQuery{Paths: rels, Untracked: req.Untracked})
	if err != nil {
		return err
	}

	for _, path := range st.Paths() {
		entry, _ := st.Get(path)
		if entry.Type != model.TypeDataset || entry.State != model.StateModified {
			continue
		}
		if !repo.IsValidRepo(d.abs(path)) {
			continue
		}
		sub, err := d.openSub(path)
		if err != nil {
			return err
		}
		subReq := req
		subReq.Paths = nil
		subReq.Version = ""
		subResults, subErr := sub.saveInto(ctx, subReq, refds, nextDepth(depth))
		*out = append(*out, subResults...)
		*errs = multierr.Append(*errs, subErr)
		*errs = multierr.Append(*errs, sub.Close())
	}
	return nil
}

func (d *Dataset) tagVersion(ctx context.Context, version, refds string, errs *error) model.Result {
	res := model.Result{
		Action:   model.ActionTag,
		Status:   model.ResultOK,
		Path:     d.path,
		Type:     model.TypeDataset,
		RefDS:    refds,
		ParentDS: d.path,
		Message:  version,
	}
	if err := d.repo.Tag(ctx, version, ""); err != nil {
		res.Status = model.ResultError
		res.Message = err.Error()
		res.Err = err
		*errs = multierr.Append(*errs, err)
	}
	return res
}

func (d *Dataset) headOrEmpty(ctx context.Context) string {
	head, err := d.repo.HeadCommit(ctx)
	if err != nil {
		return ""
	}
	return head
}
