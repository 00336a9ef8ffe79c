// Copyright © 2024 Datatree Authors

package dataset

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/datatree/datatree/pkg/dataset/status"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRequest controls dataset creation.
type CreateRequest struct {
	// Path is the root of the new dataset
	Path string

	// Parent, when set, registers the new dataset as its subdataset
	Parent *Dataset

	// Name labels the dataset, the directory base name applies when empty
	Name string

	// Description initializes the annex location description
	Description string

	// NoAnnex creates a plain git backed dataset
	NoAnnex bool

	// Force proceeds into existing or populated directories
	Force bool

	_ struct{}
}

// Create initializes a dataset at the requested path: a repository,
// an identity record, and the skeleton commit. With a parent given,
// the new dataset also registers there as a subdataset.
func Create(ctx context.Context, req CreateRequest, opts ...Option) (*Dataset, []model.Result, error) {
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := refuseCreate(ctx, abs, req); err != nil {
		res := model.Result{
			Action:  model.ActionCreate,
			Status:  model.ResultImpossible,
			Path:    abs,
			Type:    model.TypeDataset,
			Message: err.Error(),
			Err:     err,
		}
		return nil, []model.Result{res}, err
	}

	s := newSettings(opts)
	r, err := repo.Init(ctx, abs, !req.NoAnnex, s.repoOpts...)
	if err != nil {
		return nil, nil, err
	}
	if req.Description != "" && r.HasAnnex() {
		if err := r.Annex().Init(ctx, req.Description); err != nil {
			_ = r.Close()
			return nil, nil, err
		}
	}

	cfg := Config{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Created: time.Now().UTC(),
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(abs)
	}
	if existing, err := loadConfig(abs); err == nil && existing.ID != "" {
		// forced recreation keeps an established identity
		cfg.ID = existing.ID
	}
	if err := cfg.Validate(); err != nil {
		_ = r.Close()
		return nil, nil, err
	}
	if err := writeConfig(abs, cfg); err != nil {
		_ = r.Close()
		return nil, nil, err
	}

	skeleton := []string{ConfigDir}
	if r.HasAnnex() {
		if err := writeAnnexAttributes(abs); err != nil {
			_ = r.Close()
			return nil, nil, err
		}
		skeleton = append(skeleton, ".gitattributes")
	}
	if _, err := r.Save(ctx, repo.SaveOptions{
		Message: "Initialized dataset " + cfg.Name,
		Mode:    repo.AddGit,
	}, skeleton...); err != nil {
		_ = r.Close()
		return nil, nil, err
	}

	ds := &Dataset{
		path: abs,
		repo: r,
		cfg:  cfg,
		opts: opts,
		l:    s.l.With(zap.String("dataset", abs)),
	}
	results := []model.Result{{
		Action: model.ActionCreate,
		Status: model.ResultOK,
		Path:   abs,
		Type:   model.TypeDataset,
		RefDS:  abs,
		GitSHA: ds.headOrEmpty(ctx),
	}}

	if req.Parent != nil {
		parentResults, err := req.Parent.Save(ctx, SaveRequest{
			Message: "Added subdataset " + cfg.Name,
			Paths:   []string{abs},
		})
		results = append(results, parentResults...)
		if err != nil {
			return ds, results, err
		}
	}
	ds.l.Debug("dataset created", zap.String("id", cfg.ID))
	return ds, results, nil
}

// refuseCreate guards creation against clobbering existing state.
// Force waives all refusals.
func refuseCreate(ctx context.Context, abs string, req CreateRequest) error {
	if req.Force {
		return nil
	}
	if repo.IsValidRepo(abs) {
		return status.ErrDatasetExists.Wrap(errors.New(abs))
	}
	if entries, err := os.ReadDir(abs); err == nil && len(entries) > 0 {
		return status.ErrNotEmpty.Wrap(errors.New(abs))
	}
	return collisionCheck(ctx, abs)
}

// collisionCheck refuses creation over content an enclosing dataset
// already tracks. A recorded dataset link at the same spot is fine, it
// is being recreated in place.
func collisionCheck(ctx context.Context, abs string) error {
	enclosing := findRoot(filepath.Dir(abs))
	if enclosing == "" {
		return nil
	}
	rel, err := filepath.Rel(enclosing, abs)
	if err != nil {
		return nil
	}
	pr, err := repo.Open(enclosing)
	if err != nil {
		return nil
	}
	defer func() {
		_ = pr.Close()
	}()

	info, err := pr.ContentInfo(ctx, repo.ContentInfoQuery{
		Ref:   "HEAD",
		Paths: []string{filepath.ToSlash(rel)},
	})
	if err != nil || info.Len() == 0 {
		return nil
	}
	if entry, ok := info.Get(filepath.ToSlash(rel)); ok && entry.Type == model.TypeDataset && info.Len() == 1 {
		return nil
	}
	return status.ErrParentCollision.Wrap(errors.New(abs))
}

// writeAnnexAttributes pins the annex backend and keeps the dataset
// skeleton in git proper.
func writeAnnexAttributes(root string) error {
	content := "* annex.backend=MD5E\n" +
		ConfigDir + "/** annex.largefiles=nothing\n"
	return os.WriteFile(filepath.Join(root, ".gitattributes"), []byte(content), 0644)
}
