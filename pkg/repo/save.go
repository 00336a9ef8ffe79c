// Copyright © 2024 Datatree Authors

package repo

import (
	"context"
	"regexp"

	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/gitexec"
	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo/status"
	"go.uber.org/zap"
)

// DefaultSaveMessage applies when a save carries no message
const DefaultSaveMessage = "[DATATREE] Recorded changes"

// AddMode selects how additions get staged.
type AddMode int

const (
	// AddAuto lets per path configuration decide, going through the
	// annex when the repository has one
	AddAuto AddMode = iota

	// AddGit forces plain git staging
	AddGit

	// AddAnnex forces annex staging
	AddAnnex
)

// SaveOptions controls one save run.
type SaveOptions struct {
	// Message describes the recorded change, DefaultSaveMessage applies
	// when empty
	Message string

	// Mode selects git or annex staging for content additions
	Mode AddMode

	// Untracked controls what the composed Save sees, empty defaults
	// to UntrackedAll
	Untracked model.UntrackedMode

	_ struct{}
}

// SaveOutcome reports one path level step of a save run.
type SaveOutcome struct {
	// Path is relative to the repository root
	Path string

	// Action is model.ActionAdd or model.ActionDelete
	Action string

	// Key is the annex key for content staged through the annex
	Key string

	Err error
	_   struct{}
}

// Save classifies the worktree and records every change in one sweep.
func (r *Repo) Save(ctx context.Context, opts SaveOptions, paths ...string) ([]SaveOutcome, error) {
	st, err := r.Status(ctx, StatusQuery{Paths: paths, Untracked: opts.Untracked})
	if err != nil {
		return nil, err
	}
	return r.SaveStatus(ctx, st, opts)
}

// SaveStatus records the changes described by a classification. Clean
// paths are discarded, so saving a clean tree does nothing and changes
// nothing.
//
// Paths are processed tolerantly: a failing path yields an errored
// outcome while the remaining paths proceed to the final commit.
func (r *Repo) SaveStatus(ctx context.Context, st *model.StatusMap, opts SaveOptions) ([]SaveOutcome, error) {
	if st.Len() == 0 {
		return nil, nil
	}
	work := st.Clone()
	var outcomes []SaveOutcome

	// nested repositories inside untracked directories become linked
	// subdatasets first, their paths must be recorded as links rather
	// than swallowed as plain content
	subOutcomes, err := r.promoteSubdatasets(ctx, work)
	outcomes = append(outcomes, subOutcomes...)
	if err != nil {
		return outcomes, err
	}

	outcomes = append(outcomes, r.stageAdditions(ctx, work, opts.Mode)...)
	outcomes = append(outcomes, r.stageRemovals(ctx, work)...)

	var touched []string
	work.Range(func(path string, entry model.StatusEntry) bool {
		if entry.State != model.StateClean {
			touched = append(touched, path)
		}
		return true
	})
	if len(touched) == 0 {
		return outcomes, nil
	}
	if err := r.commit(ctx, opts.Message, touched); err != nil {
		return outcomes, err
	}
	r.l.Debug("save recorded",
		zap.Int("paths", len(touched)),
		zap.Int("outcomes", len(outcomes)),
	)
	return outcomes, nil
}

// promoteSubdatasets registers hidden repositories below untracked
// directories as subdatasets and reflects the promotion in the working
// classification.
func (r *Repo) promoteSubdatasets(ctx context.Context, work *model.StatusMap) ([]SaveOutcome, error) {
	var untrackedDirs []string
	work.Range(func(path string, entry model.StatusEntry) bool {
		if entry.State == model.StateUntracked && entry.Type == model.TypeDirectory {
			untrackedDirs = append(untrackedDirs, path)
		}
		return true
	})
	if len(untrackedDirs) == 0 {
		return nil, nil
	}

	subs, err := r.findHiddenRepos(ctx, untrackedDirs)
	if err != nil {
		return nil, err
	}
	var outcomes []SaveOutcome
	for _, sub := range subs {
		out := SaveOutcome{Path: sub, Action: model.ActionAdd}
		if err := r.registerSubdataset(ctx, sub); err != nil {
			out.Err = status.ErrSave.Wrap(err)
			outcomes = append(outcomes, out)
			continue
		}
		work.Set(sub, model.StatusEntry{Type: model.TypeDataset, State: model.StateAdded})
		work.Set(".gitmodules", model.StatusEntry{Type: model.TypeFile, State: model.StateModified})
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// findHiddenRepos re-enumerates untracked directories exhaustively and
// picks out the ones that are repository roots. The worktree listing
// never descends into a foreign repository, so nested repositories
// surface as directory records.
func (r *Repo) findHiddenRepos(ctx context.Context, dirs []string) ([]string, error) {
	info, err := r.ContentInfo(ctx, ContentInfoQuery{
		Paths:     dirs,
		Untracked: model.UntrackedAll,
	})
	if err != nil {
		return nil, err
	}
	var subs []string
	info.Range(func(path string, ci model.ContentInfo) bool {
		if ci.Type == model.TypeDirectory && IsValidRepo(r.abs(path)) {
			subs = append(subs, path)
		}
		return true
	})
	return subs, nil
}

func (r *Repo) registerSubdataset(ctx context.Context, rel string) error {
	_, err := r.run.Run(ctx, "submodule", "add", "./"+rel, rel)
	return err
}

// stageAdditions stages modified and untracked paths. Dataset links
// always go through plain git, content goes through the annex unless
// forced to git.
func (r *Repo) stageAdditions(ctx context.Context, work *model.StatusMap, mode AddMode) []SaveOutcome {
	var content, links []string
	work.Range(func(path string, entry model.StatusEntry) bool {
		if entry.State != model.StateModified && entry.State != model.StateUntracked {
			return true
		}
		if entry.Type == model.TypeDataset {
			links = append(links, path)
		} else {
			content = append(content, path)
		}
		return true
	})

	var outcomes []SaveOutcome
	if len(content) > 0 {
		if r.ext != nil && mode != AddGit {
			outcomes = append(outcomes, r.annexAdd(ctx, content)...)
		} else {
			outcomes = append(outcomes, r.gitAdd(ctx, content)...)
		}
	}
	if len(links) > 0 {
		outcomes = append(outcomes, r.gitAdd(ctx, links)...)
	}
	return outcomes
}

func (r *Repo) annexAdd(ctx context.Context, paths []string) []SaveOutcome {
	results, err := r.ext.Add(ctx, paths)
	if err != nil {
		return failedOutcomes(paths, model.ActionAdd, err)
	}
	outcomes := make([]SaveOutcome, 0, len(results))
	for _, res := range results {
		outcomes = append(outcomes, SaveOutcome{
			Path:   res.Path,
			Action: model.ActionAdd,
			Key:    res.Key,
			Err:    res.Err,
		})
	}
	return outcomes
}

var gitAddedRe = regexp.MustCompile(`^add '(.+)'$`)

func (r *Repo) gitAdd(ctx context.Context, paths []string) []SaveOutcome {
	args := append([]string{"add", "--verbose", "--"}, paths...)
	out, err := r.run.Run(ctx, args...)
	if err != nil {
		return failedOutcomes(paths, model.ActionAdd, err)
	}
	staged := 0
	for _, line := range gitexec.SplitLines(out) {
		if gitAddedRe.MatchString(line) {
			staged++
		}
	}
	r.l.Debug("staged through git",
		zap.Int("requested", len(paths)),
		zap.Int("reported", staged),
	)
	outcomes := make([]SaveOutcome, 0, len(paths))
	for _, p := range paths {
		outcomes = append(outcomes, SaveOutcome{Path: p, Action: model.ActionAdd})
	}
	return outcomes
}

// stageRemovals stages the removal of paths deleted from disk. Entries
// still carrying a reference identity are deletions already staged, a
// second removal would fail on them.
func (r *Repo) stageRemovals(ctx context.Context, work *model.StatusMap) []SaveOutcome {
	var toRemove []string
	work.Range(func(path string, entry model.StatusEntry) bool {
		if entry.State == model.StateDeleted && entry.GitSHA == "" {
			toRemove = append(toRemove, path)
		}
		return true
	})
	if len(toRemove) == 0 {
		return nil
	}

	args := append([]string{"rm", "--quiet", "--"}, toRemove...)
	if _, err := r.run.Run(ctx, args...); err != nil {
		return failedOutcomes(toRemove, model.ActionDelete, err)
	}
	outcomes := make([]SaveOutcome, 0, len(toRemove))
	for _, p := range toRemove {
		outcomes = append(outcomes, SaveOutcome{Path: p, Action: model.ActionDelete})
	}
	return outcomes
}

// commit records the touched paths. A commit that turns out empty is
// not an error, an earlier step may have neutralized every change.
func (r *Repo) commit(ctx context.Context, message string, pathspec []string) error {
	if message == "" {
		message = DefaultSaveMessage
	}
	args := append([]string{"commit", "-m", message, "--"}, pathspec...)
	_, err := r.run.Run(ctx, args...)
	if err != nil {
		var cmdErr *gitexec.CmdError
		if errors.As(err, &cmdErr) && cmdErr.OutputContains(
			"nothing to commit",
			"nothing added to commit",
			"no changes added to commit",
		) {
			r.l.Debug("nothing to commit")
			return nil
		}
		return status.ErrSave.Wrap(err)
	}
	return nil
}

func failedOutcomes(paths []string, action string, err error) []SaveOutcome {
	outcomes := make([]SaveOutcome, 0, len(paths))
	for _, p := range paths {
		outcomes = append(outcomes, SaveOutcome{
			Path:   p,
			Action: action,
			Err:    status.ErrSave.Wrap(err),
		})
	}
	return outcomes
}
