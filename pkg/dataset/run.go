// Copyright © 2024 Datatree Authors

package dataset

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/datatree/datatree/pkg/dataset/status"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// RunRequest controls command execution inside a dataset.
type RunRequest struct {
	// Command is the program and its arguments
	Command []string

	// Message replaces the generated commit message headline
	Message string

	// AllowDirty skips the clean worktree requirement
	AllowDirty bool

	// Stdout and Stderr receive the command output, defaulting to the
	// process streams
	Stdout io.Writer
	Stderr io.Writer

	_ struct{}
}

// runRecord is the machine readable part of a run commit message.
type runRecord struct {
	Cmd       []string `json:"cmd"`
	DatasetID string   `json:"dsid,omitempty"`
	ExitCode  int      `json:"exit"`
	Pwd       string   `json:"pwd"`
}

const (
	runRecordOpen  = "=== Do not change lines below ==="
	runRecordClose = "^^^ Do not change lines above ^^^"
)

// RunRecord executes a command in the dataset root and saves the
// resulting changes with a commit message that embeds a structured
// record of the invocation.
//
// A dirty worktree refuses the run unless AllowDirty is set. A failing
// command leaves its output in place unsaved, so the run can be fixed
// up and re-executed.
func (d *Dataset) RunRecord(ctx context.Context, req RunRequest) ([]model.Result, error) {
	if len(req.Command) == 0 {
		return nil, status.ErrRunFailed.Wrap(errors.New("empty command"))
	}
	refds := d.path

	if !req.AllowDirty {
		st, err := d.repo.Status(ctx, repo.StatusQuery{})
		if err != nil {
			return nil, err
		}
		if !st.AllClean() {
			err := status.ErrRunDirty.Wrap(errors.New(d.path))
			res := model.Result{
				Action:  model.ActionRun,
				Status:  model.ResultImpossible,
				Path:    d.path,
				Type:    model.TypeDataset,
				RefDS:   refds,
				Message: err.Error(),
				Err:     err,
			}
			return []model.Result{res}, err
		}
	}

	cmd := exec.CommandContext(ctx, req.Command[0], req.Command[1:]...)
	cmd.Dir = d.path
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	d.l.Debug("running command", zap.Strings("cmd", req.Command))
	runErr := cmd.Run()
	record := runRecord{
		Cmd:       req.Command,
		DatasetID: d.cfg.ID,
		Pwd:       ".",
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, status.ErrRunFailed.Wrap(runErr)
		}
		record.ExitCode = exitErr.ExitCode()
		err := status.ErrRunFailed.Wrap(runErr)
		res := model.Result{
			Action:  model.ActionRun,
			Status:  model.ResultError,
			Path:    d.path,
			Type:    model.TypeDataset,
			RefDS:   refds,
			Message: err.Error(),
			Err:     err,
		}
		return []model.Result{res}, err
	}

	message, err := runMessage(req.Message, record)
	if err != nil {
		return nil, err
	}
	results := []model.Result{{
		Action: model.ActionRun,
		Status: model.ResultOK,
		Path:   d.path,
		Type:   model.TypeDataset,
		RefDS:  refds,
	}}
	saveResults, err := d.Save(ctx, SaveRequest{Message: message})
	results = append(results, saveResults...)
	return results, err
}

// runMessage renders the commit message for a recorded run. The record
// block is fenced so it survives manual message edits above it.
func runMessage(header string, record runRecord) (string, error) {
	if header == "" {
		header = strings.Join(record.Cmd, " ")
	}
	encoded, err := jsoniter.MarshalToString(record)
	if err != nil {
		return "", err
	}
	return "[DATATREE RUNCMD] " + header + "\n\n" +
		runRecordOpen + "\n" + encoded + "\n" + runRecordClose, nil
}

// parseRunRecord recovers the structured record from a run commit
// message, for re-execution tooling.
func parseRunRecord(message string) (runRecord, bool) {
	var rec runRecord
	start := strings.Index(message, runRecordOpen)
	end := strings.Index(message, runRecordClose)
	if start < 0 || end < 0 || end <= start {
		return rec, false
	}
	body := strings.TrimSpace(message[start+len(runRecordOpen) : end])
	if err := jsoniter.UnmarshalFromString(body, &rec); err != nil {
		return rec, false
	}
	return rec, true
}
