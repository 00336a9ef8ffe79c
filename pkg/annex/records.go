package annex

import (
	"context"
	"strings"

	"github.com/datatree/datatree/pkg/annex/status"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/gitexec"
	jsoniter "github.com/json-iterator/go"
)

// findRecord is one line of annex find or findref JSON output.
//
// Bytesize stays a string on the wire.
type findRecord struct {
	File         string   `json:"file"`
	Key          string   `json:"key"`
	Bytesize     string   `json:"bytesize"`
	Backend      string   `json:"backend"`
	HashDirLower string   `json:"hashdirlower"`
	HashDirMixed string   `json:"hashdirmixed"`
	ErrorMsgs    []string `json:"error-messages"`
}

func decodeFindRecord(line string) (findRecord, error) {
	var rec findRecord
	if err := jsoniter.UnmarshalFromString(line, &rec); err != nil {
		return rec, status.ErrBadRecord.Wrap(err)
	}
	if rec.File == "" || rec.Key == "" {
		return rec, status.ErrBadRecord.Wrap(errors.New("record without file or key: " + line))
	}
	return rec, nil
}

// addRecord is one line of annex add JSON output.
type addRecord struct {
	Command   string   `json:"command"`
	File      string   `json:"file"`
	Key       string   `json:"key"`
	Success   bool     `json:"success"`
	ErrorMsgs []string `json:"error-messages"`
}

// AddResult reports the outcome of staging one path through the annex.
type AddResult struct {
	Path string
	Key  string
	Err  error
	_    struct{}
}

// Add stages the given paths, letting annex decide per path whether
// content goes to the annex or directly to git. Outcomes are reported
// per path, a failing path does not abort the remaining ones.
func (x *Ext) Add(ctx context.Context, paths []string) ([]AddResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	args := append([]string{"annex", "add", "--json", "--"}, paths...)
	out, err := x.run.Run(ctx, args...)
	if err != nil {
		// annex add exits non zero when any path failed, its JSON
		// output still describes the paths it processed
		var cmdErr *gitexec.CmdError
		if !errors.As(err, &cmdErr) || cmdErr.Stdout == "" {
			return nil, status.ErrAnnex.Wrap(err)
		}
		out = []byte(cmdErr.Stdout)
	}

	var results []AddResult
	seen := make(map[string]struct{})
	for _, line := range gitexec.SplitLines(out) {
		var rec addRecord
		if err := jsoniter.UnmarshalFromString(line, &rec); err != nil {
			return nil, status.ErrBadRecord.Wrap(err)
		}
		if rec.File == "" {
			continue
		}
		seen[rec.File] = struct{}{}
		res := AddResult{Path: rec.File, Key: rec.Key}
		if !rec.Success {
			res.Err = status.ErrAnnex.Wrap(
				errors.New("add failed: " + strings.Join(rec.ErrorMsgs, "; ")))
		}
		results = append(results, res)
	}
	// paths the annex never reported on count as failed
	for _, p := range paths {
		if _, ok := seen[p]; !ok {
			results = append(results, AddResult{
				Path: p,
				Err:  status.ErrAnnex.Wrap(errors.New("no outcome reported for " + p)),
			})
		}
	}
	return results, nil
}
