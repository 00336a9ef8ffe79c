// Copyright © 2024 Datatree Authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/datatree/datatree/pkg/model"
)

const (
	outputPlain = "plain"
	outputJSON  = "json"
)

// stateColors is the immutable state rendering table.
var stateColors = map[model.FileState]*color.Color{
	model.StateClean:     color.New(color.FgHiBlack),
	model.StateAdded:     color.New(color.FgGreen),
	model.StateModified:  color.New(color.FgYellow),
	model.StateDeleted:   color.New(color.FgRed),
	model.StateUntracked: color.New(color.FgCyan),
}

var resultColors = map[model.ResultStatus]*color.Color{
	model.ResultOK:         color.New(color.FgGreen),
	model.ResultNotNeeded:  color.New(color.FgHiBlack),
	model.ResultImpossible: color.New(color.FgYellow),
	model.ResultError:      color.New(color.FgRed),
}

// renderResults prints one line per result. Clean per path records stay
// silent unless --all asks for them.
func renderResults(flags *flagsT, results []model.Result) {
	enc := jsoniter.NewEncoder(stdout)
	cwd, _ := os.Getwd()
	for _, res := range results {
		if !flags.root.reportAll && suppressed(res) {
			continue
		}
		if flags.root.output == outputJSON {
			if err := enc.Encode(res); err != nil {
				wrapFatalln("encoding result", err)
				return
			}
			continue
		}
		fmt.Fprintln(stdout, renderLine(cwd, res))
	}
}

func suppressed(res model.Result) bool {
	switch res.Action {
	case model.ActionStatus, model.ActionDiff:
		return res.State == model.StateClean
	default:
		return res.Status == model.ResultNotNeeded
	}
}

// renderLine formats one plain mode line, paths shown relative to the
// working directory when possible.
func renderLine(cwd string, res model.Result) string {
	path := displayPath(cwd, res.Path)
	switch res.Action {
	case model.ActionStatus, model.ActionDiff:
		head := string(res.State)
		if c, ok := stateColors[res.State]; ok {
			head = c.Sprint(head)
		}
		line := fmt.Sprintf("%s: %s (%s)", head, path, res.Type)
		if res.Bytesize > 0 {
			line += fmt.Sprintf(" [%s]", units.HumanSize(float64(res.Bytesize)))
		}
		if res.Availability == model.AvailabilityAbsent {
			line += " [not here]"
		}
		return line
	default:
		head := string(res.Status)
		if c, ok := resultColors[res.Status]; ok {
			head = c.Sprint(head)
		}
		line := fmt.Sprintf("%s(%s): %s", res.Action, head, path)
		if res.Message != "" {
			line += " [" + res.Message + "]"
		}
		return line
	}
}

func displayPath(cwd, path string) string {
	if cwd == "" {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || len(rel) > len(path) {
		return path
	}
	return rel
}
