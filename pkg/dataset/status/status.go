// Package status exports errors produced by the dataset package.
package status

import (
	"github.com/datatree/datatree/pkg/errors"
)

var (
	// ErrNoDataset indicates that no dataset exists at or above a path
	ErrNoDataset = errors.New("no dataset found")

	// ErrDatasetExists indicates a creation target that already is a dataset
	ErrDatasetExists = errors.New("dataset already exists")

	// ErrNotEmpty indicates a creation target directory holding content
	ErrNotEmpty = errors.New("directory not empty")

	// ErrParentCollision indicates a creation target colliding with
	// content an enclosing dataset already tracks
	ErrParentCollision = errors.New("path collides with tracked content in enclosing dataset")

	// ErrOutsideDataset indicates a path argument beyond the dataset root
	ErrOutsideDataset = errors.New("path outside dataset")

	// ErrRunDirty refuses command execution on unsaved changes
	ErrRunDirty = errors.New("unsaved changes present, save or allow dirty runs")

	// ErrRunFailed indicates a run command exiting non-zero
	ErrRunFailed = errors.New("command failed")
)
