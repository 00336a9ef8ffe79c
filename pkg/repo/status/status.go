// Package status exports errors produced by the repo package.
package status

import (
	"github.com/datatree/datatree/pkg/errors"
)

var (
	// ErrNotARepo indicates a path that is not a valid repository root
	ErrNotARepo = errors.New("not a valid repository")

	// ErrInvalidRef indicates a reference the repository cannot resolve
	ErrInvalidRef = errors.New("invalid reference")

	// ErrNoHead indicates a repository without any commit yet
	ErrNoHead = errors.New("repository has no commit yet")

	// ErrCorruptStatus indicates a nested dataset record in a state the
	// classifier can never produce, pointing at an internal defect
	ErrCorruptStatus = errors.New("unexpected nested dataset state")

	// ErrBadRecord indicates a listing record that could not be parsed
	ErrBadRecord = errors.New("unparseable listing record")

	// ErrSave indicates a failed save operation
	ErrSave = errors.New("save failed")
)
