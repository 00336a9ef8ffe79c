// Package status exports errors produced by the annex package.
package status

import (
	"github.com/datatree/datatree/pkg/errors"
)

var (
	// ErrAnnex indicates a failed annex invocation
	ErrAnnex = errors.New("annex command failed")

	// ErrNoAnnex indicates the repository has no initialized annex
	ErrNoAnnex = errors.New("repository has no initialized annex")

	// ErrBadRecord indicates an annex record that could not be decoded
	ErrBadRecord = errors.New("unparseable annex record")
)
