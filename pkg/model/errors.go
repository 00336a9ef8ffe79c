package model

import (
	"fmt"

	"github.com/datatree/datatree/pkg/errors"
)

var (
	// ErrInvalidUntrackedMode indicates an untracked reporting mode
	// outside of no, normal, all
	ErrInvalidUntrackedMode = errors.New("invalid untracked mode")

	// ErrInvalidIgnoreSubmodules indicates a submodule reporting mode
	// outside of no, other, all
	ErrInvalidIgnoreSubmodules = errors.New("invalid ignore submodules mode")
)

func errUnknownValue(v string) error {
	return fmt.Errorf("unsupported value %q", v)
}
