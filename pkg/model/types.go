// Copyright © 2024 Datatree Authors

package model

// EmptyTreeRef is the object id of the well known empty tree, present in
// every repository. Diffing a revision against it reports every path as
// added, which is how the very first revision of a dataset is described.
const EmptyTreeRef = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// PathType describes what a path is, in a dataset worktree or revision.
type PathType string

const (
	// TypeFile is a regular file, or an annex placeholder link
	TypeFile PathType = "file"

	// TypeSymlink is a symbolic link that is not an annex placeholder
	TypeSymlink PathType = "symlink"

	// TypeDataset is a linked subdataset
	TypeDataset PathType = "dataset"

	// TypeDirectory is a directory, only reported for untracked content
	TypeDirectory PathType = "directory"
)

// TypeFromMode maps a git tree entry mode to a PathType.
//
// Unrecognized modes pass through as raw mode strings, so callers never
// lose information on exotic entries.
func TypeFromMode(mode string) PathType {
	switch mode {
	case "100644", "100755":
		return TypeFile
	case "120000":
		return TypeSymlink
	case "160000":
		return TypeDataset
	default:
		return PathType(mode)
	}
}

// FileState classifies a path relative to a reference revision.
type FileState string

const (
	// StateClean means recorded and unchanged
	StateClean FileState = "clean"

	// StateAdded means staged but unknown to the reference revision
	StateAdded FileState = "added"

	// StateModified means known to the reference revision, with changes
	StateModified FileState = "modified"

	// StateDeleted means known to the reference revision, gone now
	StateDeleted FileState = "deleted"

	// StateUntracked means present on disk but never recorded
	StateUntracked FileState = "untracked"
)

// UntrackedMode controls how untracked content is reported.
type UntrackedMode string

const (
	// UntrackedNo suppresses untracked content entirely
	UntrackedNo UntrackedMode = "no"

	// UntrackedNormal reports entirely untracked directories as a single
	// directory record instead of listing their files
	UntrackedNormal UntrackedMode = "normal"

	// UntrackedAll reports every untracked file individually
	UntrackedAll UntrackedMode = "all"
)

// Validate reports ErrInvalidUntrackedMode for values outside the
// supported set.
func (u UntrackedMode) Validate() error {
	switch u {
	case UntrackedNo, UntrackedNormal, UntrackedAll:
		return nil
	}
	return ErrInvalidUntrackedMode.Wrap(errUnknownValue(string(u)))
}

// IgnoreSubmodules controls how nested dataset state is evaluated.
type IgnoreSubmodules string

const (
	// IgnoreSubmodulesNone evaluates nested datasets exhaustively
	IgnoreSubmodulesNone IgnoreSubmodules = "no"

	// IgnoreSubmodulesOther answers only whether a nested dataset is
	// modified at all, stopping at the first finding
	IgnoreSubmodulesOther IgnoreSubmodules = "other"

	// IgnoreSubmodulesAll skips nested dataset evaluation entirely
	IgnoreSubmodulesAll IgnoreSubmodules = "all"
)

// Validate reports ErrInvalidIgnoreSubmodules for values outside the
// supported set.
func (i IgnoreSubmodules) Validate() error {
	switch i {
	case IgnoreSubmodulesNone, IgnoreSubmodulesOther, IgnoreSubmodulesAll:
		return nil
	}
	return ErrInvalidIgnoreSubmodules.Wrap(errUnknownValue(string(i)))
}

// Availability is the tri-state local presence of annexed content.
type Availability int8

const (
	// AvailabilityUnknown means presence was not evaluated
	AvailabilityUnknown Availability = iota

	// AvailabilityPresent means the content object exists locally
	AvailabilityPresent

	// AvailabilityAbsent means only the placeholder exists locally
	AvailabilityAbsent
)

func (a Availability) String() string {
	switch a {
	case AvailabilityPresent:
		return "present"
	case AvailabilityAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// MarshalJSON renders availability as a boolean
func (a Availability) MarshalJSON() ([]byte, error) {
	if a == AvailabilityPresent {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}
