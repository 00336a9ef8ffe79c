// Copyright © 2024 Datatree Authors

package model

import "sort"

// StatusEntry captures the classified state of one path relative to a
// reference revision.
//
// GitSHA carries the staged identity for clean, added and modified
// paths. For deleted paths it carries the reference identity when the
// deletion is already staged, and stays empty for a plain removal from
// disk. PrevSHA carries the reference identity whenever one exists, so
// revision ranges can be derived for nested datasets.
type StatusEntry struct {
	Type         PathType     `json:"type,omitempty" yaml:"type,omitempty"`
	State        FileState    `json:"state" yaml:"state"`
	GitSHA       string       `json:"gitshasum,omitempty" yaml:"gitshasum,omitempty"`
	PrevSHA      string       `json:"prev_gitshasum,omitempty" yaml:"prev_gitshasum,omitempty"`
	Bytesize     int64        `json:"bytesize,omitempty" yaml:"bytesize,omitempty"`
	SizeKnown    bool         `json:"-" yaml:"-"`
	Key          string       `json:"key,omitempty" yaml:"key,omitempty"`
	Availability Availability `json:"has_content,omitempty" yaml:"has_content,omitempty"`
	ObjPath      string       `json:"objloc,omitempty" yaml:"objloc,omitempty"`
	_            struct{}
}

// StatusMap holds StatusEntry records keyed by slash separated paths
// relative to the repository root, preserving classification order.
type StatusMap struct {
	order []string
	items map[string]StatusEntry
}

// NewStatusMap builds an empty StatusMap
func NewStatusMap() *StatusMap {
	return &StatusMap{items: make(map[string]StatusEntry)}
}

// Len yields the number of records
func (m *StatusMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Has tells whether a record exists for path
func (m *StatusMap) Has(path string) bool {
	if m == nil {
		return false
	}
	_, ok := m.items[path]
	return ok
}

// Get yields the record for path
func (m *StatusMap) Get(path string) (StatusEntry, bool) {
	if m == nil {
		return StatusEntry{}, false
	}
	entry, ok := m.items[path]
	return entry, ok
}

// Set inserts or replaces the record for path. The classification order
// of an existing path is preserved.
func (m *StatusMap) Set(path string, entry StatusEntry) {
	if _, ok := m.items[path]; !ok {
		m.order = append(m.order, path)
	}
	m.items[path] = entry
}

// Paths yields all paths in classification order
func (m *StatusMap) Paths() []string {
	if m == nil {
		return nil
	}
	paths := make([]string, len(m.order))
	copy(paths, m.order)
	return paths
}

// SortedPaths yields all paths in lexical order
func (m *StatusMap) SortedPaths() []string {
	paths := m.Paths()
	sort.Strings(paths)
	return paths
}

// Range walks records in classification order until fn returns false
func (m *StatusMap) Range(fn func(path string, entry StatusEntry) bool) {
	if m == nil {
		return
	}
	for _, path := range m.order {
		if !fn(path, m.items[path]) {
			return
		}
	}
}

// Clone yields an independent copy
func (m *StatusMap) Clone() *StatusMap {
	clone := NewStatusMap()
	if m == nil {
		return clone
	}
	clone.order = make([]string, len(m.order))
	copy(clone.order, m.order)
	for path, entry := range m.items {
		clone.items[path] = entry
	}
	return clone
}

// AllClean tells whether every record is in the clean state
func (m *StatusMap) AllClean() bool {
	clean := true
	m.Range(func(_ string, entry StatusEntry) bool {
		if entry.State != StateClean {
			clean = false
			return false
		}
		return true
	})
	return clean
}

// CountByState tallies records per state
func (m *StatusMap) CountByState() map[FileState]int {
	counts := make(map[FileState]int)
	m.Range(func(_ string, entry StatusEntry) bool {
		counts[entry.State]++
		return true
	})
	return counts
}
