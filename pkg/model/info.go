// Copyright © 2024 Datatree Authors

package model

// ContentInfo describes one path of a dataset, either as found in the
// working tree or as recorded in a revision.
//
// GitSHA is empty for content without a recorded identity, such as
// untracked files. Bytesize, Key, Availability and ObjPath are only
// filled in for annexed content, after annex enrichment.
type ContentInfo struct {
	Type         PathType     `json:"type,omitempty" yaml:"type,omitempty"`
	GitSHA       string       `json:"gitshasum,omitempty" yaml:"gitshasum,omitempty"`
	Bytesize     int64        `json:"bytesize,omitempty" yaml:"bytesize,omitempty"`
	SizeKnown    bool         `json:"-" yaml:"-"`
	Key          string       `json:"key,omitempty" yaml:"key,omitempty"`
	Availability Availability `json:"has_content,omitempty" yaml:"has_content,omitempty"`
	ObjPath      string       `json:"objloc,omitempty" yaml:"objloc,omitempty"`
	_            struct{}
}

// HasIdentity tells whether the path carries a recorded object identity
func (c ContentInfo) HasIdentity() bool {
	return c.GitSHA != ""
}

// InfoMap holds ContentInfo records keyed by slash separated paths
// relative to the repository root, preserving discovery order.
type InfoMap struct {
	order []string
	items map[string]ContentInfo
}

// NewInfoMap builds an empty InfoMap
func NewInfoMap() *InfoMap {
	return &InfoMap{items: make(map[string]ContentInfo)}
}

// Len yields the number of records
func (m *InfoMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Has tells whether a record exists for path
func (m *InfoMap) Has(path string) bool {
	if m == nil {
		return false
	}
	_, ok := m.items[path]
	return ok
}

// Get yields the record for path
func (m *InfoMap) Get(path string) (ContentInfo, bool) {
	if m == nil {
		return ContentInfo{}, false
	}
	info, ok := m.items[path]
	return info, ok
}

// Set inserts or replaces the record for path. The discovery order of an
// existing path is preserved.
func (m *InfoMap) Set(path string, info ContentInfo) {
	if _, ok := m.items[path]; !ok {
		m.order = append(m.order, path)
	}
	m.items[path] = info
}

// SetIfAbsent inserts the record for path unless one exists already, and
// tells whether it inserted.
func (m *InfoMap) SetIfAbsent(path string, info ContentInfo) bool {
	if _, ok := m.items[path]; ok {
		return false
	}
	m.order = append(m.order, path)
	m.items[path] = info
	return true
}

// Paths yields all paths in discovery order
func (m *InfoMap) Paths() []string {
	if m == nil {
		return nil
	}
	paths := make([]string, len(m.order))
	copy(paths, m.order)
	return paths
}

// Range walks records in discovery order until fn returns false
func (m *InfoMap) Range(fn func(path string, info ContentInfo) bool) {
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
func (m *InfoMap) Clone() *InfoMap {
	clone := NewInfoMap()
	if m == nil {
		return clone
	}
	clone.order = make([]string, len(m.order))
	copy(clone.order, m.order)
	for path, info := range m.items {
		clone.items[path] = info
	}
	return clone
}
