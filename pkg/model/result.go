package model

// ResultStatus is the outcome class of one operation result.
type ResultStatus string

const (
	// ResultOK is a successful operation on the path
	ResultOK ResultStatus = "ok"

	// ResultNotNeeded means there was nothing to do for the path
	ResultNotNeeded ResultStatus = "notneeded"

	// ResultImpossible means the request cannot be satisfied as posed
	ResultImpossible ResultStatus = "impossible"

	// ResultError is an actual failure on the path
	ResultError ResultStatus = "error"
)

// Operation actions reported in results.
const (
	ActionStatus  = "status"
	ActionDiff    = "diff"
	ActionAdd     = "add"
	ActionDelete  = "delete"
	ActionSave    = "save"
	ActionCreate  = "create"
	ActionRun     = "run"
	ActionTag     = "tag"
)

// Result is one record of the stream emitted by dataset commands.
//
// Path is absolute. RefDS is the dataset the command was issued on,
// ParentDS the dataset immediately containing the path.
type Result struct {
	Action       string       `json:"action" yaml:"action"`
	Status       ResultStatus `json:"status" yaml:"status"`
	Path         string       `json:"path" yaml:"path"`
	Type         PathType     `json:"type,omitempty" yaml:"type,omitempty"`
	State        FileState    `json:"state,omitempty" yaml:"state,omitempty"`
	RefDS        string       `json:"refds,omitempty" yaml:"refds,omitempty"`
	ParentDS     string       `json:"parentds,omitempty" yaml:"parentds,omitempty"`
	GitSHA       string       `json:"gitshasum,omitempty" yaml:"gitshasum,omitempty"`
	PrevSHA      string       `json:"prev_gitshasum,omitempty" yaml:"prev_gitshasum,omitempty"`
	Bytesize     int64        `json:"bytesize,omitempty" yaml:"bytesize,omitempty"`
	Key          string       `json:"key,omitempty" yaml:"key,omitempty"`
	Availability Availability `json:"has_content,omitempty" yaml:"has_content,omitempty"`
	ObjPath      string       `json:"objloc,omitempty" yaml:"objloc,omitempty"`
	Message      string       `json:"message,omitempty" yaml:"message,omitempty"`
	Err          error        `json:"-" yaml:"-"`
	_            struct{}
}

// IsError tells whether the result reports a failure
func (r Result) IsError() bool {
	return r.Status == ResultError
}

// StatusResult derives a status stream record from a classified entry.
func StatusResult(refds, parentds, path string, entry StatusEntry) Result {
	return Result{
		Action:       ActionStatus,
		Status:       ResultOK,
		Path:         path,
		Type:         entry.Type,
		State:        entry.State,
		RefDS:        refds,
		ParentDS:     parentds,
		GitSHA:       entry.GitSHA,
		PrevSHA:      entry.PrevSHA,
		Bytesize:     entry.Bytesize,
		Key:          entry.Key,
		Availability: entry.Availability,
		ObjPath:      entry.ObjPath,
	}
}

// DiffResult derives a diff stream record from a classified entry.
func DiffResult(refds, parentds, path string, entry StatusEntry) Result {
	r := StatusResult(refds, parentds, path, entry)
	r.Action = ActionDiff
	return r
}
