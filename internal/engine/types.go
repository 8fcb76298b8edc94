package engine

import (
	"github.com/markpigeon/publish/internal/remote"
)

// ActionKind says what the executor must do for one file.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionSkip   ActionKind = "skip"
)

// Action is one entry of a sync plan.
type Action struct {
	Path     string
	Kind     ActionKind
	Content  []byte
	SHA      string // remote version token; set for updates only
	Document bool   // the primary document, executed after all assets
}

// Plan is the ordered set of per-file actions for one publish: assets first
// (sorted by path), the document strictly last. Computed fresh per publish
// and discarded after execution.
type Plan struct {
	Assets   []Action
	Document Action
}

// Actions returns the plan in execution order, document last.
func (p *Plan) Actions() []Action {
	out := make([]Action, 0, len(p.Assets)+1)
	out = append(out, p.Assets...)
	return append(out, p.Document)
}

// Uploads counts actions that will hit the network.
func (p *Plan) Uploads() int {
	n := 0
	for _, a := range p.Assets {
		if a.Kind != ActionSkip {
			n++
		}
	}
	if p.Document.Kind != ActionSkip {
		n++
	}
	return n
}

// Status is the terminal state of one file's action.
type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Reasons attached to Skipped outcomes.
const (
	ReasonUnchanged  = "unchanged"
	ReasonDependency = "dependency failure"
)

// Outcome records what happened to one file.
type Outcome struct {
	Status Status
	Reason string // human-readable detail for skips and failures
	Err    error  // set for failures
}

// Result is the overall publish outcome returned to the caller.
type Result struct {
	URL      string
	Pages    remote.PagesState
	Files    map[string]Outcome
	Warnings []string
}

// Failed reports whether any file ended in a failed outcome.
func (r *Result) Failed() bool {
	for _, o := range r.Files {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Uploaded counts files actually written this session.
func (r *Result) Uploaded() int {
	n := 0
	for _, o := range r.Files {
		if o.Status == StatusUploaded {
			n++
		}
	}
	return n
}

// EventKind tags progress events.
type EventKind string

const (
	FileStarted   EventKind = "started"
	FileCompleted EventKind = "completed"
	FileFailed    EventKind = "failed"
)

// Event is one progress notification delivered while a plan executes.
type Event struct {
	Kind    EventKind
	Path    string
	Outcome Outcome // valid for completed and failed events
}
