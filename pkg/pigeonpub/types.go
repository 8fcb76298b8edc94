package pigeonpub

import (
	"github.com/markpigeon/publish/internal/bundle"
	"github.com/markpigeon/publish/internal/engine"
	"github.com/markpigeon/publish/internal/remote"
)

// Type aliases re-export internal types as the public API. Users import
// "github.com/markpigeon/publish/pkg/pigeonpub" and use pigeonpub.Result,
// pigeonpub.PagesState, etc.

type Bundle = bundle.Bundle
type File = bundle.File

type Plan = engine.Plan
type Action = engine.Action
type ActionKind = engine.ActionKind
type Result = engine.Result
type Outcome = engine.Outcome
type Status = engine.Status
type Event = engine.Event
type EventKind = engine.EventKind

type Identity = remote.Identity
type PagesState = remote.PagesState
type RepoState = remote.RepoState
type Store = remote.Store

const (
	ActionCreate = engine.ActionCreate
	ActionUpdate = engine.ActionUpdate
	ActionSkip   = engine.ActionSkip

	StatusUploaded  = engine.StatusUploaded
	StatusSkipped   = engine.StatusSkipped
	StatusFailed    = engine.StatusFailed
	StatusCancelled = engine.StatusCancelled

	FileStarted   = engine.FileStarted
	FileCompleted = engine.FileCompleted
	FileFailed    = engine.FileFailed

	PagesDisabled    = remote.PagesDisabled
	PagesEnabling    = remote.PagesEnabling
	PagesPropagating = remote.PagesPropagating
	PagesActive      = remote.PagesActive
)

// ErrPrivacyNotAcknowledged is returned by Publish until the user accepts
// that published documents are publicly reachable.
var ErrPrivacyNotAcknowledged = remote.ErrPrivacyNotAcknowledged
