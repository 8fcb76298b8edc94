// Package engine computes sync plans and executes them against a remote
// store: diff first, then bounded-concurrency uploads with the document
// held back until every asset is in place.
package engine

import (
	"github.com/markpigeon/publish/internal/bundle"
	"github.com/markpigeon/publish/internal/remote"
)

// BuildPlan diffs the local bundle against the remote index.
//
// Per file: absent remotely means create; identical fingerprint means skip;
// differing fingerprint means update, carrying the remote SHA as the version
// token for the optimistic-concurrency write. Fingerprints are git blob SHAs
// on both sides, so no remote content is ever fetched to decide.
//
// Remote files with no local counterpart are left alone — deleting them here
// would be a destructive surprise. Pruning is a separate, explicit operation.
func BuildPlan(b *bundle.Bundle, idx remote.Index) *Plan {
	p := &Plan{}
	for _, f := range b.Assets {
		p.Assets = append(p.Assets, planFile(f, idx, false))
	}
	p.Document = planFile(b.Document, idx, true)
	return p
}

func planFile(f bundle.File, idx remote.Index, doc bool) Action {
	a := Action{Path: f.Path, Content: f.Content, Document: doc}
	remoteSHA, ok := idx[f.Path]
	switch {
	case !ok:
		a.Kind = ActionCreate
	case remoteSHA == f.SHA:
		a.Kind = ActionSkip
	default:
		a.Kind = ActionUpdate
		a.SHA = remoteSHA
	}
	return a
}
