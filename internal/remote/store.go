// Package remote defines the capability a hosting backend must provide for
// publishing, and the error taxonomy every backend maps its failures onto.
// The engine only ever talks to this interface; the GitHub implementation
// lives in internal/github and tests substitute an in-memory fake.
package remote

import "context"

// Identity is the account the credential authenticates as.
type Identity struct {
	Login string
}

// PagesState tracks the hosting feature's activation. Transitions are
// monotonic within one publish session: Disabled → Enabling → Propagating →
// Active. The remote side may change it out-of-band between sessions, so it
// is re-read fresh each time.
type PagesState int

const (
	PagesDisabled PagesState = iota
	PagesEnabling
	PagesPropagating
	PagesActive
)

func (s PagesState) String() string {
	switch s {
	case PagesDisabled:
		return "disabled"
	case PagesEnabling:
		return "enabling"
	case PagesPropagating:
		return "propagating"
	case PagesActive:
		return "active"
	default:
		return "unknown"
	}
}

// RepoState is the provisioning outcome for the target repository.
type RepoState struct {
	Existed bool // false if this call created the repository
	Pages   PagesState
}

// Index maps repository-relative paths to content fingerprints (git blob
// SHAs). Built from directory listings only — no content is downloaded.
type Index map[string]string

// Store is the remote hosting capability.
//
// Put's sha argument carries optimistic concurrency: empty means "create,
// fail if the path exists"; non-empty means "overwrite exactly this prior
// version, fail with ConflictError otherwise".
type Store interface {
	// Login makes one lightweight authenticated call and returns who the
	// credential belongs to. Implementations must not retry: this gates all
	// subsequent work and a definitive answer is wanted.
	Login(ctx context.Context) (Identity, error)

	// EnsureRepo gets or creates the named repository. A created repository
	// is initialized with a default branch so the pages source exists
	// immediately; an existing repository's visibility is never altered.
	EnsureRepo(ctx context.Context, name string, private bool) (RepoState, error)

	// EnsurePages enables the pages feature (source: default branch, root)
	// if it is not already enabled. Returns without waiting for propagation.
	EnsurePages(ctx context.Context, repo string) (PagesState, error)

	// Pages reads the current pages activation state.
	Pages(ctx context.Context, repo string) (PagesState, error)

	// Index returns fingerprints for every file under the given directories
	// ("" meaning the repository root, non-recursive for the document).
	// Directories that do not exist remotely contribute nothing.
	Index(ctx context.Context, repo string, dirs []string) (Index, error)

	// Stat returns the fingerprint of a single path, or ErrNotFound.
	Stat(ctx context.Context, repo, path string) (string, error)

	// Put writes content at path and returns the new fingerprint.
	Put(ctx context.Context, repo, path string, content []byte, sha string) (string, error)
}
