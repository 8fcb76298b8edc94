package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/markpigeon/publish/internal/bundle"
	"github.com/markpigeon/publish/internal/remote"
)

// fakeStore is an in-memory remote.Store for executor tests.
type fakeStore struct {
	mu       sync.Mutex
	files    map[string]string // path -> sha
	putOrder []string
	puts     map[string]int          // path -> attempt count
	failures map[string][]error      // path -> errors returned before succeeding
	onPut    func(path string, sha string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:    make(map[string]string),
		puts:     make(map[string]int),
		failures: make(map[string][]error),
	}
}

func (f *fakeStore) Login(ctx context.Context) (remote.Identity, error) {
	return remote.Identity{Login: "alice"}, nil
}

func (f *fakeStore) EnsureRepo(ctx context.Context, name string, private bool) (remote.RepoState, error) {
	return remote.RepoState{Existed: true}, nil
}

func (f *fakeStore) EnsurePages(ctx context.Context, repo string) (remote.PagesState, error) {
	return remote.PagesActive, nil
}

func (f *fakeStore) Pages(ctx context.Context, repo string) (remote.PagesState, error) {
	return remote.PagesActive, nil
}

func (f *fakeStore) Index(ctx context.Context, repo string, dirs []string) (remote.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := make(remote.Index, len(f.files))
	for p, sha := range f.files {
		idx[p] = sha
	}
	return idx, nil
}

func (f *fakeStore) Stat(ctx context.Context, repo, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.files[path]
	if !ok {
		return "", remote.ErrNotFound
	}
	return sha, nil
}

func (f *fakeStore) Put(ctx context.Context, repo, path string, content []byte, sha string) (string, error) {
	f.mu.Lock()
	f.puts[path]++
	if pending := f.failures[path]; len(pending) > 0 {
		err := pending[0]
		f.failures[path] = pending[1:]
		f.mu.Unlock()
		return "", err
	}
	newSHA := bundle.BlobSHA(content)
	f.files[path] = newSHA
	f.putOrder = append(f.putOrder, path)
	hook := f.onPut
	f.mu.Unlock()
	if hook != nil {
		hook(path, sha)
	}
	return newSHA, nil
}

func (f *fakeStore) putCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts[path]
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func execPlan(t *testing.T, store *fakeStore, plan *Plan, workers int) *Result {
	t.Helper()
	exec := &Executor{Store: store, Repo: "shelf", Workers: workers, Sleep: noSleep}
	return exec.Execute(context.Background(), plan)
}

func nAssetPlan(n int) *Plan {
	p := &Plan{}
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("assets_doc/%d.png", i)
		p.Assets = append(p.Assets, Action{Path: path, Kind: ActionCreate, Content: []byte(path)})
	}
	p.Document = Action{Path: "doc.html", Kind: ActionCreate, Content: []byte("doc"), Document: true}
	return p
}

func TestExecute_allSkipUploadsNothing(t *testing.T) {
	store := newFakeStore()
	plan := &Plan{
		Assets:   []Action{{Path: "assets_doc/1.png", Kind: ActionSkip}},
		Document: Action{Path: "doc.html", Kind: ActionSkip, Document: true},
	}

	result := execPlan(t, store, plan, 3)

	if got := result.Uploaded(); got != 0 {
		t.Errorf("uploaded = %d, want 0", got)
	}
	for path, out := range result.Files {
		if out.Status != StatusSkipped || out.Reason != ReasonUnchanged {
			t.Errorf("%s: %+v, want skipped/unchanged", path, out)
		}
	}
	if len(store.putOrder) != 0 {
		t.Errorf("store saw writes: %v", store.putOrder)
	}
}

func TestExecute_documentStrictlyAfterAssets(t *testing.T) {
	store := newFakeStore()
	plan := nAssetPlan(6)

	result := execPlan(t, store, plan, 3)

	if result.Failed() {
		t.Fatalf("unexpected failures: %+v", result.Files)
	}
	if len(store.putOrder) != 7 {
		t.Fatalf("put order: %v", store.putOrder)
	}
	if last := store.putOrder[len(store.putOrder)-1]; last != "doc.html" {
		t.Errorf("document uploaded before assets finished: %v", store.putOrder)
	}
}

func TestExecute_dependencyShortCircuit(t *testing.T) {
	store := newFakeStore()
	plan := nAssetPlan(3)
	// One asset fails permanently.
	store.failures["assets_doc/1.png"] = []error{
		&remote.ConflictError{Path: "assets_doc/1.png", Err: errors.New("sha mismatch")},
	}

	result := execPlan(t, store, plan, 2)

	if out := result.Files["assets_doc/1.png"]; out.Status != StatusFailed {
		t.Errorf("failed asset outcome: %+v", out)
	}
	doc := result.Files["doc.html"]
	if doc.Status != StatusSkipped || doc.Reason != ReasonDependency {
		t.Errorf("document outcome: %+v, want skipped/dependency", doc)
	}
	if store.putCount("doc.html") != 0 {
		t.Error("document must not be uploaded when an asset failed")
	}
	// Other assets still ran to completion.
	if out := result.Files["assets_doc/2.png"]; out.Status != StatusUploaded {
		t.Errorf("sibling asset outcome: %+v", out)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about the withheld document")
	}
}

func TestExecute_conflictNotRetried(t *testing.T) {
	store := newFakeStore()
	conflict := &remote.ConflictError{Path: "doc.html", Err: errors.New("sha mismatch")}
	store.failures["doc.html"] = []error{conflict, conflict, conflict}
	store.files["doc.html"] = "oldsha"

	plan := &Plan{
		Document: Action{Path: "doc.html", Kind: ActionUpdate, SHA: "staletoken", Content: []byte("doc"), Document: true},
	}
	result := execPlan(t, store, plan, 1)

	out := result.Files["doc.html"]
	if out.Status != StatusFailed || !remote.IsConflict(out.Err) {
		t.Errorf("outcome: %+v, want failed conflict", out)
	}
	if got := store.putCount("doc.html"); got != 1 {
		t.Errorf("put attempts = %d, want 1 (conflicts are never retried)", got)
	}
}

func TestExecute_retriesRateLimitWithBackoff(t *testing.T) {
	store := newFakeStore()
	rl := &remote.RateLimitError{Err: errors.New("secondary limit")}
	store.failures["assets_doc/0.png"] = []error{rl, rl}

	var slept []time.Duration
	plan := nAssetPlan(1)
	exec := &Executor{
		Store:       store,
		Repo:        "shelf",
		Workers:     1,
		BackoffBase: 100 * time.Millisecond,
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}
	result := exec.Execute(context.Background(), plan)

	if out := result.Files["assets_doc/0.png"]; out.Status != StatusUploaded {
		t.Fatalf("outcome: %+v", out)
	}
	if got := store.putCount("assets_doc/0.png"); got != 3 {
		t.Errorf("put attempts = %d, want 3", got)
	}
	if len(slept) != 2 || slept[0] != 100*time.Millisecond || slept[1] != 200*time.Millisecond {
		t.Errorf("backoff delays = %v, want [100ms 200ms]", slept)
	}
}

func TestExecute_exhaustedRetriesFail(t *testing.T) {
	store := newFakeStore()
	ne := &remote.NetworkError{Err: errors.New("timeout")}
	store.failures["assets_doc/0.png"] = []error{ne, ne, ne, ne, ne, ne}

	plan := nAssetPlan(1)
	exec := &Executor{Store: store, Repo: "shelf", Workers: 1, MaxAttempts: 3, Sleep: noSleep}
	result := exec.Execute(context.Background(), plan)

	if out := result.Files["assets_doc/0.png"]; out.Status != StatusFailed {
		t.Fatalf("outcome: %+v", out)
	}
	if got := store.putCount("assets_doc/0.png"); got != 3 {
		t.Errorf("put attempts = %d, want 3", got)
	}
}

func TestExecute_createRaceBecomesUpdate(t *testing.T) {
	// The path appeared remotely between planning and execution: the create
	// hits a conflict, the executor re-stats and retries once as an update.
	store := newFakeStore()
	store.files["doc.html"] = "freshsha"
	store.failures["doc.html"] = []error{
		&remote.ConflictError{Path: "doc.html", Err: errors.New("path already exists")},
	}

	var tokens []string
	store.onPut = func(path, sha string) {
		tokens = append(tokens, sha)
	}

	plan := &Plan{
		Document: Action{Path: "doc.html", Kind: ActionCreate, Content: []byte("doc"), Document: true},
	}
	result := execPlan(t, store, plan, 1)

	out := result.Files["doc.html"]
	if out.Status != StatusUploaded {
		t.Fatalf("outcome: %+v", out)
	}
	if got := store.putCount("doc.html"); got != 2 {
		t.Errorf("put attempts = %d, want 2", got)
	}
	if len(tokens) != 1 || tokens[0] != "freshsha" {
		t.Errorf("retry must carry the freshly fetched token, got %v", tokens)
	}
}

func TestExecute_cancelledBeforeStart(t *testing.T) {
	store := newFakeStore()
	plan := nAssetPlan(4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &Executor{Store: store, Repo: "shelf", Workers: 2, Sleep: noSleep}
	result := exec.Execute(ctx, plan)

	if len(result.Files) != 5 {
		t.Fatalf("outcomes = %d, want 5", len(result.Files))
	}
	for path, out := range result.Files {
		if out.Status != StatusCancelled {
			t.Errorf("%s: %+v, want cancelled", path, out)
		}
	}
	if len(store.putOrder) != 0 {
		t.Errorf("no writes expected, got %v", store.putOrder)
	}
}

func TestExecute_cancelMidFlight(t *testing.T) {
	store := newFakeStore()
	plan := nAssetPlan(5)

	ctx, cancel := context.WithCancel(context.Background())
	store.onPut = func(path, sha string) { cancel() }

	exec := &Executor{Store: store, Repo: "shelf", Workers: 1, Sleep: noSleep}
	result := exec.Execute(ctx, plan)

	// Every file in the plan has exactly one terminal outcome, and the total
	// of recorded plus cancelled covers the whole plan.
	if len(result.Files) != 6 {
		t.Fatalf("outcomes = %d, want 6", len(result.Files))
	}
	uploaded, cancelled := 0, 0
	for path, out := range result.Files {
		switch out.Status {
		case StatusUploaded:
			uploaded++
		case StatusCancelled:
			cancelled++
		default:
			t.Errorf("%s: unexpected status %s", path, out.Status)
		}
	}
	if uploaded < 1 || uploaded+cancelled != 6 {
		t.Errorf("uploaded=%d cancelled=%d", uploaded, cancelled)
	}
	if result.Files["doc.html"].Status != StatusCancelled {
		t.Errorf("document outcome: %+v", result.Files["doc.html"])
	}
}

func TestExecute_progressEvents(t *testing.T) {
	store := newFakeStore()
	plan := nAssetPlan(2)
	store.failures["assets_doc/1.png"] = []error{
		&remote.ConflictError{Path: "assets_doc/1.png", Err: errors.New("boom")},
	}

	var events []Event
	exec := &Executor{
		Store:   store,
		Repo:    "shelf",
		Workers: 2,
		Sleep:   noSleep,
		Events:  func(ev Event) { events = append(events, ev) },
	}
	exec.Execute(context.Background(), plan)

	var started, completed, failed int
	for _, ev := range events {
		switch ev.Kind {
		case FileStarted:
			started++
		case FileCompleted:
			completed++
		case FileFailed:
			failed++
		}
	}
	if started != 2 || completed != 1 || failed != 1 {
		t.Errorf("events started=%d completed=%d failed=%d: %+v", started, completed, failed, events)
	}
}
