// Package pigeonpub publishes a locally generated document bundle (one HTML
// file plus its assets directory) to a GitHub repository served via Pages,
// and returns the public URL.
//
// # Basic usage
//
//	pub := &pigeonpub.Publisher{
//	    Store:    githubstore.New(token),
//	    Settings: settings,
//	}
//
//	b, err := pigeonpub.LoadBundle("doc.html", "assets_doc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := pub.Publish(ctx, b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.URL)
//
// Publish uploads only what changed: local fingerprints are compared against
// the remote file index, so an unchanged file costs nothing beyond the index
// read. Assets always land before the document does.
package pigeonpub

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/markpigeon/publish/internal/bundle"
	"github.com/markpigeon/publish/internal/config"
	"github.com/markpigeon/publish/internal/engine"
	"github.com/markpigeon/publish/internal/remote"
)

// Settings re-exports the settings file type.
type Settings = config.Settings

// LoadSettings reads a markpigeon.yaml settings file, falling back to
// defaults when it does not exist.
func LoadSettings(path string) (*Settings, error) {
	return config.Load(path)
}

// SaveSettings writes a settings file.
func SaveSettings(path string, s *Settings) error {
	return config.Save(path, s)
}

// LoadBundle snapshots the document and its assets directory. Pass an empty
// assetsDir for a document with no assets.
func LoadBundle(docPath, assetsDir string) (*Bundle, error) {
	return bundle.Load(docPath, assetsDir)
}

// Publisher drives one publish session. Each session owns its bundle, remote
// index snapshot and plan exclusively; nothing is shared across sessions.
type Publisher struct {
	Store    Store
	Settings Settings
	Logger   *slog.Logger
	Events   func(Event) // optional per-file progress observer

	identity Identity
}

// CheckConnection validates the credential with a single authenticated call
// and returns the account it belongs to. No retries.
func (p *Publisher) CheckConnection(ctx context.Context) (Identity, error) {
	id, err := p.Store.Login(ctx)
	if err != nil {
		return Identity{}, err
	}
	p.identity = id
	return id, nil
}

// Plan computes the sync plan without writing anything. If the repository
// does not exist yet the remote index is empty and every file plans as a
// create.
func (p *Publisher) Plan(ctx context.Context, b *Bundle) (*Plan, error) {
	if _, err := p.login(ctx); err != nil {
		return nil, err
	}
	idx, err := p.index(ctx, b)
	if err != nil {
		return nil, err
	}
	return engine.BuildPlan(b, idx), nil
}

// Publish runs the whole pipeline: privacy gate, credential check, repository
// and pages provisioning, diff, upload. Session-level failures (auth,
// provisioning, privacy) return an error before any upload starts; per-file
// failures are contained in the result's outcome map.
//
// The returned result carries the public URL and the pages state as observed
// — activation propagates remotely on its own schedule, commonly under two
// minutes. Use WaitPages to optionally block until it finishes.
func (p *Publisher) Publish(ctx context.Context, b *Bundle) (*Result, error) {
	if !p.Settings.PrivacyAcknowledged {
		return nil, ErrPrivacyNotAcknowledged
	}

	id, err := p.login(ctx)
	if err != nil {
		return nil, err
	}
	logger := p.logger()

	repoState, err := p.Store.EnsureRepo(ctx, p.Settings.Repo, p.Settings.Private())
	if err != nil {
		return nil, err
	}
	if !repoState.Existed {
		logger.Info("created repository", "repo", p.Settings.Repo)
	}

	pages, err := p.Store.EnsurePages(ctx, p.Settings.Repo)
	if err != nil {
		return nil, err
	}

	idx, err := p.index(ctx, b)
	if err != nil {
		return nil, err
	}

	plan := engine.BuildPlan(b, idx)
	logger.Info("sync plan ready",
		"files", len(plan.Assets)+1,
		"uploads", plan.Uploads())

	exec := &engine.Executor{
		Store:   p.Store,
		Repo:    p.Settings.Repo,
		Workers: p.Settings.Workers,
		Logger:  logger,
		Events:  p.Events,
	}
	result := exec.Execute(ctx, plan)
	result.Pages = pages

	url, err := engine.BuildURL(id.Login, p.Settings.Repo, b.Document.Path)
	if err != nil {
		return nil, err
	}
	result.URL = url

	if pages != remote.PagesActive {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("pages activation is still %s — the URL may take a moment to go live", pages))
	}

	return result, nil
}

// WaitPages polls until the pages feature reports active, the context is
// cancelled, or the deadline passes. Entirely optional: Publish never waits.
func (p *Publisher) WaitPages(ctx context.Context, interval time.Duration) (PagesState, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		state, err := p.Store.Pages(ctx, p.Settings.Repo)
		if err != nil {
			return state, err
		}
		if state == remote.PagesActive {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-t.C:
		}
	}
}

func (p *Publisher) login(ctx context.Context) (Identity, error) {
	if p.identity.Login != "" {
		return p.identity, nil
	}
	return p.CheckConnection(ctx)
}

// index fetches the remote fingerprint index for exactly the directories the
// bundle touches: the repository root for the document, plus each distinct
// assets directory.
func (p *Publisher) index(ctx context.Context, b *Bundle) (remote.Index, error) {
	dirs := []string{""}
	seen := map[string]bool{"": true}
	for _, a := range b.Assets {
		dir := path.Dir(a.Path)
		if dir == "." {
			dir = ""
		}
		if root := topDir(dir); root != "" && !seen[root] {
			seen[root] = true
			dirs = append(dirs, root)
		}
	}
	return p.Store.Index(ctx, p.Settings.Repo, dirs)
}

func topDir(dir string) string {
	for {
		parent := path.Dir(dir)
		if parent == "." || parent == "/" || parent == dir {
			return dir
		}
		dir = parent
	}
}

func (p *Publisher) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
