// Package github implements remote.Store on top of the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/markpigeon/publish/internal/remote"
)

// UpstreamOwner and UpstreamRepo identify the MarkPigeon project repository
// (the optional "star" feature targets it).
const (
	UpstreamOwner = "markpigeon"
	UpstreamRepo  = "markpigeon"
)

const defaultBranch = "main"

// Client talks to the GitHub API for one account. It implements remote.Store.
type Client struct {
	token  string
	hc     *http.Client // optional; for tests
	owner  string       // learned from Login
	branch string       // target repo default branch; learned from EnsureRepo
}

// New returns a client authenticated with the given bearer token.
func New(token string) *Client {
	return &Client{token: token, branch: defaultBranch}
}

// NewWithHTTPClient returns a client that uses the given http.Client for API
// calls (e.g. an httptest fake in tests).
func NewWithHTTPClient(token string, hc *http.Client) *Client {
	return &Client{token: token, hc: hc, branch: defaultBranch}
}

func (c *Client) api(ctx context.Context) *github.Client {
	if c.hc != nil {
		return github.NewClient(c.hc)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// Login makes a single authenticated call and records the account login.
// Never retried: it gates everything else and must give a definitive answer.
func (c *Client) Login(ctx context.Context) (remote.Identity, error) {
	user, resp, err := c.api(ctx).Users.Get(ctx, "")
	if err != nil {
		return remote.Identity{}, classifyAuth(err)
	}
	if scopes := resp.Header.Get("X-OAuth-Scopes"); scopes != "" && !hasWriteScope(scopes) {
		return remote.Identity{}, &remote.AuthError{
			Reason: remote.InsufficientScope,
			Err:    fmt.Errorf("token scopes %q lack repo write access", scopes),
		}
	}
	c.owner = user.GetLogin()
	return remote.Identity{Login: c.owner}, nil
}

// hasWriteScope checks a classic-token scope list for contents write access.
// Fine-grained tokens do not send the header and skip this check.
func hasWriteScope(scopes string) bool {
	for _, s := range strings.Split(scopes, ",") {
		switch strings.TrimSpace(s) {
		case "repo", "public_repo":
			return true
		}
	}
	return false
}

// EnsureRepo gets or creates the repository. Created repos are auto-initialized
// so the default branch (the pages source) exists immediately. An existing
// repo is used as-is: its visibility belongs to the user, not to us.
func (c *Client) EnsureRepo(ctx context.Context, name string, private bool) (remote.RepoState, error) {
	client := c.api(ctx)

	repo, _, err := client.Repositories.Get(ctx, c.owner, name)
	if err == nil {
		if b := repo.GetDefaultBranch(); b != "" {
			c.branch = b
		}
		return remote.RepoState{Existed: true}, nil
	}
	if !isStatus(err, http.StatusNotFound) {
		return remote.RepoState{}, &remote.ProvisionError{Repo: name, Err: classify(err)}
	}

	created, _, err := client.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.String(name),
		Description: github.String("Documents published by MarkPigeon"),
		Private:     github.Bool(private),
		AutoInit:    github.Bool(true),
	})
	if err != nil {
		// Lost a create race: someone made it between Get and Create.
		if isStatus(err, http.StatusUnprocessableEntity) {
			return remote.RepoState{Existed: true}, nil
		}
		return remote.RepoState{}, &remote.ProvisionError{Repo: name, Err: classify(err)}
	}
	if b := created.GetDefaultBranch(); b != "" {
		c.branch = b
	}
	return remote.RepoState{Existed: false}, nil
}

// EnsurePages enables the pages feature with the default branch at root as
// the source. Already-enabled is a no-op. Returns immediately after issuing
// the enable request — propagation happens remotely on its own time.
func (c *Client) EnsurePages(ctx context.Context, repo string) (remote.PagesState, error) {
	client := c.api(ctx)

	info, _, err := client.Repositories.GetPagesInfo(ctx, c.owner, repo)
	if err == nil {
		return pagesState(info), nil
	}
	if !isStatus(err, http.StatusNotFound) {
		return remote.PagesDisabled, &remote.ProvisionError{Repo: repo, Err: classify(err)}
	}

	_, _, err = client.Repositories.EnablePages(ctx, c.owner, repo, &github.Pages{
		Source: &github.PagesSource{
			Branch: github.String(c.branch),
			Path:   github.String("/"),
		},
	})
	if err != nil {
		// Another actor enabled it between the check and the request.
		if isStatus(err, http.StatusConflict) || isStatus(err, http.StatusUnprocessableEntity) {
			return remote.PagesEnabling, nil
		}
		return remote.PagesDisabled, &remote.ProvisionError{Repo: repo, Err: classify(err)}
	}
	return remote.PagesEnabling, nil
}

// Pages reads the current activation state.
func (c *Client) Pages(ctx context.Context, repo string) (remote.PagesState, error) {
	info, _, err := c.api(ctx).Repositories.GetPagesInfo(ctx, c.owner, repo)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return remote.PagesDisabled, nil
		}
		return remote.PagesDisabled, classify(err)
	}
	return pagesState(info), nil
}

func pagesState(info *github.Pages) remote.PagesState {
	switch info.GetStatus() {
	case "built":
		return remote.PagesActive
	case "building":
		return remote.PagesPropagating
	default:
		return remote.PagesPropagating
	}
}

// Index builds a path → blob SHA map from directory listings alone; file
// content is never downloaded. The root ("") is listed without recursion,
// named directories recursively.
func (c *Client) Index(ctx context.Context, repo string, dirs []string) (remote.Index, error) {
	client := c.api(ctx)
	idx := make(remote.Index)

	var walk func(dir string, recurse bool) error
	walk = func(dir string, recurse bool) error {
		opts := &github.RepositoryContentGetOptions{Ref: c.branch}
		_, entries, _, err := client.Repositories.GetContents(ctx, c.owner, repo, dir, opts)
		if err != nil {
			if isStatus(err, http.StatusNotFound) {
				return nil
			}
			return classify(err)
		}
		for _, e := range entries {
			switch e.GetType() {
			case "file":
				idx[e.GetPath()] = e.GetSHA()
			case "dir":
				if recurse {
					if err := walk(e.GetPath(), true); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	for _, d := range dirs {
		if err := walk(d, d != ""); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Stat returns the blob SHA of a single path, or remote.ErrNotFound.
func (c *Client) Stat(ctx context.Context, repo, path string) (string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: c.branch}
	file, _, _, err := c.api(ctx).Repositories.GetContents(ctx, c.owner, repo, path, opts)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return "", remote.ErrNotFound
		}
		return "", classify(err)
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}
	return file.GetSHA(), nil
}

// Put writes content at path. Empty sha creates; a non-empty sha must match
// the remote version or the write is rejected with a ConflictError.
func (c *Client) Put(ctx context.Context, repo, path string, content []byte, sha string) (string, error) {
	client := c.api(ctx)
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("MarkPigeon: publish %s", path)),
		Content: content,
		Branch:  github.String(c.branch),
	}

	var rc *github.RepositoryContentResponse
	var err error
	if sha == "" {
		rc, _, err = client.Repositories.CreateFile(ctx, c.owner, repo, path, opts)
	} else {
		opts.SHA = github.String(sha)
		rc, _, err = client.Repositories.UpdateFile(ctx, c.owner, repo, path, opts)
	}
	if err != nil {
		if isStatus(err, http.StatusConflict) || isStatus(err, http.StatusUnprocessableEntity) {
			return "", &remote.ConflictError{Path: path, Err: err}
		}
		return "", classify(err)
	}
	if rc == nil || rc.Content == nil {
		return "", nil
	}
	return rc.Content.GetSHA(), nil
}

// Star stars the upstream MarkPigeon repository for the logged-in user.
func (c *Client) Star(ctx context.Context) error {
	_, err := c.api(ctx).Activity.Star(ctx, UpstreamOwner, UpstreamRepo)
	if err != nil {
		return classify(err)
	}
	return nil
}

func isStatus(err error, code int) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == code
}

// classify maps a go-github error onto the remote taxonomy.
func classify(err error) error {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return &remote.RateLimitError{RetryAfter: time.Until(rle.Rate.Reset.Time), Err: err}
	}
	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		var after time.Duration
		if arle.RetryAfter != nil {
			after = *arle.RetryAfter
		}
		return &remote.RateLimitError{RetryAfter: after, Err: err}
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return &remote.AuthError{Reason: remote.InvalidCredential, Err: err}
		case http.StatusForbidden:
			return &remote.AuthError{Reason: remote.InsufficientScope, Err: err}
		}
		return err
	}
	return &remote.NetworkError{Err: err}
}

// classifyAuth is classify with the credential-check bias: any 403 during
// Login means the token cannot do what publishing needs.
func classifyAuth(err error) error {
	classified := classify(err)
	var ae *remote.AuthError
	if errors.As(classified, &ae) {
		return classified
	}
	var rl *remote.RateLimitError
	var ne *remote.NetworkError
	if errors.As(classified, &rl) || errors.As(classified, &ne) {
		return classified
	}
	return &remote.AuthError{Reason: remote.InvalidCredential, Err: err}
}
