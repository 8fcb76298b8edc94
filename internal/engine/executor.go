package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/markpigeon/publish/internal/remote"
)

const (
	defaultMaxAttempts = 4
	defaultBackoffBase = 500 * time.Millisecond
	maxBackoff         = 30 * time.Second
)

// Executor applies a sync plan against a remote store.
//
// Asset actions run on a bounded worker pool; the document action starts only
// after every asset action is terminal, and only if none failed — a document
// whose images are still missing must never go live. One file's permanent
// failure never aborts the rest of the plan.
type Executor struct {
	Store       remote.Store
	Repo        string
	Workers     int           // bounded concurrency for assets; default config
	MaxAttempts int           // per-action attempts for retryable failures
	BackoffBase time.Duration // first retry delay, doubled per attempt
	Logger      *slog.Logger
	Events      func(Event) // optional progress observer; called serially

	// Sleep waits between retries. Overridable in tests; defaults to a
	// context-aware timer wait.
	Sleep func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// Execute drains the plan and returns an outcome for every file in it.
// Cancellation stops new dispatches; actions already in flight run to their
// own terminal state, and everything not yet started is reported cancelled.
func (e *Executor) Execute(ctx context.Context, plan *Plan) *Result {
	result := &Result{Files: make(map[string]Outcome)}
	logger := e.logger()

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	cancelled := false

	for _, a := range plan.Assets {
		if a.Kind == ActionSkip {
			e.record(result, a.Path, Outcome{Status: StatusSkipped, Reason: ReasonUnchanged})
			continue
		}
		if cancelled || ctx.Err() != nil {
			cancelled = true
			e.record(result, a.Path, Outcome{Status: StatusCancelled})
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			cancelled = true
			e.record(result, a.Path, Outcome{Status: StatusCancelled})
			continue
		}

		wg.Add(1)
		go func(a Action) {
			defer wg.Done()
			defer func() { <-sem }()
			e.emit(Event{Kind: FileStarted, Path: a.Path})
			out := e.runAction(ctx, a)
			logger.Debug("asset action finished", "path", a.Path, "status", out.Status)
			e.complete(result, a, out)
		}(a)
	}

	wg.Wait()

	doc := plan.Document
	switch {
	case doc.Kind == ActionSkip:
		e.record(result, doc.Path, Outcome{Status: StatusSkipped, Reason: ReasonUnchanged})
	case cancelled || ctx.Err() != nil:
		e.record(result, doc.Path, Outcome{Status: StatusCancelled})
	case anyFailed(result, plan.Assets):
		logger.Warn("asset upload failed, withholding document", "path", doc.Path)
		e.record(result, doc.Path, Outcome{Status: StatusSkipped, Reason: ReasonDependency})
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s was not published because one or more assets failed", doc.Path))
	default:
		e.emit(Event{Kind: FileStarted, Path: doc.Path})
		out := e.runAction(ctx, doc)
		logger.Debug("document action finished", "path", doc.Path, "status", out.Status)
		e.complete(result, doc, out)
	}

	return result
}

// runAction performs one upload with the retry policy: exponential backoff
// for rate-limit and network failures, never for conflicts. A create that
// finds the path already taken re-stats once and retries as an update —
// that heals the race between planning and execution without clobbering
// anything newer than what we just observed.
func (e *Executor) runAction(ctx context.Context, a Action) Outcome {
	maxAttempts := e.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}

	sha := a.SHA
	reclassified := false

	for attempt := 1; ; attempt++ {
		_, err := e.Store.Put(ctx, e.Repo, a.Path, a.Content, sha)
		if err == nil {
			return Outcome{Status: StatusUploaded}
		}

		if remote.IsConflict(err) {
			if a.Kind == ActionCreate && !reclassified {
				fresh, statErr := e.Store.Stat(ctx, e.Repo, a.Path)
				if statErr == nil {
					sha = fresh
					reclassified = true
					continue
				}
			}
			return failedOutcome(err)
		}

		if !remote.IsRetryable(err) || attempt >= maxAttempts {
			return failedOutcome(err)
		}

		delay := e.backoff(attempt, err)
		e.logger().Debug("retrying after backoff", "path", a.Path, "attempt", attempt, "delay", delay)
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			// Cancelled while waiting to retry: the action is terminal as
			// failed, not silently dropped.
			return failedOutcome(fmt.Errorf("retry interrupted: %w", err))
		}
	}
}

func (e *Executor) backoff(attempt int, err error) time.Duration {
	base := e.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	delay := base << (attempt - 1)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	if hint := remote.RetryAfter(err); hint > delay {
		delay = hint
	}
	return delay
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) record(result *Result, path string, out Outcome) {
	e.mu.Lock()
	result.Files[path] = out
	e.mu.Unlock()
}

// complete records an outcome and emits the matching progress event.
func (e *Executor) complete(result *Result, a Action, out Outcome) {
	e.record(result, a.Path, out)
	if out.Status == StatusFailed {
		e.emit(Event{Kind: FileFailed, Path: a.Path, Outcome: out})
		return
	}
	e.emit(Event{Kind: FileCompleted, Path: a.Path, Outcome: out})
}

func (e *Executor) emit(ev Event) {
	if e.Events == nil {
		return
	}
	e.mu.Lock()
	e.Events(ev)
	e.mu.Unlock()
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func anyFailed(result *Result, assets []Action) bool {
	for _, a := range assets {
		if out, ok := result.Files[a.Path]; ok && out.Status == StatusFailed {
			return true
		}
	}
	return false
}

func failedOutcome(err error) Outcome {
	reason := "upload failed"
	var ae *remote.AuthError
	var rl *remote.RateLimitError
	switch {
	case remote.IsConflict(err):
		reason = "remote file changed since planning"
	case errors.As(err, &rl):
		reason = "rate limited"
	case errors.As(err, &ae):
		reason = string(ae.Reason)
	}
	return Outcome{Status: StatusFailed, Reason: reason, Err: err}
}
