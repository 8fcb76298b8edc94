package remote

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Stat for paths with no remote counterpart.
var ErrNotFound = errors.New("not found")

// ErrPrivacyNotAcknowledged gates the whole publish: the user must accept
// that publishing makes the document publicly reachable.
var ErrPrivacyNotAcknowledged = errors.New("privacy warning not acknowledged — publishing makes the document public")

// AuthReason distinguishes why a credential was rejected.
type AuthReason string

const (
	InvalidCredential AuthReason = "invalid credential"
	InsufficientScope AuthReason = "insufficient scope"
)

// AuthError means the credential is unusable. Fatal for the session.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s: %s", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ProvisionError means the repository could not be created or inspected.
// Fatal for the session.
type ProvisionError struct {
	Repo string
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning %s: %s", e.Repo, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// RateLimitError signals the primary or secondary API rate limit.
// Recoverable with backoff.
type RateLimitError struct {
	RetryAfter time.Duration // zero when the API gave no hint
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %s", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// ConflictError means the remote file changed between planning and writing:
// the version token presented no longer matches. Never retried automatically —
// overwriting a concurrent edit would be wrong. Re-planning is the way out.
type ConflictError struct {
	Path string
	Err  error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict at %s: %s", e.Path, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// NetworkError wraps transport-level failures. Recoverable with backoff.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether backing off and trying again can help.
func IsRetryable(err error) bool {
	var rl *RateLimitError
	var ne *NetworkError
	return errors.As(err, &rl) || errors.As(err, &ne)
}

// IsConflict reports whether err is a version-token mismatch.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// RetryAfter extracts the backend's retry hint, if any.
func RetryAfter(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}
