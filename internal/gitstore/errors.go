package gitstore

import (
	"errors"
	"fmt"
)

// Common sentinel errors that can be checked with errors.Is().
// These wrap underlying go-git errors while providing a stable API for consumers.

// ErrAlreadyUpToDate is returned when a push results in no changes because the
// local and remote states are already synchronized.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrBranchMissing is returned when attempting to operate on a branch that does not exist.
var ErrBranchMissing = errors.New("branch does not exist")

// ErrRefChanged is returned when a branch no longer points where the caller
// expected it to.
var ErrRefChanged = errors.New("reference has changed")

// ErrNotFastForward is returned when a push cannot be performed as a fast-forward
// update of the remote branch.
var ErrNotFastForward = errors.New("not a fast-forward")

// ErrInvalidRef is returned when a reference name or revision specification
// is malformed or invalid according to git's reference naming rules.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision specification cannot be resolved
// to a valid commit hash (e.g., branch/tag doesn't exist, invalid SHA).
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrEmptyCommit is returned when a commit would record no changes.
var ErrEmptyCommit = errors.New("nothing to commit")

// ErrRepositoryMissing is returned when no repository exists at the requested location.
var ErrRepositoryMissing = errors.New("repository does not exist")

// ErrEmptyRepository is returned when an operation needs at least one commit.
var ErrEmptyRepository = errors.New("repository has no commits")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
