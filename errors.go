package repohost

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/sshkey"
)

// Boundary conditions. Every error returned by the Engine matches at most
// one of these with errors.Is.
var (
	// ErrNotFound reports a missing project, repository, revision or path,
	// a path of the wrong kind, or content that cannot be decoded.
	ErrNotFound = errors.New("not found")

	// ErrCanNotUpdate reports a violated write precondition: missing or stale
	// token, or an unknown branch.
	ErrCanNotUpdate = errors.New("can not update")

	// ErrUnignorable reports an unexpected failure in the commit and push
	// sequence, including a rejected push.
	ErrUnignorable = errors.New("unignorable error")
)

// Provisioning errors. Duplicate creation matches fs.ErrExist.
var (
	// ErrReservedName is returned for excluded project names.
	ErrReservedName = errors.New("reserved name")

	// ErrInvalidName is returned for names that are empty or contain path
	// separators or parent references.
	ErrInvalidName = errors.New("invalid name")
)

// LookupCause tells why a lookup failed.
type LookupCause int

const (
	// Absent means the object does not exist.
	Absent LookupCause = iota
	// WrongKind means the path exists but is not the expected kind.
	WrongKind
	// DecodeFailed means the content is not valid text.
	DecodeFailed
)

// String returns a human-readable cause.
func (c LookupCause) String() string {
	switch c {
	case Absent:
		return "absent"
	case WrongKind:
		return "wrong kind"
	case DecodeFailed:
		return "decode failed"
	default:
		return "unknown"
	}
}

// LookupError describes a failed lookup. It matches ErrNotFound.
type LookupError struct {
	// What names the looked-up thing, e.g. "project", "revision", "path".
	What  string
	Name  string
	Cause LookupCause
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.What, e.Name, e.Cause)
}

// Is reports whether target is ErrNotFound.
func (e *LookupError) Is(target error) bool {
	return target == ErrNotFound
}

func absent(what, name string) error {
	return &LookupError{What: what, Name: name, Cause: Absent}
}

// canNotUpdate wraps a precondition failure.
func canNotUpdate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCanNotUpdate, fmt.Sprintf(format, args...))
}

// unignorable wraps an unexpected workflow failure.
func unignorable(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnignorable, step, err)
}

// ErrorCode is a stable string code for an error condition.
type ErrorCode string

const (
	CodeNone          ErrorCode = ""
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	CodeConflict      ErrorCode = "CONFLICT"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// Code maps err onto its ErrorCode for transport layers.
func Code(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrCanNotUpdate):
		return CodeConflict
	case errors.Is(err, ErrUnignorable):
		return CodeInternal
	case errors.Is(err, fs.ErrExist):
		return CodeAlreadyExists
	case errors.Is(err, ErrReservedName), errors.Is(err, ErrInvalidName),
		errors.Is(err, sshkey.ErrInvalidKey), errors.Is(err, config.ErrInvalid):
		return CodeInvalidInput
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	default:
		return CodeInternal
	}
}
