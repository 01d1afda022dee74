package gitstore

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature represents an author/committer signature for commits and tags.
type Signature struct {
	// Name is the author's or committer's name.
	Name string

	// Email is the author's or committer's email address.
	Email string

	// When is the timestamp for the signature. Zero means time.Now().
	When time.Time
}

func (s Signature) object() *object.Signature {
	when := s.When
	if when.IsZero() {
		when = time.Now()
	}
	return &object.Signature{Name: s.Name, Email: s.Email, When: when}
}

// CommitOpts configures commit creation behavior.
type CommitOpts struct {
	// AllowEmpty allows creating commits with no changes.
	AllowEmpty bool
}

// cleanWorktreePath normalizes a slash-separated path relative to the
// worktree root and rejects anything escaping it or touching .git.
func cleanWorktreePath(p string) (string, error) {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", WrapErrorf(ErrInvalidRef, "invalid path %q", p)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "", WrapErrorf(ErrInvalidRef, "invalid path %q", p)
	}
	if cleaned == git.GitDirName || strings.HasPrefix(cleaned, git.GitDirName+"/") {
		return "", WrapErrorf(ErrInvalidRef, "path %q is inside the git directory", p)
	}
	return cleaned, nil
}

// WriteFile overwrites a single worktree file with data, creating parent
// directories as needed.
func (r *Repo) WriteFile(ctx context.Context, p string, data []byte) error {
	if r.worktree == nil {
		return WrapError(ErrInvalidRef, "cannot write files in bare repository")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	cleaned, err := cleanWorktreePath(p)
	if err != nil {
		return err
	}

	wfs := r.worktree.Filesystem
	if dir := path.Dir(cleaned); dir != "." {
		if err := wfs.MkdirAll(dir, 0o755); err != nil {
			return WrapErrorf(err, "failed to create directory %q", dir)
		}
	}

	if err := util.WriteFile(wfs, cleaned, data, 0o644); err != nil {
		return WrapErrorf(err, "failed to write %q", cleaned)
	}

	return nil
}

// StageAll stages every change in the worktree, including deletions and
// untracked files.
func (r *Repo) StageAll(ctx context.Context) error {
	if r.worktree == nil {
		return WrapError(ErrInvalidRef, "cannot stage files in bare repository")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return WrapError(err, "failed to stage worktree")
	}

	status, err := r.worktree.Status()
	if err != nil {
		return WrapError(err, "failed to get worktree status")
	}

	for name, fileStatus := range status {
		if fileStatus.Worktree != git.Deleted {
			continue
		}
		if _, err := r.worktree.Remove(name); err != nil {
			return WrapErrorf(err, "failed to stage removal of %q", name)
		}
	}

	return nil
}

// Commit creates a new commit with the specified message, using who as both
// author and committer, and returns the new commit hash.
//
// Returns ErrEmptyCommit when nothing is staged and opts.AllowEmpty is false.
func (r *Repo) Commit(ctx context.Context, msg string, who Signature, opts CommitOpts) (plumbing.Hash, error) {
	if r.worktree == nil {
		return plumbing.ZeroHash, WrapError(ErrInvalidRef, "cannot commit in bare repository")
	}

	if msg == "" {
		return plumbing.ZeroHash, WrapError(ErrInvalidRef, "commit message cannot be empty")
	}

	if who.Name == "" || who.Email == "" {
		return plumbing.ZeroHash, WrapError(ErrInvalidRef, "committer name and email are required")
	}

	if err := ctx.Err(); err != nil {
		return plumbing.ZeroHash, err
	}

	sig := who.object()
	hash, err := r.worktree.Commit(msg, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: opts.AllowEmpty,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return plumbing.ZeroHash, ErrEmptyCommit
		}
		return plumbing.ZeroHash, WrapError(err, "failed to create commit")
	}

	return hash, nil
}
