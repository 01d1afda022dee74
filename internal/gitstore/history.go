package gitstore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// LogFilter configures which commits to include in log operations.
type LogFilter struct {
	// From is the commit the walk starts at (inclusive). Required.
	From plumbing.Hash

	// FirstParent walks only the primary parent of each commit. When false
	// the full ancestry is walked in committer-time order.
	FirstParent bool

	// Path keeps only commits that changed Path (a file, or any file below a
	// directory) relative to their first parent. Root commits are compared
	// with the empty tree.
	Path string

	// Since ends the walk at the first commit committed before this time.
	Since *time.Time

	// MaxCount limits the number of commits returned. 0 means unlimited.
	MaxCount int
}

// CommitIter iterates over commits returned by Log without loading the
// whole history into memory.
type CommitIter struct {
	next  func() (*object.Commit, error)
	close func()
}

// Next returns the next commit in the iteration.
// Returns nil, nil when iteration is complete.
func (ci *CommitIter) Next() (*object.Commit, error) {
	commit, err := ci.next()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(err, "failed to get next commit")
	}
	return commit, nil
}

// ForEach executes fn for each commit. Returning storer.ErrStop from fn ends
// the iteration without error.
func (ci *CommitIter) ForEach(fn func(*object.Commit) error) error {
	defer ci.Close()
	for {
		commit, err := ci.Next()
		if err != nil {
			return err
		}
		if commit == nil {
			return nil
		}
		if err := fn(commit); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}
			return err
		}
	}
}

// Close releases any associated resources.
func (ci *CommitIter) Close() {
	if ci.close != nil {
		ci.close()
	}
}

// Log returns a commit iterator starting at f.From with the filters applied.
// The returned CommitIter should be closed when no longer needed.
//
// Context timeout/cancellation is honored between commits.
func (r *Repo) Log(ctx context.Context, f LogFilter) (*CommitIter, error) {
	if f.From.IsZero() {
		return nil, WrapError(ErrInvalidRef, "log start commit is required")
	}

	start, err := r.repo.CommitObject(f.From)
	if err != nil {
		return nil, WrapErrorf(ErrResolveFailed, "commit %s", f.From)
	}

	var ci *CommitIter
	if f.FirstParent {
		ci = firstParentIter(start)
	} else {
		iter, err := r.repo.Log(&git.LogOptions{From: f.From, Order: git.LogOrderCommitterTime})
		if err != nil {
			return nil, WrapError(err, "failed to create commit iterator")
		}
		ci = &CommitIter{next: iter.Next, close: iter.Close}
	}

	ci = withContext(ctx, ci)
	if f.Since != nil {
		ci = stopBefore(ci, *f.Since)
	}
	if f.Path != "" {
		ci = r.touching(ctx, ci, f.Path)
	}
	if f.MaxCount > 0 {
		ci = limited(ci, f.MaxCount)
	}

	return ci, nil
}

// firstParentIter follows parent 0 from start until a root commit.
func firstParentIter(start *object.Commit) *CommitIter {
	current := start
	return &CommitIter{
		next: func() (*object.Commit, error) {
			if current == nil {
				return nil, io.EOF
			}
			commit := current
			if commit.NumParents() == 0 {
				current = nil
				return commit, nil
			}
			parent, err := commit.Parent(0)
			if err != nil {
				return nil, err
			}
			current = parent
			return commit, nil
		},
	}
}

func withContext(ctx context.Context, inner *CommitIter) *CommitIter {
	return &CommitIter{
		next: func() (*object.Commit, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return inner.next()
		},
		close: inner.Close,
	}
}

func stopBefore(inner *CommitIter, since time.Time) *CommitIter {
	done := false
	return &CommitIter{
		next: func() (*object.Commit, error) {
			if done {
				return nil, io.EOF
			}
			commit, err := inner.next()
			if err != nil {
				return nil, err
			}
			if commit.Committer.When.Before(since) {
				done = true
				return nil, io.EOF
			}
			return commit, nil
		},
		close: inner.Close,
	}
}

func (r *Repo) touching(ctx context.Context, inner *CommitIter, p string) *CommitIter {
	filter := PathFilter(p)
	return &CommitIter{
		next: func() (*object.Commit, error) {
			for {
				commit, err := inner.next()
				if err != nil {
					return nil, err
				}

				var parent *object.Commit
				if commit.NumParents() > 0 {
					if parent, err = commit.Parent(0); err != nil {
						return nil, err
					}
				}

				changes, err := r.Changes(ctx, parent, commit, filter)
				if err != nil {
					return nil, err
				}
				if len(changes) > 0 {
					return commit, nil
				}
			}
		},
		close: inner.Close,
	}
}

func limited(inner *CommitIter, maxCount int) *CommitIter {
	count := 0
	return &CommitIter{
		next: func() (*object.Commit, error) {
			if count >= maxCount {
				return nil, io.EOF
			}
			commit, err := inner.next()
			if err != nil {
				return nil, err
			}
			count++
			return commit, nil
		},
		close: inner.Close,
	}
}
