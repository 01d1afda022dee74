package gitstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"
)

// RefKind represents the type of git reference.
type RefKind int

const (
	// RefBranch indicates a local branch reference (refs/heads/*).
	RefBranch RefKind = iota

	// RefTag indicates a tag reference (refs/tags/*).
	RefTag
)

// String returns a human-readable string representation of the RefKind.
func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Ref is a named reference peeled to the commit it designates.
type Ref struct {
	// Name is the short reference name (e.g. "master", "v1.0").
	Name string

	// Commit is the commit the reference points at, after peeling annotated tags.
	Commit *object.Commit
}

// Refs returns references of the given kind whose short name matches pattern,
// sorted by name. Pattern follows path.Match syntax; empty matches all.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Refs(ctx context.Context, kind RefKind, pattern string) ([]Ref, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, WrapError(err, "failed to get references")
	}
	defer iter.Close()

	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if ref.Type() != plumbing.HashReference || !matchesRefKind(ref.Name(), kind) {
			return nil
		}

		shortName := ref.Name().Short()
		if !matchesRefPattern(shortName, pattern) {
			return nil
		}

		commit, err := r.peel(ref.Hash())
		if errors.Is(err, ErrResolveFailed) || errors.Is(err, plumbing.ErrObjectNotFound) {
			// tags on trees or blobs carry no commit metadata
			return nil
		}
		if err != nil {
			return WrapErrorf(err, "failed to peel %s", ref.Name())
		}

		refs = append(refs, Ref{Name: shortName, Commit: commit})
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate references")
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// matchesRefKind checks if a reference name belongs to the specified RefKind.
func matchesRefKind(name plumbing.ReferenceName, kind RefKind) bool {
	switch kind {
	case RefBranch:
		return name.IsBranch()
	case RefTag:
		return name.IsTag()
	default:
		return false
	}
}

// matchesRefPattern checks if a reference name matches the given pattern.
func matchesRefPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	matched, err := path.Match(pattern, name)
	return err == nil && matched
}

// peel follows annotated tag objects until it reaches a commit.
func (r *Repo) peel(hash plumbing.Hash) (*object.Commit, error) {
	for {
		tag, err := r.repo.TagObject(hash)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return r.repo.CommitObject(hash)
		}
		if err != nil {
			return nil, err
		}
		if tag.TargetType != plumbing.CommitObject && tag.TargetType != plumbing.TagObject {
			return nil, WrapErrorf(ErrResolveFailed, "tag %s does not point at a commit", tag.Name)
		}
		hash = tag.Target
	}
}

// Resolve resolves a revision specification (branch, tag, full or abbreviated
// commit hash) to a commit. Annotated tags are peeled.
//
// Returns ErrResolveFailed when the revision designates no commit.
func (r *Repo) Resolve(ctx context.Context, rev string) (*object.Commit, error) {
	if rev == "" {
		return nil, WrapError(ErrInvalidRef, "revision cannot be empty")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, WrapErrorf(ErrResolveFailed, "failed to resolve revision %q", rev)
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, WrapErrorf(ErrResolveFailed, "revision %q is not a commit", rev)
	}

	return commit, nil
}

// BranchTip returns the commit hash a local branch points at.
// Returns ErrBranchMissing when the branch does not exist.
func (r *Repo) BranchTip(ctx context.Context, name string) (plumbing.Hash, error) {
	if name == "" {
		return plumbing.ZeroHash, WrapError(ErrInvalidRef, "branch name cannot be empty")
	}

	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, WrapErrorf(ErrBranchMissing, "branch %q", name)
		}
		return plumbing.ZeroHash, WrapError(err, "failed to read branch reference")
	}

	return ref.Hash(), nil
}

// IsEmpty reports whether the repository has no branches, i.e. no commits
// reachable from any refs/heads entry.
func (r *Repo) IsEmpty(ctx context.Context) (bool, error) {
	branches, err := r.Refs(ctx, RefBranch, "")
	if err != nil {
		return false, err
	}
	return len(branches) == 0, nil
}

// SwapBranch points the branch at next if it still points at expect. A zero
// expect requires the branch to be absent. The comparison and the write
// happen under the reference file lock, so of several callers holding the
// same expectation exactly one succeeds and the rest get ErrRefChanged.
func (r *Repo) SwapBranch(ctx context.Context, name string, next, expect plumbing.Hash) error {
	if name == "" {
		return WrapError(ErrInvalidRef, "branch name cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	refName := plumbing.NewBranchReferenceName(name)
	ref := plumbing.NewHashReference(refName, next)
	if expect.IsZero() {
		return r.createRef(ref)
	}

	err := r.repo.Storer.CheckAndSetReference(ref, plumbing.NewHashReference(refName, expect))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrReferenceHasChanged):
		return WrapErrorf(ErrRefChanged, "branch %q", name)
	default:
		return WrapErrorf(err, "failed to update branch %q", name)
	}
}

// createRef writes a loose reference that must not exist yet.
func (r *Repo) createRef(ref *plumbing.Reference) (err error) {
	if _, err := r.repo.Storer.Reference(ref.Name()); err == nil {
		return WrapErrorf(ErrRefChanged, "%s already exists", ref.Name())
	}
	if r.storage == nil {
		return WrapError(ErrInvalidRef, "repository has no reference storage")
	}

	f, err := r.storage.Filesystem().OpenFile(ref.Name().String(), os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return WrapErrorf(err, "failed to open %s", ref.Name())
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = WrapErrorf(cerr, "failed to close %s", ref.Name())
		}
	}()

	if err := f.Lock(); err != nil {
		return WrapErrorf(err, "failed to lock %s", ref.Name())
	}
	current, err := io.ReadAll(f)
	if err != nil {
		return WrapErrorf(err, "failed to read %s", ref.Name())
	}
	if len(bytes.TrimSpace(current)) > 0 {
		return WrapErrorf(ErrRefChanged, "%s already exists", ref.Name())
	}

	if _, err := f.Write([]byte(ref.Hash().String() + "\n")); err != nil {
		return WrapErrorf(err, "failed to write %s", ref.Name())
	}
	return nil
}

// RemoveRef deletes a reference. A missing reference is not an error.
func (r *Repo) RemoveRef(ctx context.Context, name plumbing.ReferenceName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WrapErrorf(r.repo.Storer.RemoveReference(name), "failed to remove %s", name)
}
