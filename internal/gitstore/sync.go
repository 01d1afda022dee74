package gitstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// PushOpts configures a single-branch push.
type PushOpts struct {
	// Remote is the remote name. Defaults to DefaultRemoteName.
	Remote string

	// Branch is pushed from refs/heads/<Branch>.
	Branch string

	// Target is the remote reference to write. Defaults to refs/heads/<Branch>.
	Target plumbing.ReferenceName
}

// AddRemote configures a named remote pointing at url.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	if name == "" || url == "" {
		return WrapError(ErrInvalidRef, "remote name and url are required")
	}

	_, err := r.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	if err != nil {
		return WrapErrorf(err, "failed to create remote %q", name)
	}

	return nil
}

// Push pushes one local branch to the remote without forcing.
// Returns ErrNotFastForward if the remote branch has diverged and
// ErrAlreadyUpToDate if there is nothing to push.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) Push(ctx context.Context, opts PushOpts) error {
	if opts.Branch == "" {
		return WrapError(ErrInvalidRef, "branch name cannot be empty")
	}

	remote := opts.Remote
	if remote == "" {
		remote = DefaultRemoteName
	}

	installLocalTransport()

	branchRef := plumbing.NewBranchReferenceName(opts.Branch)
	target := opts.Target
	if target == "" {
		target = branchRef
	}
	pushOpts := &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", branchRef, target))},
	}

	err := r.repo.PushContext(ctx, pushOpts)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return WrapError(ErrResolveFailed, "remote not found")
		}
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		if errors.Is(err, git.ErrNonFastForwardUpdate) {
			return ErrNotFastForward
		}
		return WrapError(err, "failed to push to remote")
	}

	return nil
}
