package repohost

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/metrics"
)

const (
	stagingPrefix   = "repohost-update-"
	stagedRefPrefix = "refs/repohost/staged/"
)

// UpdateResource replaces the file at u.Path on u.Branch with u.Content as a
// new commit by the system identity.
//
// An empty repository accepts only an empty token. Otherwise u.Token must
// equal the current branch tip; a missing, stale or branch-less token fails
// with ErrCanNotUpdate, as does a path that names a directory or runs
// through a file at the tip. The change is staged in a private clone that is
// removed on return. Its objects are pushed under a private reference and
// the branch is then moved from the token to the new commit in one locked
// compare-and-swap on the origin, so of several writers holding the same
// token at most one succeeds. Any failure after the precondition check, a
// lost swap included, fails with ErrUnignorable.
func (e *Engine) UpdateResource(ctx context.Context, project, repository string, u Update) (*UpdateResult, error) {
	log := e.logger.With("project", project, "repository", repository, "branch", u.Branch, "path", u.Path)
	log.DebugContext(ctx, "updating resource")

	origin, err := e.openRepository(ctx, project, repository)
	if err != nil {
		return nil, err
	}

	var commit plumbing.Hash
	expect, err := e.checkToken(ctx, origin, u)
	if err == nil {
		commit, err = e.stageAndPush(ctx, origin, e.repositoryPath(project, repository), expect, u)
	}
	if err != nil {
		if errors.Is(err, ErrCanNotUpdate) {
			e.metrics.Update(metrics.ResultConflict)
			log.WarnContext(ctx, "update rejected", "error", err)
			return nil, err
		}
		e.metrics.Update(metrics.ResultUnignorable)
		log.ErrorContext(ctx, "update failed", "error", err)
		return nil, err
	}

	e.metrics.Update(metrics.ResultOK)
	log.InfoContext(ctx, "resource updated", "commit", commit.String())

	result := &UpdateResult{Commit: commit.String()}
	if !expect.IsZero() {
		result.Parent = expect.String()
	}
	return result, nil
}

// checkToken validates u against the origin and returns the expected tip,
// zero for an empty repository.
func (e *Engine) checkToken(ctx context.Context, origin *gitstore.Repo, u Update) (plumbing.Hash, error) {
	if u.Branch == "" {
		return plumbing.ZeroHash, canNotUpdate("branch is required")
	}

	empty, err := origin.IsEmpty(ctx)
	if err != nil {
		return plumbing.ZeroHash, unignorable("read branches", err)
	}
	if empty {
		if u.Token != "" {
			return plumbing.ZeroHash, canNotUpdate("repository is empty but a token was given")
		}
		return plumbing.ZeroHash, nil
	}

	if u.Token == "" {
		return plumbing.ZeroHash, canNotUpdate("token is required")
	}
	tip, err := origin.BranchTip(ctx, u.Branch)
	if errors.Is(err, gitstore.ErrBranchMissing) {
		return plumbing.ZeroHash, canNotUpdate("branch %q does not exist", u.Branch)
	}
	if err != nil {
		return plumbing.ZeroHash, unignorable("read branch", err)
	}
	if tip.String() != u.Token {
		return plumbing.ZeroHash, canNotUpdate("branch %q moved to %s", u.Branch, tip)
	}

	commit, err := origin.Raw().CommitObject(tip)
	if err != nil {
		return plumbing.ZeroHash, unignorable("read tip", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return plumbing.ZeroHash, unignorable("read tip tree", err)
	}
	if err := checkTarget(tree, u.Path); err != nil {
		return plumbing.ZeroHash, err
	}
	return tip, nil
}

// checkTarget rejects a path that is a directory in tree or has a file as
// one of its parents.
func checkTarget(tree *object.Tree, p string) error {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i := range segments {
		prefix := strings.Join(segments[:i+1], "/")
		entry, err := tree.FindEntry(prefix)
		if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return nil
		}
		if err != nil {
			return unignorable("read tip tree", err)
		}

		if i < len(segments)-1 {
			if entry.Mode != filemode.Dir {
				return canNotUpdate("path %q runs through file %q", p, prefix)
			}
			continue
		}
		if entry.Mode == filemode.Dir || entry.Mode == filemode.Submodule {
			return canNotUpdate("path %q is a directory", p)
		}
	}
	return nil
}

// stagedRef names the private origin reference that carries one update's
// objects until the branch is swapped.
func stagedRef(dir string) plumbing.ReferenceName {
	return plumbing.ReferenceName(stagedRefPrefix + strings.TrimPrefix(filepath.Base(dir), stagingPrefix))
}

// stagingFS returns the filesystem hosting ephemeral clones.
func (e *Engine) stagingFS() billy.Filesystem {
	root := e.cfg.StagingDir
	if root == "" {
		root = os.TempDir()
	}
	return osfs.New(root)
}

func (e *Engine) stageAndPush(ctx context.Context, origin *gitstore.Repo, originPath string, expect plumbing.Hash, u Update) (plumbing.Hash, error) {
	staging := e.stagingFS()
	dir, err := util.TempDir(staging, ".", stagingPrefix)
	if err != nil {
		return plumbing.ZeroHash, unignorable("create staging directory", err)
	}
	defer func() {
		if err := util.RemoveAll(staging, dir); err != nil {
			e.logger.WarnContext(ctx, "failed to remove staging directory", "dir", dir, "error", err)
		}
	}()

	workFS, err := staging.Chroot(dir)
	if err != nil {
		return plumbing.ZeroHash, unignorable("open staging directory", err)
	}

	clone, err := e.checkout(ctx, workFS, originPath, expect, u.Branch)
	if err != nil {
		return plumbing.ZeroHash, unignorable("clone", err)
	}

	if err := clone.WriteFile(ctx, u.Path, []byte(u.Content)); err != nil {
		if errors.Is(err, gitstore.ErrInvalidRef) {
			return plumbing.ZeroHash, canNotUpdate("invalid path %q", u.Path)
		}
		return plumbing.ZeroHash, unignorable("write", err)
	}
	if err := clone.StageAll(ctx); err != nil {
		return plumbing.ZeroHash, unignorable("stage", err)
	}

	message := u.Message
	if message == "" {
		message = e.cfg.DefaultCommitMessage
	}
	who := gitstore.Signature{Name: e.cfg.SystemAuthor, Email: e.cfg.SystemEmail}
	commit, err := clone.Commit(ctx, message, who, gitstore.CommitOpts{})
	if err != nil {
		return plumbing.ZeroHash, unignorable("commit", err)
	}

	staged := stagedRef(dir)
	if err := clone.Push(ctx, gitstore.PushOpts{Branch: u.Branch, Target: staged}); err != nil {
		return plumbing.ZeroHash, unignorable("push", err)
	}
	defer func() {
		if err := origin.RemoveRef(context.WithoutCancel(ctx), staged); err != nil {
			e.logger.WarnContext(ctx, "failed to remove staged reference", "ref", staged.String(), "error", err)
		}
	}()

	if err := origin.SwapBranch(ctx, u.Branch, commit, expect); err != nil {
		return plumbing.ZeroHash, unignorable("advance branch", err)
	}
	return commit, nil
}

// checkout prepares the staging worktree: a fresh repository tracking the
// origin when it is empty, otherwise a single-branch clone.
func (e *Engine) checkout(ctx context.Context, workFS billy.Filesystem, originPath string, expect plumbing.Hash, branch string) (*gitstore.Repo, error) {
	url, err := filepath.Abs(originPath)
	if err != nil {
		return nil, err
	}
	opts := &gitstore.Options{
		FS:              workFS,
		Branch:          branch,
		StorerCacheSize: e.cfg.StorerCacheSize,
	}

	if expect.IsZero() {
		repo, err := gitstore.Init(ctx, opts)
		if err != nil {
			return nil, err
		}
		if err := repo.AddRemote(ctx, gitstore.DefaultRemoteName, url); err != nil {
			return nil, err
		}
		return repo, nil
	}

	return gitstore.Clone(ctx, url, opts)
}
