package repohost

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/executor"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/identity"
)

// fakeRunner records commands instead of running them.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, program string, args ...string) (*executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string{program}, args...))
	if f.err != nil {
		return &executor.Result{ExitCode: 1, Stderr: f.err.Error()}, f.err
	}
	return &executor.Result{}, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Development()
	cfg.ProjectRoot = t.TempDir()
	cfg.StagingDir = t.TempDir()
	cfg.HomeRoot = t.TempDir()
	cfg.LogFile = ""
	return cfg
}

// newTestEngine builds an Engine over a fresh project root. Ownership is
// resolved to the current process so chown succeeds without privileges.
func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	base := []Option{
		WithIdentityResolver(identity.Fixed{UID: os.Getuid(), GID: os.Getgid()}),
		WithRunner(&fakeRunner{}),
	}
	e, err := New(testConfig(t), append(base, opts...)...)
	require.NoError(t, err)
	return e
}

// newTestRepository provisions project/repository owned by alice.
func newTestRepository(t *testing.T, e *Engine, project, repository string) {
	t.Helper()

	ctx := context.Background()
	if ok, _ := e.isDir(e.projectPath(project)); !ok {
		require.NoError(t, e.CreateProject(ctx, project, "alice"))
	}
	require.NoError(t, e.CreateRepository(ctx, project, repository, "alice", ""))
}

func tipOf(t *testing.T, e *Engine, project, repository, branch string) string {
	t.Helper()

	s, err := e.Resolve(context.Background(), project, repository, branch)
	require.NoError(t, err)
	return s.Commit
}

// scratch is a working clone used to build histories the update workflow
// cannot produce: multi-file commits, deletions, branches and merges.
type scratch struct {
	repo *gitstore.Repo
	fs   billy.Filesystem
	ctx  context.Context
	tick time.Time
}

func cloneScratch(t *testing.T, e *Engine, project, repository, branch string) *scratch {
	t.Helper()

	ctx := context.Background()
	fs := memfs.New()
	repo, err := gitstore.Clone(ctx, e.repositoryPath(project, repository), &gitstore.Options{FS: fs, Branch: branch})
	require.NoError(t, err)

	head, err := repo.Resolve(ctx, branch)
	require.NoError(t, err)

	return &scratch{repo: repo, fs: fs, ctx: ctx, tick: head.Committer.When}
}

// commit writes files (nil deletes) and commits one minute after the
// previous commit.
func (s *scratch) commit(t *testing.T, msg string, files map[string]*string) plumbing.Hash {
	t.Helper()

	s.tick = s.tick.Add(time.Minute)
	return s.commitAt(t, msg, s.tick, files)
}

func (s *scratch) commitAt(t *testing.T, msg string, when time.Time, files map[string]*string) plumbing.Hash {
	t.Helper()

	for name, content := range files {
		if content == nil {
			require.NoError(t, s.fs.Remove(name))
			continue
		}
		require.NoError(t, s.repo.WriteFile(s.ctx, name, []byte(*content)))
	}
	require.NoError(t, s.repo.StageAll(s.ctx))

	who := gitstore.Signature{Name: "bob", Email: "bob@example.com", When: when}
	hash, err := s.repo.Commit(s.ctx, msg, who, gitstore.CommitOpts{})
	require.NoError(t, err)
	return hash
}

func (s *scratch) push(t *testing.T, branch string) {
	t.Helper()
	require.NoError(t, s.repo.Push(s.ctx, gitstore.PushOpts{Branch: branch}))
}

func str(s string) *string { return &s }

// checkout switches the scratch worktree to branch, creating it from HEAD
// when create is set.
func (s *scratch) checkout(t *testing.T, branch string, create bool) {
	t.Helper()

	wt, err := s.repo.Raw().Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	}))
}

// merge commits files on top of HEAD with other as second parent.
func (s *scratch) merge(t *testing.T, msg string, other plumbing.Hash, files map[string]*string) plumbing.Hash {
	t.Helper()

	for name, content := range files {
		require.NoError(t, s.repo.WriteFile(s.ctx, name, []byte(*content)))
	}
	require.NoError(t, s.repo.StageAll(s.ctx))

	head, err := s.repo.Raw().Head()
	require.NoError(t, err)

	s.tick = s.tick.Add(time.Minute)
	wt, err := s.repo.Raw().Worktree()
	require.NoError(t, err)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author:  &object.Signature{Name: "bob", Email: "bob@example.com", When: s.tick},
		Parents: []plumbing.Hash{head.Hash(), other},
	})
	require.NoError(t, err)
	return hash
}

// branchAt creates a branch on the origin pointing at target.
func branchAt(t *testing.T, e *Engine, project, repository, name, target string) {
	t.Helper()

	origin, commit := originCommit(t, e, project, repository, target)
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), commit)
	require.NoError(t, origin.Raw().Storer.SetReference(ref))
}

// tagAt tags target on the origin. A message makes the tag annotated.
func tagAt(t *testing.T, e *Engine, project, repository, name, target, message string) {
	t.Helper()

	origin, commit := originCommit(t, e, project, repository, target)
	if message == "" {
		ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), commit)
		require.NoError(t, origin.Raw().Storer.SetReference(ref))
		return
	}
	_, err := origin.Raw().CreateTag(name, commit, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "bob", Email: "bob@example.com", When: time.Now()},
		Message: message,
	})
	require.NoError(t, err)
}

func originCommit(t *testing.T, e *Engine, project, repository, target string) (*gitstore.Repo, plumbing.Hash) {
	t.Helper()

	ctx := context.Background()
	origin, err := e.openRepository(ctx, project, repository)
	require.NoError(t, err)
	commit, err := origin.Resolve(ctx, target)
	require.NoError(t, err)
	return origin, commit.Hash
}
