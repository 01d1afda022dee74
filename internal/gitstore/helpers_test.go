package gitstore

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var testAuthor = Signature{Name: "tester", Email: "tester@example.com"}

// testRepo is a helper struct that contains a test repository and its filesystem
type testRepo struct {
	repo *Repo
	fs   billy.Filesystem
	ctx  context.Context
	tick time.Time
}

// setupTestRepo creates a new non-bare repository on an in-memory filesystem
// with master as its initial branch.
func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	memFS := memfs.New()

	repo, err := Init(ctx, &Options{FS: memFS, Branch: "master"})
	require.NoError(t, err, "failed to initialize test repository")

	return &testRepo{
		repo: repo,
		fs:   memFS,
		ctx:  ctx,
		tick: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// commitFiles writes each file, stages everything and commits. A nil value
// deletes the file. Each commit is one minute after the previous one.
func (tr *testRepo) commitFiles(t *testing.T, msg string, files map[string]*string) plumbing.Hash {
	t.Helper()

	for name, content := range files {
		if content == nil {
			require.NoError(t, tr.fs.Remove(name))
			continue
		}
		require.NoError(t, tr.repo.WriteFile(tr.ctx, name, []byte(*content)))
	}
	require.NoError(t, tr.repo.StageAll(tr.ctx))

	tr.tick = tr.tick.Add(time.Minute)
	who := testAuthor
	who.When = tr.tick

	hash, err := tr.repo.Commit(tr.ctx, msg, who, CommitOpts{})
	require.NoError(t, err)
	return hash
}

func (tr *testRepo) commit(t *testing.T, hash plumbing.Hash) *object.Commit {
	t.Helper()

	c, err := tr.repo.Raw().CommitObject(hash)
	require.NoError(t, err)
	return c
}

// branch points a new local branch at target.
func (tr *testRepo) branch(t *testing.T, name, target string) {
	t.Helper()

	commit, err := tr.repo.Resolve(tr.ctx, target)
	require.NoError(t, err)
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), commit.Hash)
	require.NoError(t, tr.repo.Raw().Storer.SetReference(ref))
}

// tag tags target. A message makes the tag annotated.
func (tr *testRepo) tag(t *testing.T, name, target, message string) {
	t.Helper()

	commit, err := tr.repo.Resolve(tr.ctx, target)
	require.NoError(t, err)
	if message == "" {
		ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), commit.Hash)
		require.NoError(t, tr.repo.Raw().Storer.SetReference(ref))
		return
	}
	_, err = tr.repo.Raw().CreateTag(name, commit.Hash, &git.CreateTagOptions{
		Tagger:  testAuthor.object(),
		Message: message,
	})
	require.NoError(t, err)
}

func str(s string) *string { return &s }
