package gitstore

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, iter *CommitIter) []string {
	t.Helper()

	var msgs []string
	require.NoError(t, iter.ForEach(func(c *object.Commit) error {
		msgs = append(msgs, c.Message)
		return nil
	}))
	return msgs
}

// mergeRepo builds master: c1 - c2 - merge, where merge's second parent is
// side: c1 - s1.
func mergeRepo(t *testing.T) (*testRepo, plumbing.Hash) {
	t.Helper()

	tr := setupTestRepo(t)
	c1 := tr.commitFiles(t, "c1", map[string]*string{"a.txt": str("a")})
	c2 := tr.commitFiles(t, "c2", map[string]*string{"b.txt": str("b")})

	// side commit built directly on c1 through the object store
	tr.tick = tr.tick.Add(time.Minute)
	side := tr.commit(t, c1)
	s1 := writeCommit(t, tr, "s1", side.TreeHash, []plumbing.Hash{c1})

	mainTip := tr.commit(t, c2)
	tr.tick = tr.tick.Add(time.Minute)
	merge := writeCommit(t, tr, "merge", mainTip.TreeHash, []plumbing.Hash{c2, s1})
	return tr, merge
}

func writeCommit(t *testing.T, tr *testRepo, msg string, tree plumbing.Hash, parents []plumbing.Hash) plumbing.Hash {
	t.Helper()

	sig := testAuthor.object()
	sig.When = tr.tick
	c := &object.Commit{
		Author:       *sig,
		Committer:    *sig,
		Message:      msg,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	obj := tr.repo.Raw().Storer.NewEncodedObject()
	require.NoError(t, c.Encode(obj))
	hash, err := tr.repo.Raw().Storer.SetEncodedObject(obj)
	require.NoError(t, err)
	return hash
}

func TestLog(t *testing.T) {
	tests := []struct {
		name     string
		filter   func(from plumbing.Hash) LogFilter
		expected []string
	}{
		{
			name: "first parent",
			filter: func(from plumbing.Hash) LogFilter {
				return LogFilter{From: from, FirstParent: true}
			},
			expected: []string{"merge", "c2", "c1"},
		},
		{
			name: "full ancestry in committer-time order",
			filter: func(from plumbing.Hash) LogFilter {
				return LogFilter{From: from}
			},
			expected: []string{"merge", "s1", "c2", "c1"},
		},
		{
			name: "max count",
			filter: func(from plumbing.Hash) LogFilter {
				return LogFilter{From: from, FirstParent: true, MaxCount: 2}
			},
			expected: []string{"merge", "c2"},
		},
		{
			name: "path filter",
			filter: func(from plumbing.Hash) LogFilter {
				return LogFilter{From: from, FirstParent: true, Path: "b.txt"}
			},
			expected: []string{"c2"},
		},
		{
			name: "root commit touches every path",
			filter: func(from plumbing.Hash) LogFilter {
				return LogFilter{From: from, FirstParent: true, Path: "a.txt"}
			},
			expected: []string{"c1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, merge := mergeRepo(t)

			iter, err := tr.repo.Log(tr.ctx, tt.filter(merge))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, collect(t, iter))
		})
	}
}

func TestLog_Since(t *testing.T) {
	tr := setupTestRepo(t)
	tr.commitFiles(t, "old", map[string]*string{"a.txt": str("1")})
	cutoff := tr.tick.Add(30 * time.Second)
	tr.commitFiles(t, "new1", map[string]*string{"a.txt": str("2")})
	head := tr.commitFiles(t, "new2", map[string]*string{"a.txt": str("3")})

	iter, err := tr.repo.Log(tr.ctx, LogFilter{From: head, Since: &cutoff})
	require.NoError(t, err)
	assert.Equal(t, []string{"new2", "new1"}, collect(t, iter))
}

func TestLog_NextAndStop(t *testing.T) {
	tr := setupTestRepo(t)
	tr.commitFiles(t, "one", map[string]*string{"a.txt": str("1")})
	head := tr.commitFiles(t, "two", map[string]*string{"a.txt": str("2")})

	iter, err := tr.repo.Log(tr.ctx, LogFilter{From: head, FirstParent: true})
	require.NoError(t, err)
	defer iter.Close()

	c, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, "two", c.Message)
	c, err = iter.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", c.Message)
	c, err = iter.Next()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestLog_RequiresStart(t *testing.T) {
	tr := setupTestRepo(t)

	_, err := tr.repo.Log(tr.ctx, LogFilter{})
	assert.ErrorIs(t, err, ErrInvalidRef)
}
