package identity

import (
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemResolver(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)

	uid, err := System{}.UserID(current.Username)
	require.NoError(t, err)
	assert.Equal(t, current.Uid, strconv.Itoa(uid))

	_, err = System{}.UserID("no-such-user-for-repohost-tests")
	assert.True(t, errors.Is(err, ErrUnknown))

	_, err = System{}.GroupID("no-such-group-for-repohost-tests")
	assert.True(t, errors.Is(err, ErrUnknown))
}

func TestLookup(t *testing.T) {
	owner, err := Lookup(Fixed{UID: 1001, GID: 2002}, "alice", "repohost")
	require.NoError(t, err)
	assert.Equal(t, Owner{UID: 1001, GID: 2002}, owner)

	_, err = Lookup(System{}, "no-such-user-for-repohost-tests", "x")
	assert.True(t, errors.Is(err, ErrUnknown))
}

func TestApplyTree(t *testing.T) {
	root := t.TempDir()
	fsys := afero.NewOsFs()

	repo := filepath.Join(root, "demo.git")
	require.NoError(t, fsys.MkdirAll(filepath.Join(repo, "objects", "ab"), 0o755))
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(repo, "HEAD"), []byte("ref: refs/heads/master\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(repo, "objects", "ab", "cd"), []byte("x"), 0o444))

	owner := Owner{UID: os.Getuid(), GID: os.Getgid()}
	require.NoError(t, ApplyTree(fsys, repo, owner, 0o770, 0o660))

	tests := []struct {
		path string
		mode os.FileMode
	}{
		{path: repo, mode: 0o770},
		{path: filepath.Join(repo, "objects"), mode: 0o770},
		{path: filepath.Join(repo, "objects", "ab"), mode: 0o770},
		{path: filepath.Join(repo, "HEAD"), mode: 0o660},
		{path: filepath.Join(repo, "objects", "ab", "cd"), mode: 0o660},
	}
	for _, tt := range tests {
		info, err := fsys.Stat(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.mode, info.Mode().Perm(), tt.path)
	}
}

func TestApplyTree_MissingRoot(t *testing.T) {
	err := ApplyTree(afero.NewOsFs(), filepath.Join(t.TempDir(), "missing"), Owner{UID: -1, GID: -1}, 0o770, 0o660)
	assert.Error(t, err)
}
