package repohost

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectsAndRepositories(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	projects, err := e.GetProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	newTestRepository(t, e, "zeta", "one")
	newTestRepository(t, e, "acme", "web")
	newTestRepository(t, e, "acme", "api")

	root := e.cfg.ProjectRoot
	require.NoError(t, os.Mkdir(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "acme", "scratch"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "acme", "stray.git"), []byte("x"), 0o644))

	projects, err = e.GetProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "zeta"}, projects)

	repos, err := e.GetRepositories(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, repos)

	for _, name := range []string{"nope", "bin", "../acme", ""} {
		_, err := e.GetRepositories(ctx, name)
		assert.ErrorIs(t, err, ErrNotFound, "project %q", name)
	}
}
