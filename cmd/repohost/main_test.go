package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/repohost"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/identity"
)

func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--project-root", root,
		"--staging-dir", t.TempDir(),
		"--log-file", "",
		"--log-level", "error",
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seed provisions acme/demo directly through the engine.
func seed(t *testing.T, root string) {
	t.Helper()

	cfg := config.Development()
	cfg.ProjectRoot = root
	cfg.StagingDir = t.TempDir()
	e, err := repohost.New(cfg, repohost.WithIdentityResolver(identity.Fixed{UID: os.Getuid(), GID: os.Getgid()}))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, e.CreateProject(ctx, "acme", "alice"))
	require.NoError(t, e.CreateRepository(ctx, "acme", "demo", "alice", ""))
}

func TestProjectAndRepoList(t *testing.T) {
	root := t.TempDir()
	seed(t, root)
	require.NoError(t, os.Mkdir(filepath.Join(root, "usr"), 0o755))

	out, err := run(t, root, "project", "list")
	require.NoError(t, err)
	assert.Equal(t, "acme\n", out)

	out, err = run(t, root, "repo", "list", "acme")
	require.NoError(t, err)
	assert.Equal(t, "demo\n", out)

	_, err = run(t, root, "repo", "list", "nope")
	assert.ErrorIs(t, err, repohost.ErrNotFound)
}

func TestLog(t *testing.T) {
	root := t.TempDir()
	seed(t, root)

	out, err := run(t, root, "log", "acme", "demo")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "repohost create repository."), lines[0])
}

func TestMetricsFile(t *testing.T) {
	root := t.TempDir()
	seed(t, root)
	path := filepath.Join(t.TempDir(), "repohost.prom")

	_, err := run(t, root, "--metrics-file", path, "log", "acme", "demo")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `repohost_read_duration_seconds_count{operation="list_commits"} 1`)

	// A second run starts from zero rather than accumulating.
	_, err = run(t, root, "--metrics-file", path, "log", "acme", "demo")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `repohost_read_duration_seconds_count{operation="list_commits"} 1`)
}

func TestRequiredFlags(t *testing.T) {
	root := t.TempDir()

	_, err := run(t, root, "project", "create", "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner")

	_, err = run(t, root, "user", "add", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key")
}
