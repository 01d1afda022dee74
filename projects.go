package repohost

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// GetProjects lists the project directories under the root, excluding
// reserved names, sorted.
func (e *Engine) GetProjects(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(e.fs, e.cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read project root: %w", err)
	}

	projects := []string{}
	for _, entry := range entries {
		if !entry.IsDir() || e.cfg.Excluded(entry.Name()) {
			continue
		}
		projects = append(projects, entry.Name())
	}
	sort.Strings(projects)
	return projects, nil
}

// GetRepositories lists the repositories of project by name, without the
// .git suffix, sorted.
func (e *Engine) GetRepositories(ctx context.Context, project string) ([]string, error) {
	if !validName(project) || e.cfg.Excluded(project) {
		return nil, absent("project", project)
	}
	dir := e.projectPath(project)
	ok, err := e.isDir(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, absent("project", project)
	}

	entries, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", project, err)
	}

	repos := []string{}
	for _, entry := range entries {
		name, found := strings.CutSuffix(entry.Name(), ".git")
		if !entry.IsDir() || !found || name == "" {
			continue
		}
		repos = append(repos, name)
	}
	sort.Strings(repos)
	return repos, nil
}
