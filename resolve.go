package repohost

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
)

// openRepository opens the bare store of project/repository. Reserved or
// malformed names are reported as absent.
func (e *Engine) openRepository(ctx context.Context, project, repository string) (*gitstore.Repo, error) {
	if !validName(project) || e.cfg.Excluded(project) {
		return nil, absent("project", project)
	}
	ok, err := e.isDir(e.projectPath(project))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, absent("project", project)
	}

	if !validName(repository) {
		return nil, absent("repository", repository)
	}
	opts := gitstore.OSOptions(e.repositoryPath(project, repository), true, e.cfg.StorerCacheSize)
	repo, err := gitstore.Open(ctx, opts)
	if errors.Is(err, gitstore.ErrRepositoryMissing) {
		return nil, absent("repository", repository)
	}
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// resolveIn resolves revision inside an opened repository.
func resolveIn(ctx context.Context, repo *gitstore.Repo, revision string) (*object.Commit, error) {
	commit, err := repo.Resolve(ctx, revision)
	if errors.Is(err, gitstore.ErrResolveFailed) || errors.Is(err, gitstore.ErrInvalidRef) {
		return nil, absent("revision", revision)
	}
	if err != nil {
		return nil, err
	}
	return commit, nil
}

func (e *Engine) open(ctx context.Context, project, repository, revision string) (*gitstore.Repo, *object.Commit, error) {
	repo, err := e.openRepository(ctx, project, repository)
	if err != nil {
		return nil, nil, err
	}
	commit, err := resolveIn(ctx, repo, revision)
	if err != nil {
		return nil, nil, err
	}
	return repo, commit, nil
}

// Resolve resolves revision (branch, tag or commit hash) in
// project/repository. It fails with ErrNotFound when the project,
// repository or revision does not exist.
func (e *Engine) Resolve(ctx context.Context, project, repository, revision string) (*CommitSummary, error) {
	_, commit, err := e.open(ctx, project, repository, revision)
	if err != nil {
		return nil, err
	}
	summary := summaryOf(commit)
	return &summary, nil
}
