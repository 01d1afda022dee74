package repohost

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/identity"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/metrics"
)

// Ownership modes of provisioned trees. Only the owner and the shared group
// get access.
const (
	DirMode  os.FileMode = 0o770
	FileMode os.FileMode = 0o660
)

// ReadmeName is the file seeded into every new repository.
const ReadmeName = "README"

func (e *Engine) checkProjectName(project string) error {
	if !validName(project) {
		return fmt.Errorf("%w: project %q", ErrInvalidName, project)
	}
	if e.cfg.Excluded(project) {
		return fmt.Errorf("%w: project %q", ErrReservedName, project)
	}
	return nil
}

// CreateProject creates the project directory owned by owner and the shared
// group. It fails with fs.ErrExist when the project already exists.
func (e *Engine) CreateProject(ctx context.Context, project, owner string) error {
	if err := e.checkProjectName(project); err != nil {
		return err
	}
	who, err := identity.Lookup(e.resolver, owner, e.cfg.UserGroup)
	if err != nil {
		return err
	}

	dir := e.projectPath(project)
	if err := e.fs.Mkdir(dir, DirMode); err != nil {
		return fmt.Errorf("failed to create project %s: %w", project, err)
	}
	if err := identity.Apply(e.fs, dir, who, DirMode); err != nil {
		if rmErr := e.fs.RemoveAll(dir); rmErr != nil {
			e.logger.ErrorContext(ctx, "failed to remove project after error", "project", project, "error", rmErr)
		}
		return err
	}

	e.metrics.Provision(metrics.KindProject)
	e.logger.InfoContext(ctx, "project created", "project", project, "owner", owner)
	return nil
}

// CreateRepository initializes project/repository as a bare store, seeds it
// with a README commit and hands the whole tree to owner and the shared
// group. An empty readme uses the configured default content. The project
// must exist; a duplicate repository fails with fs.ErrExist.
func (e *Engine) CreateRepository(ctx context.Context, project, repository, owner, readme string) error {
	if err := e.checkProjectName(project); err != nil {
		return err
	}
	if !validName(repository) {
		return fmt.Errorf("%w: repository %q", ErrInvalidName, repository)
	}
	ok, err := e.isDir(e.projectPath(project))
	if err != nil {
		return err
	}
	if !ok {
		return absent("project", project)
	}
	who, err := identity.Lookup(e.resolver, owner, e.cfg.UserGroup)
	if err != nil {
		return err
	}

	dir := e.repositoryPath(project, repository)
	if _, err := e.fs.Stat(dir); err == nil {
		return &fs.PathError{Op: "create", Path: dir, Err: fs.ErrExist}
	}

	opts := gitstore.OSOptions(dir, true, e.cfg.StorerCacheSize)
	opts.Branch = e.cfg.DefaultBranch
	if _, err := gitstore.Init(ctx, opts); err != nil {
		_ = e.fs.RemoveAll(dir)
		return err
	}

	if readme == "" {
		readme = e.cfg.DefaultReadme
	}
	_, err = e.UpdateResource(ctx, project, repository, Update{
		Branch:  e.cfg.DefaultBranch,
		Path:    ReadmeName,
		Content: readme,
		Message: e.cfg.CreateMessage,
	})
	if err != nil {
		_ = e.fs.RemoveAll(dir)
		return err
	}

	if err := identity.ApplyTree(e.fs, dir, who, DirMode, FileMode); err != nil {
		return err
	}

	e.metrics.Provision(metrics.KindRepository)
	e.logger.InfoContext(ctx, "repository created",
		"project", project, "repository", repository, "owner", owner)
	return nil
}
