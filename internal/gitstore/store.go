// Package gitstore is the object store adapter of repohost. It wraps go-git
// with the handful of operations the engine needs: opening bare stores,
// resolving revisions, walking history and staging single-file commits.
// Every repository is reached through a go-billy filesystem.
package gitstore

import (
	"context"
	"errors"
	"fmt"

	gobilly "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize bounds the object cache of each opened store.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the repository root inside Options.FS.
	DefaultWorkdir = "."

	// DefaultRemoteName names the bare origin of a staging clone.
	DefaultRemoteName = "origin"
)

// Options locates a repository and tunes its storage.
type Options struct {
	// FS holds the repository. Required.
	FS gobilly.Filesystem

	// Workdir is the repository directory relative to FS. Defaults to ".".
	Workdir string

	// Bare stores objects at Workdir itself, without a worktree.
	Bare bool

	// StorerCacheSize is the object cache capacity. Zero means DefaultStorerCacheSize.
	StorerCacheSize int

	// Branch is the branch checked out by Clone and the initial HEAD target of Init.
	// Empty keeps go-git's defaults.
	Branch string
}

// Validate rejects a missing filesystem or a negative cache size.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "options need a filesystem")
	}

	if o.StorerCacheSize < 0 {
		return WrapErrorf(ErrInvalidRef, "negative storer cache size %d", o.StorerCacheSize)
	}

	return nil
}

// applyDefaults fills the zero fields.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}
}

// OSOptions returns Options rooted at an on-disk directory.
func OSOptions(path string, bare bool, cacheSize int) *Options {
	return &Options{
		FS:              osfs.New(path),
		Bare:            bare,
		StorerCacheSize: cacheSize,
	}
}

// Repo is an opened store. Staging clones also carry their worktree.
type Repo struct {
	repo     *git.Repository
	storage  *filesystem.Storage
	worktree *git.Worktree
	fs       gobilly.Filesystem
	options  Options
}

// storageFor builds the object storage and worktree filesystem for the options.
func storageFor(opts *Options) (*filesystem.Storage, gobilly.Filesystem, error) {
	scopedFS, err := opts.FS.Chroot(opts.Workdir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chroot to workdir %q: %w", opts.Workdir, err)
	}

	if opts.Bare {
		return fsbridge.NewStorage(scopedFS, opts.StorerCacheSize), nil, nil
	}

	dotGitFS, err := scopedFS.Chroot(git.GitDirName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access .git directory: %w", err)
	}
	return fsbridge.NewStorage(dotGitFS, opts.StorerCacheSize), scopedFS, nil
}

// wrap builds a Repo around an opened go-git repository.
func wrap(repo *git.Repository, storage *filesystem.Storage, opts *Options) (*Repo, error) {
	r := &Repo{
		repo:    repo,
		storage: storage,
		fs:      opts.FS,
		options: *opts,
	}

	if !opts.Bare {
		worktree, err := repo.Worktree()
		if err != nil {
			return nil, WrapError(err, "worktree")
		}
		r.worktree = worktree
	}

	return r, nil
}

// Init creates a repository at opts.Workdir. opts.Branch, when set, becomes
// the unborn HEAD.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := storageFor(opts)
	if err != nil {
		return nil, err
	}

	initOpts := git.InitOptions{}
	if opts.Branch != "" {
		initOpts.DefaultBranch = plumbing.NewBranchReferenceName(opts.Branch)
	}

	repo, err := git.InitWithOptions(storage, worktreeFS, initOpts)
	if err != nil {
		return nil, WrapError(err, "init repository")
	}

	return wrap(repo, storage, opts)
}

// Open opens the repository at opts.Workdir, or returns ErrRepositoryMissing.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := storageFor(opts)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(storage, worktreeFS)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrRepositoryMissing
		}
		return nil, WrapError(err, "open repository")
	}

	return wrap(repo, storage, opts)
}

// Clone makes a working copy of remoteURL. With opts.Branch set only that
// branch is fetched and checked out, tracking origin. An empty origin yields
// ErrEmptyRepository.
func Clone(ctx context.Context, remoteURL string, opts *Options) (*Repo, error) {
	if remoteURL == "" {
		return nil, WrapError(ErrInvalidRef, "empty remote URL")
	}

	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()
	installLocalTransport()

	storage, worktreeFS, err := storageFor(opts)
	if err != nil {
		return nil, err
	}

	cloneOpts := &git.CloneOptions{
		URL:        remoteURL,
		RemoteName: DefaultRemoteName,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	repo, err := git.CloneContext(ctx, storage, worktreeFS, cloneOpts)
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, ErrEmptyRepository
		}
		if errors.Is(err, transport.ErrRepositoryNotFound) {
			return nil, ErrRepositoryMissing
		}
		return nil, WrapError(err, "clone repository")
	}

	return wrap(repo, storage, opts)
}

// Raw exposes the underlying go-git repository for read-side object access.
func (r *Repo) Raw() *git.Repository {
	return r.repo
}

