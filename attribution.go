package repohost

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
)

// changedPaths returns the paths commit changed relative to its first
// parent, or every path for a root commit.
func (e *Engine) changedPaths(ctx context.Context, repo *gitstore.Repo, commit *object.Commit) (map[string]struct{}, error) {
	if paths, ok := e.index.ChangedPaths(commit.Hash); ok {
		return paths, nil
	}

	var parent *object.Commit
	if commit.NumParents() > 0 {
		p, err := commit.Parent(0)
		if err != nil {
			return nil, gitstore.WrapErrorf(err, "failed to load parent of %s", commit.Hash)
		}
		parent = p
	}

	paths, err := repo.ChangedPaths(ctx, parent, commit)
	if err != nil {
		return nil, err
	}
	e.index.PutChangedPaths(commit.Hash, paths)
	return paths, nil
}

// attribute finds, for each path, the first commit reachable from start
// (start included, full ancestry in committer-time order) whose changed-path
// set contains it.
func (e *Engine) attribute(ctx context.Context, repo *gitstore.Repo, start *object.Commit, paths []string) (map[string]*object.Commit, error) {
	result := make(map[string]*object.Commit, len(paths))
	if len(paths) == 0 {
		return result, nil
	}

	if start.NumParents() == 0 {
		for _, p := range paths {
			result[p] = start
		}
		return result, nil
	}

	pending := make(map[string]struct{}, len(paths))
	loaded := map[plumbing.Hash]*object.Commit{start.Hash: start}
	for _, p := range paths {
		hash, ok := e.index.Attribution(start.Hash, p)
		if !ok {
			pending[p] = struct{}{}
			continue
		}
		commit, ok := loaded[hash]
		if !ok {
			c, err := repo.Raw().CommitObject(hash)
			if err != nil {
				pending[p] = struct{}{}
				continue
			}
			commit = c
			loaded[hash] = c
		}
		result[p] = commit
	}
	if len(pending) == 0 {
		return result, nil
	}

	iter, err := repo.Log(ctx, gitstore.LogFilter{From: start.Hash})
	if err != nil {
		return nil, err
	}
	err = iter.ForEach(func(commit *object.Commit) error {
		changed, err := e.changedPaths(ctx, repo, commit)
		if err != nil {
			return err
		}
		for p := range pending {
			if _, ok := changed[p]; !ok {
				continue
			}
			result[p] = commit
			e.index.PutAttribution(start.Hash, p, commit.Hash)
			delete(pending, p)
		}
		if len(pending) == 0 {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// unreachable for paths present in start's tree
	for p := range pending {
		result[p] = start
	}
	return result, nil
}
