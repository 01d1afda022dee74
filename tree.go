package repohost

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
)

// normalizePrefix strips surrounding slashes and terminates a non-empty
// prefix with one.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

type walkedEntry struct {
	path  string
	entry object.TreeEntry
}

// ListResources lists the entries of the tree at revision whose full path
// starts with prefix, in pre-order, windowed by offset and limit. A
// non-positive limit uses DefaultResourceLimit. Directories carry their
// immediate child count and files the commit that last changed them.
func (e *Engine) ListResources(ctx context.Context, project, repository, revision, prefix string, offset, limit int) ([]Resource, error) {
	defer e.metrics.ObserveRead("list_resources")()

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultResourceLimit
	}
	prefix = normalizePrefix(prefix)

	e.logger.DebugContext(ctx, "listing resources",
		"project", project, "repository", repository, "revision", revision, "prefix", prefix)

	repo, commit, err := e.open(ctx, project, repository, revision)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, gitstore.WrapErrorf(err, "failed to get tree of %s", commit.Hash)
	}

	window, err := walkWindow(ctx, tree, prefix, offset, limit)
	if err != nil {
		return nil, err
	}

	var blobPaths []string
	for _, w := range window {
		if w.entry.Mode != filemode.Dir {
			blobPaths = append(blobPaths, w.path)
		}
	}
	attributions, err := e.attribute(ctx, repo, commit, blobPaths)
	if err != nil {
		return nil, err
	}

	resources := make([]Resource, 0, len(window))
	for _, w := range window {
		res := Resource{
			Name:   path.Base(w.path),
			Path:   revision + "/" + w.path,
			Object: w.entry.Hash.String(),
		}
		if w.entry.Mode == filemode.Dir {
			sub, err := repo.Raw().TreeObject(w.entry.Hash)
			if err != nil {
				return nil, gitstore.WrapErrorf(err, "failed to read tree %q", w.path)
			}
			res.Type = TypeTree
			res.Children = len(sub.Entries)
		} else {
			res.Type = TypeBlob
			if c := attributions[w.path]; c != nil {
				a := attributionOf(c)
				res.LastCommit = &a
			}
		}
		resources = append(resources, res)
	}
	return resources, nil
}

// walkWindow walks tree recursively and returns the [offset, offset+limit)
// slice of entries under prefix.
func walkWindow(ctx context.Context, tree *object.Tree, prefix string, offset, limit int) ([]walkedEntry, error) {
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	var (
		window  []walkedEntry
		matched int
	)
	for len(window) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, entry, err := walker.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, gitstore.WrapError(err, "failed to walk tree")
		}
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if matched >= offset {
			window = append(window, walkedEntry{path: name, entry: entry})
		}
		matched++
	}
	return window, nil
}
