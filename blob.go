package repohost

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/media"
)

// GetResource reads the file at p in revision. Images are returned as data
// URIs; anything else must be valid UTF-8. Directories, missing paths and
// undecodable content all fail with ErrNotFound.
func (e *Engine) GetResource(ctx context.Context, project, repository, revision, p string) (*Blob, error) {
	defer e.metrics.ObserveRead("get_resource")()

	e.logger.DebugContext(ctx, "reading resource",
		"project", project, "repository", repository, "revision", revision, "path", p)

	repo, commit, err := e.open(ctx, project, repository, revision)
	if err != nil {
		return nil, err
	}

	p = strings.Trim(p, "/")
	if p == "" {
		return nil, &LookupError{What: "path", Name: "/", Cause: WrongKind}
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, gitstore.WrapErrorf(err, "failed to get tree of %s", commit.Hash)
	}
	entry, err := tree.FindEntry(p)
	if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, absent("path", p)
	}
	if err != nil {
		return nil, gitstore.WrapErrorf(err, "failed to find %q", p)
	}
	if entry.Mode == filemode.Dir || entry.Mode == filemode.Submodule {
		return nil, &LookupError{What: "path", Name: p, Cause: WrongKind}
	}

	blob, err := repo.Raw().BlobObject(entry.Hash)
	if err != nil {
		return nil, gitstore.WrapErrorf(err, "failed to load blob %s", entry.Hash)
	}
	data, err := readBlob(blob)
	if err != nil {
		return nil, err
	}

	var content string
	switch {
	case media.IsImage(p):
		content = media.DataURI(p, data)
	case utf8.Valid(data):
		content = string(data)
	default:
		return nil, &LookupError{What: "path", Name: p, Cause: DecodeFailed}
	}

	return &Blob{
		Attribution: attributionOf(commit),
		Path:        p,
		Object:      entry.Hash.String(),
		Content:     content,
	}, nil
}

func readBlob(blob *object.Blob) ([]byte, error) {
	r, err := blob.Reader()
	if err != nil {
		return nil, gitstore.WrapErrorf(err, "failed to open blob %s", blob.Hash)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, gitstore.WrapErrorf(err, "failed to read blob %s", blob.Hash)
	}
	return data, nil
}
