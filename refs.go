package repohost

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
)

// GetBranches lists branches sorted by name, windowed by offset and limit.
// A non-positive limit uses DefaultRefLimit.
func (e *Engine) GetBranches(ctx context.Context, project, repository string, offset, limit int) (*RefListing, error) {
	defer e.metrics.ObserveRead("get_branches")()
	return e.listRefs(ctx, project, repository, gitstore.RefBranch, offset, limit)
}

// GetTags lists tags sorted by name, windowed by offset and limit. Annotated
// tags are peeled to their commit.
func (e *Engine) GetTags(ctx context.Context, project, repository string, offset, limit int) (*RefListing, error) {
	defer e.metrics.ObserveRead("get_tags")()
	return e.listRefs(ctx, project, repository, gitstore.RefTag, offset, limit)
}

func (e *Engine) listRefs(ctx context.Context, project, repository string, kind gitstore.RefKind, offset, limit int) (*RefListing, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultRefLimit
	}

	repo, err := e.openRepository(ctx, project, repository)
	if err != nil {
		return nil, err
	}
	refs, err := repo.Refs(ctx, kind, "")
	if err != nil {
		return nil, err
	}

	listing := &RefListing{
		Host: e.cfg.Host,
		Name: repository,
		Path: project + "/" + repository,
		Refs: []RefSummary{},
	}
	if offset >= len(refs) {
		return listing, nil
	}
	end := min(offset+limit, len(refs))

	for _, ref := range refs[offset:end] {
		c := ref.Commit
		listing.Refs = append(listing.Refs, RefSummary{
			Name:      ref.Name,
			Path:      ref.Name,
			Timestamp: c.Committer.When.Unix(),
			Author:    c.Author.Name,
			Message:   c.Message,
			Commit:    c.Hash.String(),
		})
	}
	return listing, nil
}
