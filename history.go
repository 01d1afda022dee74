package repohost

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
)

// CommitQuery narrows a history listing.
type CommitQuery struct {
	// StartRev, when set, lists the ancestors of this commit, excluding it.
	// The ref passed to ListCommits is not consulted.
	StartRev string
	// Path keeps only commits that changed this file or directory.
	Path string
	// Limit bounds the result. Non-positive uses DefaultCommitLimit.
	Limit int
}

// ListCommits walks first-parent history. Without q.StartRev the tip of ref
// is returned first, consuming one unit of the limit, followed by its
// ancestors.
func (e *Engine) ListCommits(ctx context.Context, project, repository, ref string, q CommitQuery) ([]CommitSummary, error) {
	defer e.metrics.ObserveRead("list_commits")()

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultCommitLimit
	}

	e.logger.DebugContext(ctx, "listing commits",
		"project", project, "repository", repository, "ref", ref, "start", q.StartRev, "path", q.Path)

	repo, err := e.openRepository(ctx, project, repository)
	if err != nil {
		return nil, err
	}

	var (
		summaries []CommitSummary
		from      *object.Commit
	)
	if q.StartRev != "" {
		start, err := resolveIn(ctx, repo, q.StartRev)
		if err != nil {
			return nil, err
		}
		from = start
	} else {
		tip, err := resolveIn(ctx, repo, ref)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summaryOf(tip))
		limit--
		from = tip
	}

	if limit == 0 || from.NumParents() == 0 {
		return summaries, nil
	}

	iter, err := repo.Log(ctx, gitstore.LogFilter{
		From:        from.ParentHashes[0],
		FirstParent: true,
		Path:        q.Path,
		MaxCount:    limit,
	})
	if err != nil {
		return nil, err
	}
	err = iter.ForEach(func(c *object.Commit) error {
		summaries = append(summaries, summaryOf(c))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetCommit returns revision with one diff group per parent and line stats
// against the first parent. A root commit has no parents but still gets a
// single group, diffed against the empty tree, whose Parent is "". Its stats
// count every line as inserted.
func (e *Engine) GetCommit(ctx context.Context, project, repository, revision string) (*CommitDetail, error) {
	defer e.metrics.ObserveRead("get_commit")()

	repo, commit, err := e.open(ctx, project, repository, revision)
	if err != nil {
		return nil, err
	}

	parents := make([]*object.Commit, 0, commit.NumParents())
	err = commit.Parents().ForEach(func(p *object.Commit) error {
		parents = append(parents, p)
		return nil
	})
	if err != nil {
		return nil, gitstore.WrapErrorf(err, "failed to load parents of %s", commit.Hash)
	}

	detail := &CommitDetail{CommitSummary: summaryOf(commit)}

	bases := parents
	if len(bases) == 0 {
		bases = []*object.Commit{nil}
	}
	for _, parent := range bases {
		changes, err := repo.Diff(ctx, parent, commit)
		if err != nil {
			return nil, err
		}
		group := DiffGroup{Entries: make([]DiffEntry, 0, len(changes))}
		if parent != nil {
			group.Parent = parent.Hash.String()
		}
		for _, fc := range changes {
			group.Entries = append(group.Entries, DiffEntry{
				OldPath:   fc.OldPath,
				NewPath:   fc.NewPath,
				Operation: fc.Operation,
				Patch:     fc.Patch,
				Content:   fc.NewContent,
			})
		}
		detail.Diffs = append(detail.Diffs, group)
	}

	stats, err := repo.Stats(ctx, bases[0], commit)
	if err != nil {
		return nil, err
	}
	detail.Stats = CommitStats{
		Files: make(map[string]LineStats, len(stats.Files)),
		Total: TotalStats{LineStats: LineStats(stats.Total), Files: stats.FileCount},
	}
	for name, st := range stats.Files {
		detail.Stats.Files[name] = LineStats(st)
	}

	return detail, nil
}
