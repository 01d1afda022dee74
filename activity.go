package repohost

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
)

const day = 24 * time.Hour

// GetBranchHistory returns, for every branch, the number of commits in each
// of the last days day-long windows. Window i covers
// [now-(i+1)d, now-i*d) and is stamped with its start. Each branch is walked
// once from its tip until the first commit older than the oldest window.
func (e *Engine) GetBranchHistory(ctx context.Context, project, repository string, days int) ([]BranchActivity, error) {
	defer e.metrics.ObserveRead("get_branch_history")()

	if days <= 0 {
		days = DefaultHistoryDays
	}

	repo, err := e.openRepository(ctx, project, repository)
	if err != nil {
		return nil, err
	}
	branches, err := repo.Refs(ctx, gitstore.RefBranch, "")
	if err != nil {
		return nil, err
	}

	now := e.now()
	since := now.Add(-time.Duration(days) * day)

	result := make([]BranchActivity, 0, len(branches))
	for _, branch := range branches {
		counts, err := dailyCounts(ctx, repo, branch.Commit, now, since, days)
		if err != nil {
			return nil, err
		}

		activities := make([]Activity, days)
		for i := range activities {
			activities[i] = Activity{
				Timestamp: now.Add(-time.Duration(i+1) * day).Unix(),
				Commits:   counts[i],
			}
		}

		tip := branch.Commit
		result = append(result, BranchActivity{
			Name:       branch.Name,
			Path:       project + "/" + repository + "/" + branch.Name,
			Timestamp:  tip.Committer.When.Unix(),
			Author:     tip.Author.Name,
			Message:    tip.Message,
			Activities: activities,
		})
	}
	return result, nil
}

func dailyCounts(ctx context.Context, repo *gitstore.Repo, tip *object.Commit, now, since time.Time, days int) ([]int, error) {
	counts := make([]int, days)

	iter, err := repo.Log(ctx, gitstore.LogFilter{From: tip.Hash, Since: &since})
	if err != nil {
		return nil, err
	}
	err = iter.ForEach(func(c *object.Commit) error {
		if i, ok := windowOf(now.Sub(c.Committer.When)); ok && i < days {
			counts[i]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// windowOf maps a commit age onto the index i of the window
// [now-(i+1)d, now-i*d) containing it. Commits at or after now match none.
func windowOf(age time.Duration) (int, bool) {
	if age <= 0 {
		return 0, false
	}
	i := int(age / day)
	if age%day == 0 {
		i--
	}
	return i, true
}
