package gitstore

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// Operation classifies how a path changed between two commits.
type Operation string

const (
	OpAdd    Operation = "add"
	OpDelete Operation = "delete"
	OpRename Operation = "rename"
	OpModify Operation = "modify"
)

// FileChange describes one changed path between a parent and a commit.
type FileChange struct {
	// OldPath is the path in the parent; empty for additions.
	OldPath string

	// NewPath is the path in the commit; empty for deletions.
	NewPath string

	Operation Operation

	// Patch is the unified diff text for this path.
	Patch string

	// NewContent holds the full post-change text for modify and rename
	// operations when the new blob is valid UTF-8 text; nil otherwise.
	NewContent *string
}

// FileStat counts line changes for one path or for a whole diff.
type FileStat struct {
	Insertions int
	Deletions  int
	Lines      int
}

// DiffStats aggregates per-path and total line changes.
type DiffStats struct {
	Files map[string]FileStat
	Total FileStat
	// FileCount is the number of changed paths.
	FileCount int
}

func treeOf(c *object.Commit) (*object.Tree, error) {
	if c == nil {
		return nil, nil
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, WrapErrorf(err, "failed to get tree of %s", c.Hash)
	}
	return tree, nil
}

// Changes computes the changes from parent to commit with rename detection.
// A nil parent diffs against the empty tree. Filters are applied
// progressively; a change must pass all of them.
func (r *Repo) Changes(ctx context.Context, parent, commit *object.Commit, filters ...ChangeFilter) (object.Changes, error) {
	from, err := treeOf(parent)
	if err != nil {
		return nil, err
	}
	to, err := treeOf(commit)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, WrapError(err, "failed to compute changes")
	}

	return applyChangeFilters(changes, filters), nil
}

// ChangedPaths returns the set of paths differing between parent and commit,
// without rename detection. A nil parent yields every path in commit.
func (r *Repo) ChangedPaths(ctx context.Context, parent, commit *object.Commit) (map[string]struct{}, error) {
	from, err := treeOf(parent)
	if err != nil {
		return nil, err
	}
	to, err := treeOf(commit)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, to, nil)
	if err != nil {
		return nil, WrapError(err, "failed to compute changes")
	}

	paths := make(map[string]struct{}, len(changes))
	for _, change := range changes {
		if change.From.Name != "" {
			paths[change.From.Name] = struct{}{}
		}
		if change.To.Name != "" {
			paths[change.To.Name] = struct{}{}
		}
	}
	return paths, nil
}

// Classify maps a change onto its Operation.
func Classify(change *object.Change) Operation {
	switch {
	case AddedFilter()(change):
		return OpAdd
	case DeletedFilter()(change):
		return OpDelete
	case RenamedFilter()(change):
		return OpRename
	case ModifiedFilter()(change):
		return OpModify
	default:
		return OpModify
	}
}

// Diff computes classified per-path changes from parent to commit, each with
// its patch text. Entries are ordered by path.
func (r *Repo) Diff(ctx context.Context, parent, commit *object.Commit, filters ...ChangeFilter) ([]FileChange, error) {
	changes, err := r.Changes(ctx, parent, commit, filters...)
	if err != nil {
		return nil, err
	}

	result := make([]FileChange, 0, len(changes))
	for _, change := range changes {
		fc, err := fileChange(ctx, change)
		if err != nil {
			return nil, err
		}
		result = append(result, fc)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return changeKey(result[i]) < changeKey(result[j])
	})
	return result, nil
}

func changeKey(fc FileChange) string {
	if fc.NewPath != "" {
		return fc.NewPath
	}
	return fc.OldPath
}

func fileChange(ctx context.Context, change *object.Change) (FileChange, error) {
	fc := FileChange{
		OldPath:   change.From.Name,
		NewPath:   change.To.Name,
		Operation: Classify(change),
	}

	patch, err := change.PatchContext(ctx)
	if err != nil {
		return FileChange{}, WrapErrorf(err, "failed to generate patch for %q", changeKey(fc))
	}
	fc.Patch = patch.String()

	if fc.Operation != OpModify && fc.Operation != OpRename {
		return fc, nil
	}

	_, to, err := change.Files()
	if err != nil {
		return FileChange{}, WrapErrorf(err, "failed to read %q", fc.NewPath)
	}
	if to == nil {
		return fc, nil
	}

	binary, err := to.IsBinary()
	if err != nil {
		return FileChange{}, WrapErrorf(err, "failed to inspect %q", fc.NewPath)
	}
	if binary {
		return fc, nil
	}

	content, err := to.Contents()
	if err != nil {
		return FileChange{}, WrapErrorf(err, "failed to read %q", fc.NewPath)
	}
	if utf8.ValidString(content) {
		fc.NewContent = &content
	}

	return fc, nil
}

// Stats computes line statistics from parent to commit. A nil parent diffs
// against the empty tree.
func (r *Repo) Stats(ctx context.Context, parent, commit *object.Commit) (DiffStats, error) {
	changes, err := r.Changes(ctx, parent, commit)
	if err != nil {
		return DiffStats{}, err
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return DiffStats{}, WrapError(err, "failed to generate patch")
	}

	stats := DiffStats{Files: make(map[string]FileStat)}
	for _, fs := range patch.Stats() {
		st := FileStat{
			Insertions: fs.Addition,
			Deletions:  fs.Deletion,
			Lines:      fs.Addition + fs.Deletion,
		}
		stats.Files[fs.Name] = st
		stats.Total.Insertions += st.Insertions
		stats.Total.Deletions += st.Deletions
		stats.Total.Lines += st.Lines
	}
	stats.FileCount = len(stats.Files)

	return stats, nil
}
