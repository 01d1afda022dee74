package gitstore

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// ChangeFilter is a predicate function for filtering changes in diffs.
// It returns true if the change should be included.
type ChangeFilter func(*object.Change) bool

// PathFilter includes changes touching p itself or any file below the
// directory p. Both sides of a rename are checked.
func PathFilter(p string) ChangeFilter {
	p = strings.Trim(p, "/")
	return func(change *object.Change) bool {
		return underPath(change.From.Name, p) || underPath(change.To.Name, p)
	}
}

func underPath(name, p string) bool {
	if name == "" {
		return false
	}
	return p == "" || name == p || strings.HasPrefix(name, p+"/")
}

// AddedFilter only includes newly added files.
func AddedFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return change.From.Name == "" && change.To.Name != ""
	}
}

// DeletedFilter only includes deleted files.
func DeletedFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return change.From.Name != "" && change.To.Name == ""
	}
}

// ModifiedFilter only includes files changed in place.
func ModifiedFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return change.From.Name != "" && change.From.Name == change.To.Name
	}
}

// RenamedFilter only includes renamed or moved files.
func RenamedFilter() ChangeFilter {
	return func(change *object.Change) bool {
		return change.From.Name != "" && change.To.Name != "" &&
			change.From.Name != change.To.Name
	}
}

// applyChangeFilters keeps the changes passing every filter.
func applyChangeFilters(changes object.Changes, filters []ChangeFilter) object.Changes {
	if len(filters) == 0 {
		return changes
	}

	var filtered object.Changes
	for _, change := range changes {
		keep := true
		for _, filter := range filters {
			if filter != nil && !filter(change) {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, change)
		}
	}
	return filtered
}
