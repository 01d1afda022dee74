package repohost

import (
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/convention"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/gitstore"
)

// Attribution names the commit responsible for an entry.
type Attribution struct {
	Commit    string `json:"commit"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func attributionOf(c *object.Commit) Attribution {
	return Attribution{
		Commit:    c.Hash.String(),
		Author:    c.Author.Name,
		Message:   c.Message,
		Timestamp: c.Committer.When.Unix(),
	}
}

// ResourceType distinguishes directories from files.
type ResourceType string

const (
	TypeTree ResourceType = "tree"
	TypeBlob ResourceType = "blob"
)

// Resource is one entry of a tree listing.
type Resource struct {
	Name string `json:"name"`
	// Path is "<revision>/<full path>".
	Path string       `json:"path"`
	Type ResourceType `json:"type"`
	// Object is the tree or blob hash.
	Object string `json:"object"`

	// Children counts immediate entries of a tree.
	Children int `json:"children,omitempty"`

	// LastCommit is set on blobs.
	LastCommit *Attribution `json:"last_commit,omitempty"`
}

// Blob is the decoded content of one file.
type Blob struct {
	Attribution
	Path string `json:"path"`
	// Object is the blob hash.
	Object string `json:"object"`
	// Content is UTF-8 text, or a data URI for images.
	Content string `json:"content"`
}

// CommitSummary describes one commit of a history listing.
type CommitSummary struct {
	Commit     string                 `json:"commit"`
	Parents    []string               `json:"parents"`
	Timestamp  int64                  `json:"timestamp"`
	Author     string                 `json:"author"`
	Message    string                 `json:"message"`
	Convention *convention.Convention `json:"convention,omitempty"`
}

func summaryOf(c *object.Commit) CommitSummary {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, h := range c.ParentHashes {
		parents = append(parents, h.String())
	}
	return CommitSummary{
		Commit:     c.Hash.String(),
		Parents:    parents,
		Timestamp:  c.Committer.When.Unix(),
		Author:     c.Author.Name,
		Message:    c.Message,
		Convention: convention.Parse(c.Message),
	}
}

// DiffEntry is one changed path against one parent.
type DiffEntry struct {
	OldPath   string             `json:"old_path"`
	NewPath   string             `json:"new_path"`
	Operation gitstore.Operation `json:"operation"`
	Patch     string             `json:"patch"`
	// Content is the full new text, for modify and rename only.
	Content *string `json:"content,omitempty"`
}

// DiffGroup holds the changes of a commit against one of its parents.
// Parent is empty for a root commit, whose group is against the empty tree.
type DiffGroup struct {
	Parent  string      `json:"parent"`
	Entries []DiffEntry `json:"entries"`
}

// LineStats counts changed lines.
type LineStats struct {
	Insertions int `json:"insertions"`
	Deletions  int `json:"deletions"`
	Lines      int `json:"lines"`
}

// TotalStats sums LineStats over every changed path.
type TotalStats struct {
	LineStats
	Files int `json:"files"`
}

// CommitStats aggregates line counts against the first parent.
type CommitStats struct {
	Files map[string]LineStats `json:"files"`
	Total TotalStats           `json:"total"`
}

// CommitDetail is a commit with its diffs and stats.
type CommitDetail struct {
	CommitSummary
	Diffs []DiffGroup `json:"diffs"`
	Stats CommitStats `json:"stats"`
}

// Activity counts commits in one day-long window.
type Activity struct {
	// Timestamp is the window start.
	Timestamp int64 `json:"timestamp"`
	Commits   int   `json:"commits"`
}

// BranchActivity is the daily commit series of one branch, newest first.
type BranchActivity struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Timestamp  int64      `json:"timestamp"`
	Author     string     `json:"author"`
	Message    string     `json:"message"`
	Activities []Activity `json:"activities"`
}

// RefSummary is a branch or tag and the commit it designates.
type RefSummary struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Timestamp int64  `json:"timestamp"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	Commit    string `json:"commit"`
}

// RefListing is a page of branches or tags of one repository.
type RefListing struct {
	Host string       `json:"host"`
	Name string       `json:"name"`
	Path string       `json:"path"`
	Refs []RefSummary `json:"refs"`
}

// Update describes a single-file edit.
type Update struct {
	Branch  string
	Path    string
	Content string
	// Message defaults to the configured commit message.
	Message string
	// Token is the branch tip hash the caller last saw. Empty only for an
	// empty repository.
	Token string
}

// UpdateResult reports the commit an update produced.
type UpdateResult struct {
	// Commit is the new branch tip, usable as the next token.
	Commit string `json:"commit"`
	// Parent is the previous tip; empty for the first commit.
	Parent string `json:"parent,omitempty"`
}
