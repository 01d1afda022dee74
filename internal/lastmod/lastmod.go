// Package lastmod caches last-modification lookups over immutable commit
// graphs. Keys are content hashes, so entries never go stale.
package lastmod

import (
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/golang/groupcache/lru"
)

// DefaultSize is the entry bound used when a non-positive size is given.
const DefaultSize = 4096

type attributionKey struct {
	start plumbing.Hash
	path  string
}

// Index is a concurrency-safe LRU of per-commit changed-path sets and of
// (start commit, path) attributions.
type Index struct {
	mu           sync.Mutex
	changed      *lru.Cache
	attributions *lru.Cache
}

// New creates an Index holding up to size entries of each kind.
func New(size int) *Index {
	if size <= 0 {
		size = DefaultSize
	}
	return &Index{
		changed:      lru.New(size),
		attributions: lru.New(size),
	}
}

// ChangedPaths returns the cached set of paths commit changed.
func (i *Index) ChangedPaths(commit plumbing.Hash) (map[string]struct{}, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, ok := i.changed.Get(commit)
	if !ok {
		return nil, false
	}
	return v.(map[string]struct{}), true
}

// PutChangedPaths records the set of paths commit changed. The set must not
// be mutated afterwards.
func (i *Index) PutChangedPaths(commit plumbing.Hash, paths map[string]struct{}) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.changed.Add(commit, paths)
}

// Attribution returns the cached commit that last modified path as seen
// from start.
func (i *Index) Attribution(start plumbing.Hash, path string) (plumbing.Hash, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, ok := i.attributions.Get(attributionKey{start: start, path: path})
	if !ok {
		return plumbing.ZeroHash, false
	}
	return v.(plumbing.Hash), true
}

// PutAttribution records that commit last modified path as seen from start.
func (i *Index) PutAttribution(start plumbing.Hash, path string, commit plumbing.Hash) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.attributions.Add(attributionKey{start: start, path: path}, commit)
}

// Len returns the number of cached entries of both kinds.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.changed.Len() + i.attributions.Len()
}
