package lastmod

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
)

func hash(n int) plumbing.Hash {
	return plumbing.NewHash(fmt.Sprintf("%040x", n))
}

func TestIndex_ChangedPaths(t *testing.T) {
	idx := New(2)

	_, ok := idx.ChangedPaths(hash(1))
	assert.False(t, ok)

	idx.PutChangedPaths(hash(1), map[string]struct{}{"a": {}})
	got, ok := idx.ChangedPaths(hash(1))
	assert.True(t, ok)
	assert.Contains(t, got, "a")
}

func TestIndex_Attribution(t *testing.T) {
	idx := New(0)

	idx.PutAttribution(hash(1), "dir/file", hash(2))

	got, ok := idx.Attribution(hash(1), "dir/file")
	assert.True(t, ok)
	assert.Equal(t, hash(2), got)

	_, ok = idx.Attribution(hash(1), "other")
	assert.False(t, ok)
	_, ok = idx.Attribution(hash(3), "dir/file")
	assert.False(t, ok)
}

func TestIndex_Evicts(t *testing.T) {
	idx := New(2)

	idx.PutChangedPaths(hash(1), nil)
	idx.PutChangedPaths(hash(2), nil)
	idx.PutChangedPaths(hash(3), nil)

	_, ok := idx.ChangedPaths(hash(1))
	assert.False(t, ok, "least recently used entry should be evicted")
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_Concurrent(t *testing.T) {
	idx := New(64)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				idx.PutAttribution(hash(i), "p", hash(w))
				idx.Attribution(hash(i), "p")
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, idx.Len(), 64)
}
