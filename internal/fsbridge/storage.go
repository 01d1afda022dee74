// Package fsbridge builds go-git object storage on top of go-billy filesystems.
package fsbridge

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// MinCacheSize is used whenever a non-positive cache size is requested.
const MinCacheSize = 100

// NewStorage creates git storage rooted at billyFS with an LRU object cache
// bounded to cacheSize KiB.
func NewStorage(billyFS billy.Filesystem, cacheSize int) *filesystem.Storage {
	if cacheSize <= 0 {
		cacheSize = MinCacheSize
	}

	objCache := cache.NewObjectLRU(cache.FileSize(cacheSize) * cache.KiByte)
	return filesystem.NewStorage(billyFS, objCache)
}
