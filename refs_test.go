package repohost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refNames(listing *RefListing) []string {
	names := make([]string, 0, len(listing.Refs))
	for _, r := range listing.Refs {
		names = append(names, r.Name)
	}
	return names
}

func TestGetBranchesAndTags(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	newTestRepository(t, e, "acme", "demo")
	seed := tipOf(t, e, "acme", "demo", "master")

	s := cloneScratch(t, e, "acme", "demo", "master")
	head := s.commit(t, "second", map[string]*string{"a.txt": str("a\n")})
	s.push(t, "master")

	for _, name := range []string{"develop", "release", "alpha"} {
		branchAt(t, e, "acme", "demo", name, seed)
	}
	tagAt(t, e, "acme", "demo", "v1.0", seed, "")
	tagAt(t, e, "acme", "demo", "v2.0", "master", "second release")

	t.Run("branches", func(t *testing.T) {
		listing, err := e.GetBranches(ctx, "acme", "demo", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "localhost", listing.Host)
		assert.Equal(t, "demo", listing.Name)
		assert.Equal(t, "acme/demo", listing.Path)
		assert.Equal(t, []string{"alpha", "develop", "master", "release"}, refNames(listing))

		master := listing.Refs[2]
		assert.Equal(t, head.String(), master.Commit)
		assert.Equal(t, "master", master.Path)
		assert.Equal(t, "second", master.Message)
		assert.Equal(t, "bob", master.Author)
	})

	t.Run("window", func(t *testing.T) {
		tests := []struct {
			offset, limit int
			want          []string
		}{
			{0, 2, []string{"alpha", "develop"}},
			{2, 2, []string{"master", "release"}},
			{3, 10, []string{"release"}},
			{4, 2, []string{}},
			{-1, 1, []string{"alpha"}},
		}
		for _, tt := range tests {
			listing, err := e.GetBranches(ctx, "acme", "demo", tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, refNames(listing), "offset %d limit %d", tt.offset, tt.limit)
		}
	})

	t.Run("tags are peeled", func(t *testing.T) {
		listing, err := e.GetTags(ctx, "acme", "demo", 0, 0)
		require.NoError(t, err)
		require.Equal(t, []string{"v1.0", "v2.0"}, refNames(listing))
		assert.Equal(t, seed, listing.Refs[0].Commit)
		assert.Equal(t, head.String(), listing.Refs[1].Commit)
	})

	t.Run("missing repository", func(t *testing.T) {
		_, err := e.GetTags(ctx, "acme", "nope", 0, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
