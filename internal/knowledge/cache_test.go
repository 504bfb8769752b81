package knowledge_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnote-dev/xnote/internal/knowledge"
	"github.com/xnote-dev/xnote/internal/knowledge/sqlite"
	"github.com/xnote-dev/xnote/internal/vault"
)

func openCache(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRebuildFromVaultCached_MatchesUncachedResults(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "# A\nhello world #tag1 [[b]]\n")
	writeNote(t, root, "b.md", "# B\nanother note\n")

	v, err := vault.Open(root)
	require.NoError(t, err)

	store := openCache(t)
	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVaultCached(v, store))
	assert.Equal(t, 2, idx.NoteCount())

	got := idx.QuickOpenPaths("hello", 10)
	require.NotEmpty(t, got)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRebuildFromVaultCached_ReusesCacheWhenFileUnchanged(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "# A\nhello world #tag1\n")

	v, err := vault.Open(root)
	require.NoError(t, err)
	store := openCache(t)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVaultCached(v, store))

	before, ok, err := store.Get(context.Background(), "a.md")
	require.NoError(t, err)
	require.True(t, ok)

	idx2 := knowledge.New()
	require.NoError(t, idx2.RebuildFromVaultCached(v, store))

	after, ok, err := store.Get(context.Background(), "a.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, idx.NoteCount(), idx2.NoteCount())

	got := idx2.QuickOpenPaths("hello", 10)
	assert.NotEmpty(t, got)
}

func TestRebuildFromVaultCached_DropsStaleCacheEntries(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "# A\nkeep me\n")
	writeNote(t, root, "b.md", "# B\nremove me\n")

	v, err := vault.Open(root)
	require.NoError(t, err)
	store := openCache(t)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVaultCached(v, store))

	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))

	idx2 := knowledge.New()
	require.NoError(t, idx2.RebuildFromVaultCached(v, store))
	assert.Equal(t, 1, idx2.NoteCount())

	paths, err := store.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, paths)
}

func TestRebuildFromVaultCached_PicksUpContentChanges(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "# A\noriginal content\n")

	v, err := vault.Open(root)
	require.NoError(t, err)
	store := openCache(t)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVaultCached(v, store))
	assert.Empty(t, idx.QuickOpenPaths("rewritten", 10))

	// Force a distinct mtime so the cache staleness check trips even on
	// filesystems with coarse timestamp resolution.
	future := time.Now().Add(2 * time.Second)
	abs := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(abs, []byte("# A\nrewritten content\n"), 0o644))
	require.NoError(t, os.Chtimes(abs, future, future))

	idx2 := knowledge.New()
	require.NoError(t, idx2.RebuildFromVaultCached(v, store))

	result := idx2.Search(v, "rewritten", knowledge.DefaultSearchOptions())
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "a.md", string(result.Hits[0].Path))
}
