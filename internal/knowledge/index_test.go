package knowledge_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnote-dev/xnote/internal/knowledge"
	"github.com/xnote-dev/xnote/internal/paths"
	"github.com/xnote-dev/xnote/internal/vault"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestIndex_QuickOpenRanking(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "notes/Plan.md", "# Generic title\nNo exact title match\n")
	writeNote(t, root, "notes/sub/ProjectPlanning.md", "# Planning board\nContains query too\n")

	v, err := vault.Open(root)
	require.NoError(t, err)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVault(v))

	got := idx.QuickOpenPaths("plan", 10)
	require.NotEmpty(t, got)
	assert.Equal(t, paths.RelPath("notes/Plan.md"), got[0])
}

func TestIndex_QuickOpen_MaxZero(t *testing.T) {
	idx := knowledge.New()
	assert.Empty(t, idx.QuickOpenPaths("anything", 0))
}

func TestIndex_QuickOpen_EmptyQueryFallsBackToAllPathsSorted(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "zebra.md", "# Zebra\nbody\n")
	writeNote(t, root, "apple.md", "# Apple\nbody\n")
	writeNote(t, root, "mango.md", "# Mango\nbody\n")

	v, err := vault.Open(root)
	require.NoError(t, err)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVault(v))

	got := idx.QuickOpenPaths("   ", 2)
	assert.Equal(t, []paths.RelPath{"apple.md", "mango.md"}, got)
	assert.Equal(t, idx.AllPathsSorted()[:2], got)
}

func TestIndex_Search_TwoWordQueryIntersectsRatherThanUnions(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "both.md", "# Both\nplan notes live here\n")
	writeNote(t, root, "plan-only.md", "# Plan only\nplan but nothing else relevant\n")
	writeNote(t, root, "notes-only.md", "# Notes only\nnotes but nothing else relevant\n")

	v, err := vault.Open(root)
	require.NoError(t, err)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVault(v))

	res := idx.Search(v, "plan notes", knowledge.DefaultSearchOptions())
	require.Len(t, res.Hits, 1)
	assert.Equal(t, paths.RelPath("both.md"), res.Hits[0].Path)
}

func TestIndex_Search_EmptyQuery(t *testing.T) {
	idx := knowledge.New()
	root := t.TempDir()
	v, err := vault.Open(root)
	require.NoError(t, err)

	res := idx.Search(v, "", knowledge.DefaultSearchOptions())
	assert.Empty(t, res.Hits)
	assert.Equal(t, int64(0), res.ElapsedMs)
}

func TestIndex_UpsertRemove_Invariants(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "# A\nhello world #tag1 [[b]]\n")
	writeNote(t, root, "b.md", "# B\nanother note\n")

	v, err := vault.Open(root)
	require.NoError(t, err)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVault(v))
	assert.Equal(t, 2, idx.NoteCount())

	idx.RemoveNote(paths.RelPath("a.md"))
	assert.Equal(t, 1, idx.NoteCount())

	_, ok := idx.NoteSummary(paths.RelPath("a.md"))
	assert.False(t, ok)
}

func TestIndex_BacklinksFor(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "target.md", "# Target Note\nbody\n")
	writeNote(t, root, "referrer.md", "# Referrer\nSee [[Target Note]] for details\n")

	v, err := vault.Open(root)
	require.NoError(t, err)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVault(v))

	backlinks := idx.BacklinksFor(paths.RelPath("target.md"), 10)
	require.Len(t, backlinks, 1)
	assert.Equal(t, paths.RelPath("referrer.md"), backlinks[0].Path)
}

func TestIndex_ResolveLinkTarget(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "notes/demo.md", "# Demo\nbody\n")

	v, err := vault.Open(root)
	require.NoError(t, err)

	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVault(v))

	rel, ok := idx.ResolveLinkTarget("demo")
	require.True(t, ok)
	assert.Equal(t, paths.RelPath("notes/demo.md"), rel)

	_, ok = idx.ResolveLinkTarget("")
	assert.False(t, ok)
}
