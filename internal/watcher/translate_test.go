package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_RenameBothClassifiesByExtension(t *testing.T) {
	c, ok := translate(RawEvent{Kind: RawRenameBoth, Path: "a.md", To: "b.md"})
	require.True(t, ok)
	assert.Equal(t, ChangeNoteMoved, c.Kind)
	assert.Equal(t, rp("a.md"), c.From)
	assert.Equal(t, rp("b.md"), c.To)

	c, ok = translate(RawEvent{Kind: RawRenameBoth, Path: "dir1", To: "dir2"})
	require.True(t, ok)
	assert.Equal(t, ChangeFolderMoved, c.Kind)
}

func TestTranslate_RenameFromOnlyIsRemoved(t *testing.T) {
	c, ok := translate(RawEvent{Kind: RawRenameFrom, Path: "a.md"})
	require.True(t, ok)
	assert.Equal(t, ChangeNoteRemoved, c.Kind)
}

func TestTranslate_RenameToOnlyIsChanged(t *testing.T) {
	c, ok := translate(RawEvent{Kind: RawRenameTo, Path: "a.md"})
	require.True(t, ok)
	assert.Equal(t, ChangeNoteChanged, c.Kind)
}

func TestTranslate_IgnoresXNoteDir(t *testing.T) {
	_, ok := translate(RawEvent{Kind: RawWrite, Path: ".xnote/meta/ai_tool_audit.jsonl"})
	assert.False(t, ok)
}

func TestTranslate_IgnoresNonMarkdownFile(t *testing.T) {
	_, ok := translate(RawEvent{Kind: RawWrite, Path: "notes/image.png"})
	assert.False(t, ok)
}

func TestTranslate_ErrBecomesRescan(t *testing.T) {
	c, ok := translate(RawEvent{Kind: RawErr})
	require.True(t, ok)
	assert.Equal(t, ChangeRescanRequired, c.Kind)
}
