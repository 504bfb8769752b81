package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnote-dev/xnote/internal/editor"
)

func TestBuffer_UndoRedoScenario(t *testing.T) {
	buf := editor.New("hello")

	_, err := buf.Apply(editor.Replace(0, 5, "world"))
	require.NoError(t, err)
	assert.Equal(t, "world", buf.String())
	assert.Equal(t, uint64(1), buf.Version())

	_, ok := buf.Undo()
	require.True(t, ok)
	assert.Equal(t, "hello", buf.String())
	assert.Equal(t, uint64(2), buf.Version())

	_, ok = buf.Redo()
	require.True(t, ok)
	assert.Equal(t, "world", buf.String())
	assert.Equal(t, uint64(3), buf.Version())
}

func TestBuffer_InsertDeleteSequence(t *testing.T) {
	buf := editor.New("")

	_, err := buf.Apply(editor.Insert(0, "hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", buf.String())

	_, err = buf.Apply(editor.Delete(0, 1))
	require.NoError(t, err)
	assert.Equal(t, "ello", buf.String())

	_, err = buf.Apply(editor.Replace(0, 4, "world"))
	require.NoError(t, err)
	assert.Equal(t, "world", buf.String())
	assert.Equal(t, uint64(3), buf.Version())
}

func TestBuffer_UndoRedo_ForAllRestoresContent(t *testing.T) {
	buf := editor.New("abc")
	txs := []editor.EditTransaction{
		editor.Insert(3, "def"),
		editor.Delete(0, 1),
		editor.Replace(0, 2, "XY"),
	}
	for _, tx := range txs {
		_, err := buf.Apply(tx)
		require.NoError(t, err)
	}
	final := buf.String()

	for range txs {
		_, ok := buf.Undo()
		require.True(t, ok)
	}
	assert.Equal(t, "abc", buf.String())

	for range txs {
		_, ok := buf.Redo()
		require.True(t, ok)
	}
	assert.Equal(t, final, buf.String())
}

func TestBuffer_RejectsInvalidUTF8Boundary(t *testing.T) {
	buf := editor.New("你好") // "你好", each rune 3 bytes
	_, err := buf.Apply(editor.Delete(1, 2))
	assert.ErrorIs(t, err, editor.ErrInvalidUTF8Boundary)
}

func TestBuffer_RejectsOutOfBounds(t *testing.T) {
	buf := editor.New("abc")
	_, err := buf.Apply(editor.Delete(0, 10))
	assert.ErrorIs(t, err, editor.ErrOutOfBounds)
}

func TestBuffer_ReplaceAllClearsHistory(t *testing.T) {
	buf := editor.New("abc")
	_, err := buf.Apply(editor.Insert(3, "d"))
	require.NoError(t, err)

	buf.ReplaceAll("xyz")
	assert.Equal(t, "xyz", buf.String())
	assert.False(t, buf.CanUndo())
	assert.False(t, buf.CanRedo())
}

func TestBuffer_Stats(t *testing.T) {
	buf := editor.New("hello world\nsecond line")
	stats := buf.Stats()
	assert.Equal(t, 2, stats.Lines)
	assert.Equal(t, 4, stats.Words)
}
