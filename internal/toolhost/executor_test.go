package toolhost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnote-dev/xnote/internal/knowledge"
	"github.com/xnote-dev/xnote/internal/vault"
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Plan.md"), []byte("# Plan\ncontent about rockets"), 0o644))
	v, err := vault.Open(root)
	require.NoError(t, err)
	return v
}

func TestExecute_ReadNote(t *testing.T) {
	v := newTestVault(t)
	registry := WithXNoteDefaults()

	result, err := Execute(ToolRequest{ToolName: "xnote.vault.read_note", Args: map[string]string{"note_path": "Plan.md"}}, v, nil, registry, Policy{})
	require.NoError(t, err)
	assert.Contains(t, result.PayloadMarkdown, "rockets")
}

func TestExecute_KnowledgeSearchRequiresIndex(t *testing.T) {
	v := newTestVault(t)
	registry := WithXNoteDefaults()

	_, err := Execute(ToolRequest{ToolName: "xnote.knowledge.search", Args: map[string]string{"query": "rockets"}}, v, nil, registry, Policy{})
	assert.Error(t, err)
}

func TestExecute_KnowledgeSearchWithIndex(t *testing.T) {
	v := newTestVault(t)
	idx := knowledge.New()
	require.NoError(t, idx.RebuildFromVault(v))
	registry := WithXNoteDefaults()

	result, err := Execute(ToolRequest{ToolName: "xnote.knowledge.search", Args: map[string]string{"query": "rockets"}}, v, idx, registry, Policy{})
	require.NoError(t, err)
	assert.Contains(t, result.PayloadMarkdown, "Plan.md")
}

func TestExecute_WriteNoteRequiresPolicy(t *testing.T) {
	v := newTestVault(t)
	registry := WithXNoteDefaults()
	req := ToolRequest{ToolName: "xnote.vault.write_note", Args: map[string]string{"note_path": "New.md", "content": "hello"}}

	_, err := Execute(req, v, nil, registry, Policy{})
	assert.Error(t, err)

	result, err := Execute(req, v, nil, registry, Policy{AllowWrite: true})
	require.NoError(t, err)
	assert.Contains(t, result.PayloadMarkdown, "ok")

	content, readErr := v.ReadNote("New.md")
	require.NoError(t, readErr)
	assert.Equal(t, "hello", content)
}

func TestExecute_ApplyPatchAlwaysErrors(t *testing.T) {
	v := newTestVault(t)
	registry := WithXNoteDefaults()
	req := ToolRequest{ToolName: "xnote.vault.apply_patch", Args: map[string]string{"path": "a.md", "patch": "x"}}

	_, err := Execute(req, v, nil, registry, Policy{AllowWrite: true, AllowDestructive: true})
	assert.Error(t, err)
}
