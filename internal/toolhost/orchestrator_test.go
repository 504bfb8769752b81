package toolhost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) RewriteSelection(request RewriteRequest) (string, error) {
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	return p.responses[idx], nil
}

func TestExecuteToolOrchestrator_StopsOnFinalResponseWithoutToolCall(t *testing.T) {
	v := newTestVault(t)
	provider := &scriptedProvider{responses: []string{"just the rewritten text, no tool call"}}

	result, err := ExecuteToolOrchestrator(RewriteRequest{Instruction: "rewrite this"}, provider, v, nil, Policy{}, DefaultOrchestratorConfig())
	require.NoError(t, err)
	assert.Equal(t, StopFinalResponse, result.StopReason)
	assert.Equal(t, 1, result.RoundsExecuted)
	assert.Empty(t, result.ToolCalls)
}

func TestExecuteToolOrchestrator_ExecutesToolThenReturnsFinalResponse(t *testing.T) {
	v := newTestVault(t)
	toolCall := "<<<[TOOL_REQUEST]>>>\ntool_name:xnote.vault.read_note,\nnote_path:Plan.md\n<<<[END_TOOL_REQUEST]>>>"
	provider := &scriptedProvider{responses: []string{toolCall, "final rewritten text"}}

	result, err := ExecuteToolOrchestrator(RewriteRequest{Instruction: "rewrite this"}, provider, v, nil, Policy{}, DefaultOrchestratorConfig())
	require.NoError(t, err)
	assert.Equal(t, "final rewritten text", result.FinalResponse)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "xnote.vault.read_note", result.ToolCalls[0].ToolName)

	auditBytes, readErr := os.ReadFile(filepath.Join(v.Root(), ".xnote", "meta", "ai_tool_audit.jsonl"))
	require.NoError(t, readErr)
	assert.Contains(t, string(auditBytes), "xnote.vault.read_note")
}

func TestExecuteToolOrchestrator_MaxRoundsReachedFallsBack(t *testing.T) {
	v := newTestVault(t)
	toolCall := "<<<[TOOL_REQUEST]>>>\ntool_name:xnote.vault.read_note,\nnote_path:Plan.md\n<<<[END_TOOL_REQUEST]>>>"
	provider := &scriptedProvider{responses: []string{toolCall, toolCall, "fallback text"}}

	cfg := DefaultOrchestratorConfig()
	cfg.MaxRounds = 2

	result, err := ExecuteToolOrchestrator(RewriteRequest{Instruction: "rewrite this"}, provider, v, nil, Policy{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, StopMaxRoundsReached, result.StopReason)
	assert.Equal(t, 2, result.RoundsExecuted)
	assert.Equal(t, "fallback text", result.FinalResponse)
	assert.Len(t, result.ToolCalls, 2)
}

func TestExecuteToolOrchestrator_InvalidToolCallErrors(t *testing.T) {
	v := newTestVault(t)
	toolCall := "<<<[TOOL_REQUEST]>>>\ntool_name:xnote.vault.write_note,\nnote_path:a.md,\ncontent:hi\n<<<[END_TOOL_REQUEST]>>>"
	provider := &scriptedProvider{responses: []string{toolCall}}

	_, err := ExecuteToolOrchestrator(RewriteRequest{Instruction: "rewrite this"}, provider, v, nil, Policy{}, DefaultOrchestratorConfig())
	assert.Error(t, err)
}
