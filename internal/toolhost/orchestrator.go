package toolhost

import (
	"fmt"
	"time"

	"github.com/xnote-dev/xnote/internal/knowledge"
	"github.com/xnote-dev/xnote/internal/vault"
)

// RewriteRequest is the instruction an AI provider rewrites against.
// Only the fields the orchestrator needs to thread through rounds are
// modeled here; a concrete provider may carry richer context alongside.
type RewriteRequest struct {
	Instruction   string
	SelectionText string
}

// Provider performs one model call, returning the raw response text
// (which may itself contain a tool-request block).
type Provider interface {
	RewriteSelection(request RewriteRequest) (string, error)
}

// LoopStopReason explains why the orchestrator loop ended.
type LoopStopReason string

const (
	StopFinalResponse    LoopStopReason = "final_response"
	StopMaxRoundsReached LoopStopReason = "max_rounds_reached"
)

// OrchestratorConfig parameterizes one orchestration run.
type OrchestratorConfig struct {
	MaxRounds                 int
	RequestID                 string
	Scenario                  string
	FinalResponseInstruction  string
}

// DefaultOrchestratorConfig mirrors the provider defaults: two rounds,
// "rewrite" scenario tag, and a standard closing instruction.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxRounds:                2,
		Scenario:                 "rewrite",
		FinalResponseInstruction: "Now return the final rewritten selection text only.",
	}
}

// OrchestratorResult is the outcome of ExecuteToolOrchestrator.
type OrchestratorResult struct {
	FinalResponse  string
	ToolCalls      []ToolRequest
	RoundsExecuted int
	StopReason     LoopStopReason
}

func clampRounds(n int) int { return clampInt(n, 1, 6) }

// ExecuteToolOrchestrator drives the bounded AI↔tool round loop: on each
// round it asks provider to rewrite, checks the response for an
// embedded tool-request block, executes it against vault/index if
// present, appends an audit-log entry, and folds the tool's payload
// back into the instruction for the next round. It stops early the
// first round the model responds without a tool call.
func ExecuteToolOrchestrator(
	request RewriteRequest,
	provider Provider,
	v *vault.Vault,
	index *knowledge.Index,
	policy Policy,
	cfg OrchestratorConfig,
) (OrchestratorResult, error) {
	current := request
	var toolCalls []ToolRequest
	rounds := clampRounds(cfg.MaxRounds)
	registry := WithXNoteDefaults()

	for round := 0; round < rounds; round++ {
		modelStart := time.Now()
		responseText, err := provider.RewriteSelection(current)
		if err != nil {
			return OrchestratorResult{}, err
		}
		modelLatencyMs := time.Since(modelStart).Milliseconds()

		toolRequest, err := ParseAndValidateFirst(responseText, registry, policy)
		if err != nil {
			return OrchestratorResult{}, err
		}
		if toolRequest == nil {
			return OrchestratorResult{
				FinalResponse:  responseText,
				ToolCalls:      toolCalls,
				RoundsExecuted: round + 1,
				StopReason:     StopFinalResponse,
			}, nil
		}

		toolStart := time.Now()
		execution, err := Execute(*toolRequest, v, index, registry, policy)
		toolLatencyMs := time.Since(toolStart).Milliseconds()
		if err != nil {
			return OrchestratorResult{}, err
		}

		if v != nil {
			modelLatency := modelLatencyMs
			toolLatency := toolLatencyMs
			_ = AppendAuditLog(v, AuditEntry{
				TimestampEpochMs: time.Now().UnixMilli(),
				Event:            "tool_execution",
				Round:            round,
				ToolName:         toolRequest.ToolName,
				Status:           "ok",
				Detail:           summarizeToolDetail(execution.PayloadMarkdown, 320),
				RequestID:        cfg.RequestID,
				Scenario:         cfg.Scenario,
				ModelLatencyMs:   &modelLatency,
				ToolLatencyMs:    &toolLatency,
				ArgsSummary:      summarizeToolArgs(toolRequest.Args, 220),
				OutcomeCategory:  "tool_executed",
			})
		}

		toolCalls = append(toolCalls, *toolRequest)
		current.Instruction = buildToolFollowUpInstruction(request.Instruction, toolRequest.ToolName, execution.PayloadMarkdown, cfg.FinalResponseInstruction)
	}

	fallback, err := provider.RewriteSelection(current)
	if err != nil {
		return OrchestratorResult{}, err
	}
	return OrchestratorResult{
		FinalResponse:  fallback,
		ToolCalls:      toolCalls,
		RoundsExecuted: rounds,
		StopReason:     StopMaxRoundsReached,
	}, nil
}

func buildToolFollowUpInstruction(original, toolName, payload, finalInstruction string) string {
	return fmt.Sprintf("%s\n\n[Tool %s result]\n%s\n\n%s", original, toolName, payload, finalInstruction)
}
