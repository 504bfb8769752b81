package toolhost

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xnote-dev/xnote/internal/vault"
)

// AuditEntry is one line of the AI tool-call audit log.
type AuditEntry struct {
	TimestampEpochMs int64  `json:"timestamp_epoch_ms"`
	Event            string `json:"event"`
	Round            int    `json:"round"`
	ToolName         string `json:"tool_name"`
	Status           string `json:"status"`
	Detail           string `json:"detail"`
	RequestID        string `json:"request_id,omitempty"`
	Scenario         string `json:"scenario,omitempty"`
	ModelLatencyMs   *int64 `json:"model_latency_ms,omitempty"`
	ToolLatencyMs    *int64 `json:"tool_latency_ms,omitempty"`
	ArgsSummary      string `json:"args_summary,omitempty"`
	OutcomeCategory  string `json:"outcome_category,omitempty"`
}

// AuditLogPath returns the absolute path of the vault's audit log,
// `<root>/.xnote/meta/ai_tool_audit.jsonl`.
func AuditLogPath(v *vault.Vault) string {
	return filepath.Join(v.Root(), ".xnote", "meta", "ai_tool_audit.jsonl")
}

// AppendAuditLog appends entry as one JSON line to the audit log,
// creating parent directories as needed.
func AppendAuditLog(v *vault.Vault, entry AuditEntry) error {
	path := AuditLogPath(v)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	if _, err := file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("append audit payload: %w", err)
	}
	return nil
}

func summarizeToolDetail(detail string, maxChars int) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(detail), "\r", "")
	if len(normalized) > maxChars {
		return normalized[:maxChars] + "..."
	}
	return normalized
}

func summarizeToolArgs(args map[string]string, maxChars int) string {
	if len(args) == 0 {
		return "{}"
	}
	pairs := make([]string, 0, len(args))
	for _, key := range SortedKeys(args) {
		snippet := strings.ReplaceAll(summarizeToolDetail(args[key], 64), "\n", " ")
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, snippet))
	}
	sort.Strings(pairs)
	return summarizeToolDetail(strings.Join(pairs, ", "), maxChars)
}
