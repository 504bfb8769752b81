package toolhost

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xnote-dev/xnote/internal/knowledge"
	"github.com/xnote-dev/xnote/internal/vault"
)

// ExecutionResult is one successful tool call's rendered payload.
type ExecutionResult struct {
	ToolName        string
	PayloadMarkdown string
}

func argRequired(request ToolRequest, key string) (string, error) {
	canonical := canonicalToolKey(key)
	value, ok := request.Args[canonical]
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("missing required argument `%s`", key)
	}
	return value, nil
}

func argOptionalInt(request ToolRequest, key string) (int, bool) {
	canonical := canonicalToolKey(key)
	value, ok := request.Args[canonical]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return n, true
}

func sanitizeFenceBody(content string) string {
	return strings.ReplaceAll(content, "```", "` ` `")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Execute runs a validated ToolRequest against the live vault/index,
// returning a markdown payload to feed back to the AI provider.
func Execute(request ToolRequest, v *vault.Vault, index *knowledge.Index, registry *Registry, policy Policy) (ExecutionResult, error) {
	if err := registry.ValidateRequest(request, policy); err != nil {
		return ExecutionResult{}, err
	}

	toolName := canonicalToolName(request.ToolName)
	var payload string

	switch toolName {
	case "xnote.vault.read_note":
		notePath, err := argRequired(request, "note_path")
		if err != nil {
			return ExecutionResult{}, err
		}
		content, err := v.ReadNote(notePath)
		if err != nil {
			return ExecutionResult{}, err
		}
		payload = fmt.Sprintf("## xnote.vault.read_note\n\n- `note_path`: `%s`\n\n```markdown\n%s\n```",
			notePath, sanitizeFenceBody(content))

	case "xnote.knowledge.search":
		if index == nil {
			return ExecutionResult{}, fmt.Errorf("tool `xnote.knowledge.search` requires a ready knowledge index")
		}
		query, err := argRequired(request, "query")
		if err != nil {
			return ExecutionResult{}, err
		}
		limit := 20
		if n, ok := argOptionalInt(request, "limit"); ok {
			limit = n
		}
		limit = clampInt(limit, 1, 200)

		opts := knowledge.DefaultSearchOptions()
		opts.MaxFilesWithMatches = limit
		outcome := index.Search(v, query, opts)

		var b strings.Builder
		fmt.Fprintf(&b, "## xnote.knowledge.search\n\n- `query`: `%s`\n- `elapsed_ms`: %d\n- `hits`: %d\n",
			query, outcome.ElapsedMs, len(outcome.Hits))

		hits := outcome.Hits
		if len(hits) > limit {
			hits = hits[:limit]
		}
		for _, hit := range hits {
			fmt.Fprintf(&b, "\n### %s\n", hit.Path)
			fmt.Fprintf(&b, "- `match_count`: %d\n", hit.MatchCount)
			for _, preview := range hit.LinePreviews {
				fmt.Fprintf(&b, "- %s\n", strings.ReplaceAll(preview, "\n", " "))
			}
		}
		payload = b.String()

	case "xnote.vault.write_note":
		notePath, err := argRequired(request, "note_path")
		if err != nil {
			return ExecutionResult{}, err
		}
		content, err := argRequired(request, "content")
		if err != nil {
			return ExecutionResult{}, err
		}
		if err := v.WriteNote(notePath, content); err != nil {
			return ExecutionResult{}, err
		}
		payload = fmt.Sprintf("## xnote.vault.write_note\n\n- `note_path`: `%s`\n- `result`: `ok`", notePath)

	case "xnote.vault.apply_patch":
		return ExecutionResult{}, fmt.Errorf("tool `xnote.vault.apply_patch` is reserved for future patch pipeline")

	default:
		return ExecutionResult{}, fmt.Errorf("tool `%s` is not implemented", request.ToolName)
	}

	return ExecutionResult{ToolName: request.ToolName, PayloadMarkdown: payload}, nil
}
