// Package toolhost implements the AI tool-call marker grammar, tool
// registry, and bounded orchestration loop used to let an AI provider
// call back into xnote (reading notes, searching the knowledge index,
// writing notes) mid-rewrite. Grounded on ai.rs.
package toolhost

import (
	"fmt"
	"sort"
	"strings"
)

// ToolRequestStart/End delimit one tool-call block in a model response.
const (
	ToolRequestStart = "<<<[TOOL_REQUEST]>>>"
	ToolRequestEnd   = "<<<[END_TOOL_REQUEST]>>>"
)

var valueWrappers = [][2]string{
	{"「始」", "「末」"},
	{"『始』", "『末』"},
	{"【始】", "【末】"},
}

// ToolRequest is one parsed tool-call block.
type ToolRequest struct {
	ToolName    string
	Args        map[string]string
	NoReply     bool
	MarkHistory bool
}

// ParseAll extracts every well-formed tool-request block from text, in
// order of appearance. An unterminated block (missing END marker) is an
// error.
func ParseAll(text string) ([]ToolRequest, error) {
	var out []ToolRequest
	cursor := 0

	for {
		relStart := strings.Index(text[cursor:], ToolRequestStart)
		if relStart < 0 {
			break
		}
		start := cursor + relStart + len(ToolRequestStart)
		remain := text[start:]

		relEnd := strings.Index(remain, ToolRequestEnd)
		if relEnd < 0 {
			return nil, fmt.Errorf("vcp tool block is missing END marker")
		}

		end := start + relEnd
		block := text[start:end]
		req, err := parseToolBlock(block)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
		cursor = end + len(ToolRequestEnd)
	}

	return out, nil
}

// ParseFirst returns the first tool-request block in text, if any.
func ParseFirst(text string) (*ToolRequest, error) {
	all, err := ParseAll(text)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return &all[0], nil
}

func canonicalToolName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func canonicalToolKey(raw string) string {
	k := strings.ToLower(strings.TrimSpace(raw))
	k = strings.ReplaceAll(k, " ", "_")
	k = strings.ReplaceAll(k, "-", "_")
	return k
}

func parseToolBlock(block string) (ToolRequest, error) {
	pairs, err := parseKeyValues(block)
	if err != nil {
		return ToolRequest{}, err
	}

	var toolName string
	args := make(map[string]string)
	noReply := false
	markHistory := false

	for _, kv := range pairs {
		key := canonicalToolKey(kv[0])
		switch key {
		case "tool_name":
			toolName = strings.TrimSpace(kv[1])
		case "archery":
			noReply = strings.EqualFold(strings.TrimSpace(kv[1]), "no_reply")
		case "ink":
			markHistory = strings.EqualFold(strings.TrimSpace(kv[1]), "mark_history")
		default:
			args[key] = kv[1]
		}
	}

	if toolName == "" {
		return ToolRequest{}, fmt.Errorf("vcp tool block missing tool_name")
	}

	return ToolRequest{ToolName: toolName, Args: args, NoReply: noReply, MarkHistory: markHistory}, nil
}

// parseKeyValues walks a tool-request block's body, extracting
// "key: value" pairs separated by commas/newlines, where value may be
// wrapped in one of the three equivalent bracket-pair markers.
func parseKeyValues(block string) ([][2]string, error) {
	var out [][2]string
	cursor := 0

	for cursor < len(block) {
		cursor = skipBlockWhitespaceAndCommas(block, cursor)
		if cursor >= len(block) {
			break
		}

		remain := block[cursor:]
		colonRel := strings.IndexByte(remain, ':')
		if colonRel < 0 {
			break
		}

		keyEnd := cursor + colonRel
		key := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(block[cursor:keyEnd]), ","))
		cursor = keyEnd + 1
		cursor = skipASCIIWhitespace(block, cursor)

		value, next, err := parseValue(block, cursor)
		if err != nil {
			return nil, err
		}
		if key != "" {
			out = append(out, [2]string{key, value})
		}
		cursor = next
	}

	return out, nil
}

func parseValue(block string, cursor int) (string, int, error) {
	for _, wrap := range valueWrappers {
		start, end := wrap[0], wrap[1]
		if strings.HasPrefix(block[cursor:], start) {
			valueStart := cursor + len(start)
			endRel := strings.Index(block[valueStart:], end)
			if endRel < 0 {
				return "", 0, fmt.Errorf("vcp value started with %q but no closing %q", start, end)
			}
			valueEnd := valueStart + endRel
			value := strings.TrimSpace(block[valueStart:valueEnd])
			next := skipBlockWhitespaceAndCommas(block, valueEnd+len(end))
			return value, next, nil
		}
	}

	endCursor := cursor
	for endCursor < len(block) {
		ch := block[endCursor]
		if ch == '\n' || ch == ',' {
			break
		}
		endCursor++
	}

	value := strings.TrimSpace(block[cursor:endCursor])
	next := skipBlockWhitespaceAndCommas(block, endCursor)
	return value, next, nil
}

func skipASCIIWhitespace(block string, cursor int) int {
	for cursor < len(block) {
		ch := block[cursor]
		if ch != ' ' && ch != '\t' && ch != '\r' && ch != '\n' {
			break
		}
		cursor++
	}
	return cursor
}

func skipBlockWhitespaceAndCommas(block string, cursor int) int {
	for cursor < len(block) {
		ch := block[cursor]
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == ',' {
			cursor++
			continue
		}
		break
	}
	return cursor
}

// SortedKeys returns args' keys sorted, a small helper kept alongside
// the grammar for descriptor generation and audit summaries.
func SortedKeys(args map[string]string) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
