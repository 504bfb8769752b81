// Package markdown implements a block-level parser, summary extractor,
// lint pass, and invalidation-window algebra over note content.
//
// The original implementation is built on pulldown_cmark. No
// Markdown-parsing library appears in any go.mod/go.sum across the
// example corpus, so this package hand-rolls a line-oriented scanner
// sufficient for the required surface (headings, paragraphs, code
// fences, quotes, lists, links, lint diagnostics, invalidation windows) —
// the same style the rest of this codebase uses for markdown-adjacent
// extraction (wikilinks, hashtags, frontmatter) rather than a full
// CommonMark engine.
package markdown

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// BlockKind identifies the kind of a parsed block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockCodeFence
	BlockQuote
	BlockList
)

// Block is a single parsed block with its byte-offset span in the source
// and trimmed text.
type Block struct {
	Kind        BlockKind
	HeadingLevel int
	Start       int
	End         int
	Text        string
}

// Summary is the lightweight extraction over a document.
type Summary struct {
	Headings       []HeadingRef
	Links          []string
	CodeFenceCount int
	BlockCount     int
}

// HeadingRef is one heading's level and text.
type HeadingRef struct {
	Level int
	Text  string
}

// ParseResult is the outcome of Parse.
type ParseResult struct {
	Summary Summary
	Blocks  []Block
}

var linkRegexp = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)

// Parse performs a full parse of text into a block tree and summary.
func Parse(text string) ParseResult {
	return parseInternal(text, 0)
}

// ParseWindow clamps window to the nearest character boundaries (it
// operates on byte offsets over UTF-8 text, so the clamp walks backward/
// forward to avoid splitting a multi-byte rune), parses the slice, and
// rebases every block's offsets onto the original text.
func ParseWindow(text string, start, end int) ParseResult {
	clampedStart := floorBoundary(text, clampInt(start, 0, len(text)))
	clampedEnd := ceilBoundary(text, clampInt(end, 0, len(text)))
	if clampedStart >= clampedEnd {
		return ParseResult{Summary: Summary{}, Blocks: nil}
	}
	return parseInternal(text[clampedStart:clampedEnd], clampedStart)
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

func floorBoundary(text string, i int) int {
	for i > 0 && i < len(text) && isUTF8Continuation(text[i]) {
		i--
	}
	return i
}

func ceilBoundary(text string, i int) int {
	for i < len(text) && isUTF8Continuation(text[i]) {
		i++
	}
	return i
}

func isUTF8Continuation(b byte) bool { return b&0xC0 == 0x80 }

type openBlock struct {
	kind         BlockKind
	headingLevel int
	start        int
	lines        []string
}

// parseInternal walks text line by line, grouping blank-line-separated
// runs into blocks, and rebases every offset by baseOffset.
func parseInternal(text string, baseOffset int) ParseResult {
	var blocks []Block
	var headings []HeadingRef
	var links []string
	codeFences := 0

	var current *openBlock
	offset := 0
	inFence := false

	flush := func(endOffset int) {
		if current == nil {
			return
		}
		joined := strings.TrimSpace(strings.Join(current.lines, " "))
		if joined != "" {
			blocks = append(blocks, Block{
				Kind:         current.kind,
				HeadingLevel: current.headingLevel,
				Start:        baseOffset + current.start,
				End:          baseOffset + endOffset,
				Text:         joined,
			})
			if current.kind == BlockHeading {
				headings = append(headings, HeadingRef{Level: current.headingLevel, Text: joined})
			}
		}
		current = nil
	}

	lines := splitKeepingLength(text)
	for _, ln := range lines {
		lineStart := offset
		line := ln.text
		offset += ln.length

		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				if current != nil {
					current.lines = append(current.lines, line)
				}
				flush(offset)
				inFence = false
			} else {
				flush(lineStart)
				inFence = true
				codeFences++
				current = &openBlock{kind: BlockCodeFence, start: lineStart}
				current.lines = append(current.lines, line)
			}
			continue
		}
		if inFence {
			if current != nil {
				current.lines = append(current.lines, line)
			}
			continue
		}

		for _, m := range linkRegexp.FindAllStringSubmatch(line, -1) {
			links = append(links, m[2])
		}

		if trimmed == "" {
			flush(lineStart)
			continue
		}

		if level := headingLevel(trimmed); level > 0 {
			flush(lineStart)
			current = &openBlock{kind: BlockHeading, headingLevel: level, start: lineStart}
			current.lines = append(current.lines, strings.TrimSpace(trimmed[level+1:]))
			flush(offset)
			continue
		}

		kind := classifyLine(trimmed)
		if current == nil {
			current = &openBlock{kind: kind, start: lineStart}
		} else if current.kind != kind {
			flush(lineStart)
			current = &openBlock{kind: kind, start: lineStart}
		}
		current.lines = append(current.lines, line)
	}
	flush(offset)

	return ParseResult{
		Summary: Summary{
			Headings:       headings,
			Links:          links,
			CodeFenceCount: codeFences,
			BlockCount:     len(blocks),
		},
		Blocks: blocks,
	}
}

func classifyLine(trimmed string) BlockKind {
	switch {
	case strings.HasPrefix(trimmed, ">"):
		return BlockQuote
	case isListLine(trimmed):
		return BlockList
	default:
		return BlockParagraph
	}
}

func isListLine(trimmed string) bool {
	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "+ ") {
		return true
	}
	for i, r := range trimmed {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == ')' {
			return i > 0 && i+1 < len(trimmed) && trimmed[i+1] == ' '
		}
		return false
	}
	return false
}

// headingLevel returns the heading level (1-6) if trimmed is
// "#"*level + " " + text, else 0.
func headingLevel(trimmed string) int {
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0
	}
	if level >= len(trimmed) || trimmed[level] != ' ' {
		return 0
	}
	return level
}

type lineSpan struct {
	text   string
	length int
}

// splitKeepingLength splits text into lines (without the trailing
// newline) while tracking each line's consumed byte length including its
// terminator, so offsets stay aligned with the original source.
func splitKeepingLength(text string) []lineSpan {
	var out []lineSpan
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, lineSpan{text: text[start:i], length: i - start + 1})
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, lineSpan{text: text[start:], length: len(text) - start})
	}
	return out
}

// Severity orders Info < Warning < Error so sorting descending surfaces
// the most severe diagnostics first.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Diagnostic is a single lint finding.
type Diagnostic struct {
	Line     int
	Severity Severity
	Message  string
}

// DiagnosticsProvider lets callers merge extra diagnostics into Lint's
// output.
type DiagnosticsProvider interface {
	Provide(text string) []Diagnostic
}

// Lint emits diagnostics for multiple H1 headings, heading-level jumps
// greater than +1, overlong lines, and an unclosed code fence at EOF.
func Lint(text string) []Diagnostic {
	return LintWithProviders(text, nil)
}

// LintWithProviders runs Lint and merges in any diagnostics contributed
// by providers, then re-sorts the combined set.
func LintWithProviders(text string, providers []DiagnosticsProvider) []Diagnostic {
	var diags []Diagnostic

	firstH1Line := -1
	prevLevel := 0
	fenceOpenLine := -1
	inFence := false
	lineNo := 0

	for _, ln := range splitKeepingLength(text) {
		lineNo++
		trimmed := strings.TrimSpace(ln.text)

		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				inFence = false
				fenceOpenLine = -1
			} else {
				inFence = true
				fenceOpenLine = lineNo
			}
			continue
		}
		if inFence {
			continue
		}

		if level := headingLevel(trimmed); level > 0 {
			if level == 1 {
				if firstH1Line == -1 {
					firstH1Line = lineNo
				} else {
					diags = append(diags, Diagnostic{
						Line:     lineNo,
						Severity: SeverityWarning,
						Message:  fmt.Sprintf("multiple H1 headings (first at line %d)", firstH1Line),
					})
				}
			}
			if prevLevel > 0 && level > prevLevel+1 {
				diags = append(diags, Diagnostic{
					Line:     lineNo,
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("heading level jump from H%d to H%d", prevLevel, level),
				})
			}
			prevLevel = level
		}

		if utf8.RuneCountInString(ln.text) > 200 {
			diags = append(diags, Diagnostic{Line: lineNo, Severity: SeverityInfo, Message: "long line (> 200 chars)"})
		}
	}

	if inFence && fenceOpenLine != -1 {
		diags = append(diags, Diagnostic{Line: fenceOpenLine, Severity: SeverityError, Message: "unclosed code fence"})
	}

	for _, p := range providers {
		diags = append(diags, p.Provide(text)...)
	}

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		if diags[i].Severity != diags[j].Severity {
			return diags[i].Severity > diags[j].Severity
		}
		return diags[i].Message < diags[j].Message
	})

	return diags
}
