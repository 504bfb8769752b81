package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	titleRegexp      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	frontmatterBlock = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n`)
	wikilinkRegexp   = regexp.MustCompile(`\[\[(.*?)\]\]`)
	hashtagRegexp    = regexp.MustCompile(`#([A-Za-z0-9_-]+)`)
	tokenRegexp      = regexp.MustCompile(`[A-Za-z0-9_-]+`)
)

// NoteMetadata is the metadata derived from a note's content. It is never
// persisted; it is recomputed on every upsert.
type NoteMetadata struct {
	Title       string
	Frontmatter map[string]string
	Links       []string
	Tags        []string
}

// ExtractMetadata derives NoteMetadata from a note's content and file
// stem (used as the title fallback).
func ExtractMetadata(content string, stem string) NoteMetadata {
	return NoteMetadata{
		Title:       extractTitle(content, stem),
		Frontmatter: extractFrontmatter(content),
		Links:       extractLinks(content),
		Tags:        extractTags(content),
	}
}

// extractTitle returns the text of the first line matching "# <text>", or
// stem if no such line exists.
func extractTitle(content string, stem string) string {
	if m := titleRegexp.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return stem
}

// extractFrontmatter parses a leading "---"-delimited YAML block with
// yaml.v3 and flattens scalar values to strings; a list value is flattened
// to a comma-joined string so it still tokenizes and matches as inline
// text. Missing or malformed frontmatter yields an empty map rather than
// an error, since ExtractMetadata has no way to surface one.
func extractFrontmatter(content string) map[string]string {
	matches := frontmatterBlock.FindStringSubmatch(content)
	if len(matches) < 2 {
		return map[string]string{}
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(matches[1]), &raw); err != nil {
		return map[string]string{}
	}

	fm := make(map[string]string, len(raw))
	for k, v := range raw {
		fm[k] = flattenFrontmatterValue(v)
	}
	return fm
}

func flattenFrontmatterValue(v interface{}) string {
	switch val := v.(type) {
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = flattenFrontmatterValue(item)
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// extractLinks returns every "[[...]]" token's inner text, preserving
// order and duplicates.
func extractLinks(content string) []string {
	matches := wikilinkRegexp.FindAllStringSubmatch(content, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, strings.TrimSpace(m[1]))
	}
	return links
}

// extractTags returns every "#<word>" token, deduplicated and sorted.
func extractTags(content string) []string {
	matches := hashtagRegexp.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		seen[m[1]] = struct{}{}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// tokenize returns the set of maximal [A-Za-z0-9_-]+ runs in the
// lowercased source text.
func tokenize(source string) []string {
	return tokenRegexp.FindAllString(strings.ToLower(source), -1)
}

// tokenSet unions tokenize(s) into dst.
func tokenSet(dst map[string]struct{}, s string) {
	for _, tok := range tokenize(s) {
		dst[tok] = struct{}{}
	}
}
