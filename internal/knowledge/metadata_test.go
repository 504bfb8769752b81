package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFrontmatter_ParsesYAMLScalarsAndLists(t *testing.T) {
	content := "---\ntitle: Plan\npriority: 3\ntags:\n  - alpha\n  - beta\n---\n# Plan\nbody\n"
	fm := extractFrontmatter(content)
	assert.Equal(t, "Plan", fm["title"])
	assert.Equal(t, "3", fm["priority"])
	assert.Equal(t, "alpha, beta", fm["tags"])
}

func TestExtractFrontmatter_NoBlockReturnsEmpty(t *testing.T) {
	assert.Empty(t, extractFrontmatter("# Just a note\nno frontmatter here\n"))
}

func TestExtractFrontmatter_MalformedYAMLReturnsEmpty(t *testing.T) {
	content := "---\n: : not valid yaml :::\n---\nbody\n"
	assert.Empty(t, extractFrontmatter(content))
}

func TestExtractMetadata_UsesStemTitleFallback(t *testing.T) {
	meta := ExtractMetadata("no heading line here\n", "Stem")
	assert.Equal(t, "Stem", meta.Title)
}
