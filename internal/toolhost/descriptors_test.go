package toolhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDescriptorBundle_CoversEveryRegisteredTool(t *testing.T) {
	registry := WithXNoteDefaults()
	bundle := GenerateDescriptorBundle(registry, 1700000000000)

	specs := registry.SpecsSorted()
	require.Len(t, bundle.VCP, len(specs))
	require.Len(t, bundle.MCP, len(specs))

	for i, spec := range specs {
		assert.Equal(t, spec.Name, bundle.VCP[i].ToolName)
		assert.Contains(t, bundle.VCP[i].InvocationSnippet, ToolRequestStart)
		assert.Contains(t, bundle.VCP[i].InvocationSnippet, ToolRequestEnd)
		assert.Equal(t, spec.Name, bundle.MCP[i].Name)
		assert.Contains(t, bundle.MCP[i].InputSchemaJSON, "properties")
	}
}

func TestGenerateVcpToolDescriptions_RoundTripsThroughParser(t *testing.T) {
	registry := WithXNoteDefaults()
	descriptions := GenerateVcpToolDescriptions(registry)

	for _, d := range descriptions {
		if len(d.InvocationSnippet) == 0 {
			continue
		}
		reqs, err := ParseAll(d.InvocationSnippet)
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Equal(t, d.ToolName, reqs[0].ToolName)
	}
}
