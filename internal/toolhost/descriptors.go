package toolhost

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VcpToolDescription documents one tool in the VCP marker-grammar dialect.
type VcpToolDescription struct {
	ToolName            string `json:"tool_name"`
	InvocationSnippet   string `json:"invocation_snippet"`
	MarkdownDescription string `json:"markdown_description"`
}

// McpToolDescription documents one tool as an MCP-style JSON-schema tool.
type McpToolDescription struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	InputSchemaJSON  string `json:"input_schema_json"`
}

// DescriptorBundle carries both dialects' tool descriptions side by
// side, so a caller can hand the right shape to whichever surface (VCP
// marker-grammar provider, or an MCP-speaking client) needs it.
type DescriptorBundle struct {
	SchemaVersion      string               `json:"schema_version"`
	GeneratedAtEpochMs int64                `json:"generated_at_epoch_ms"`
	RegistrySource     string               `json:"registry_source"`
	VCP                []VcpToolDescription `json:"vcp"`
	MCP                []McpToolDescription `json:"mcp"`
}

// GenerateDescriptorBundle builds both descriptor dialects from registry.
func GenerateDescriptorBundle(registry *Registry, generatedAtEpochMs int64) DescriptorBundle {
	return DescriptorBundle{
		SchemaVersion:      "xnote.ai.tools.v1",
		GeneratedAtEpochMs: generatedAtEpochMs,
		RegistrySource:     "toolhost.WithXNoteDefaults",
		VCP:                GenerateVcpToolDescriptions(registry),
		MCP:                GenerateMcpToolDescriptions(registry),
	}
}

// GenerateVcpToolDescriptions renders each spec as a marker-grammar
// invocation snippet plus a one-line markdown summary.
func GenerateVcpToolDescriptions(registry *Registry) []VcpToolDescription {
	specs := registry.SpecsSorted()
	out := make([]VcpToolDescription, 0, len(specs))

	for _, spec := range specs {
		argLines := make([]string, 0, len(spec.RequiredArgs))
		for _, arg := range spec.RequiredArgs {
			argLines = append(argLines, fmt.Sprintf("%s:「始」<%s>「末」", arg, arg))
		}

		var invocation strings.Builder
		invocation.WriteString(ToolRequestStart + "\n")
		invocation.WriteString(fmt.Sprintf("tool_name:「始」%s「末」", spec.Name))
		if len(argLines) > 0 {
			invocation.WriteString(",\n")
			invocation.WriteString(strings.Join(argLines, ",\n"))
		}
		invocation.WriteString("\n" + ToolRequestEnd)

		markdown := fmt.Sprintf("- %s (%s)\n  - %s", spec.Name, spec.Risk, spec.Description)

		out = append(out, VcpToolDescription{
			ToolName:            spec.Name,
			InvocationSnippet:   invocation.String(),
			MarkdownDescription: markdown,
		})
	}
	return out
}

// GenerateMcpToolDescriptions renders each spec as an MCP-style tool
// with a JSON-schema input description.
func GenerateMcpToolDescriptions(registry *Registry) []McpToolDescription {
	specs := registry.SpecsSorted()
	out := make([]McpToolDescription, 0, len(specs))

	for _, spec := range specs {
		properties := make(map[string]any, len(spec.RequiredArgs))
		required := make([]string, 0, len(spec.RequiredArgs))
		for _, arg := range spec.RequiredArgs {
			required = append(required, arg)
			properties[arg] = map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("Argument `%s` for tool `%s`", arg, spec.Name),
			}
		}

		schema := map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		}
		schemaJSON, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			schemaJSON = []byte("{}")
		}

		out = append(out, McpToolDescription{
			Name:            spec.Name,
			Description:     fmt.Sprintf("%s (risk: %s)", spec.Description, spec.Risk),
			InputSchemaJSON: string(schemaJSON),
		})
	}
	return out
}
