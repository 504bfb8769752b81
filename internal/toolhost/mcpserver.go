package toolhost

import (
	"context"
	"fmt"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xnote-dev/xnote/internal/knowledge"
	"github.com/xnote-dev/xnote/internal/vault"
)

// NewMCPServer builds an MCP server exposing every tool in registry as a
// real MCP tool, backed by the same Execute path the VCP marker grammar
// drives. This gives the tool Registry two transports: the bracket-marker
// grammar parsed out of AI responses, and MCP's JSON-schema tool calling.
func NewMCPServer(registry *Registry, policy Policy, v *vault.Vault, index *knowledge.Index) *server.MCPServer {
	s := server.NewMCPServer(
		"xnote",
		"v1",
		server.WithToolCapabilities(false),
	)

	for _, spec := range registry.SpecsSorted() {
		s.AddTool(mcpToolDefinition(spec), mcpToolHandler(spec, registry, policy, v, index))
	}

	return s
}

func mcpToolDefinition(spec ToolSpec) gomcp.Tool {
	opts := []gomcp.ToolOption{gomcp.WithDescription(spec.Description)}

	required := make(map[string]bool, len(spec.RequiredArgs))
	for _, arg := range spec.RequiredArgs {
		required[arg] = true
		opts = append(opts, gomcp.WithString(arg, gomcp.Required(), gomcp.Description(fmt.Sprintf("%s (required)", arg))))
	}
	if spec.Name == "xnote.knowledge.search" && !required["limit"] {
		opts = append(opts, gomcp.WithString("limit", gomcp.Description("maximum matching notes to return (default 20)")))
	}

	return gomcp.NewTool(spec.Name, opts...)
}

func mcpToolHandler(spec ToolSpec, registry *Registry, policy Policy, v *vault.Vault, index *knowledge.Index) func(context.Context, gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	return func(ctx context.Context, call gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		args := make(map[string]string)
		for key, raw := range call.GetArguments() {
			if s, ok := raw.(string); ok {
				args[key] = s
			} else {
				args[key] = fmt.Sprintf("%v", raw)
			}
		}

		request := ToolRequest{ToolName: spec.Name, Args: args}
		result, err := Execute(request, v, index, registry, policy)
		if err != nil {
			return gomcp.NewToolResultError(err.Error()), nil
		}
		return gomcp.NewToolResultText(result.PayloadMarkdown), nil
	}
}
