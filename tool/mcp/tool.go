package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-mcp-adapter/tool"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// mcpTool exposes a remote MCP tool through the CallableTool interface.
type mcpTool struct {
	mcpToolRef  *mcp.Tool
	inputSchema *tool.Schema
	entrypoint  Entrypoint
	sink        ImageSink
}

// newMCPTool creates a new MCP tool wrapper around an asynchronous entrypoint.
func newMCPTool(toolData mcp.Tool, session Session, sink ImageSink, opts ...EntrypointOption) *mcpTool {
	t := &mcpTool{
		mcpToolRef: &toolData,
		entrypoint: NewEntrypoint(toolData, session, opts...),
		sink:       sink,
	}

	if toolData.InputSchema != nil {
		t.inputSchema = convertMCPSchemaToSchema(toolData.InputSchema)
	}

	return t
}

// Call implements the CallableTool interface. Invocation outcomes, including
// remote errors and timeouts, are always returned as text; the only error
// this method returns itself is malformed argument JSON, which is a caller
// bug rather than a tool outcome.
func (t *mcpTool) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	var args map[string]any
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &args); err != nil {
			return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
		}
	} else {
		args = make(map[string]any)
	}

	return t.entrypoint(ctx, t.sink, args), nil
}

// Declaration implements the Tool interface.
func (t *mcpTool) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        t.mcpToolRef.Name,
		Description: t.mcpToolRef.Description,
		InputSchema: t.inputSchema,
	}
}
