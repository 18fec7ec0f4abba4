package mcp

import (
	"encoding/json"

	"trpc.group/trpc-go/trpc-mcp-adapter/tool"
)

// convertMCPSchemaToSchema converts an MCP JSON schema to our Schema format.
// Schemas that cannot be interpreted degrade to a plain object schema rather
// than failing the tool registration.
func convertMCPSchemaToSchema(mcpSchema any) *tool.Schema {
	schemaBytes, err := json.Marshal(mcpSchema)
	if err != nil {
		return &tool.Schema{Type: "object"}
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaBytes, &schemaMap); err != nil {
		return &tool.Schema{Type: "object"}
	}

	return convertSchemaMap(schemaMap)
}

// convertSchemaMap converts one schema node, recursing into properties and
// array item schemas.
func convertSchemaMap(schemaMap map[string]any) *tool.Schema {
	schema := &tool.Schema{}
	if typeVal, ok := schemaMap["type"].(string); ok {
		schema.Type = typeVal
	}
	if descVal, ok := schemaMap["description"].(string); ok {
		schema.Description = descVal
	}
	if propsVal, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = convertProperties(propsVal)
	}
	if itemsVal, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = convertSchemaMap(itemsVal)
	}
	if reqVal, ok := schemaMap["required"].([]any); ok {
		required := make([]string, 0, len(reqVal))
		for _, req := range reqVal {
			if reqStr, ok := req.(string); ok {
				required = append(required, reqStr)
			}
		}
		schema.Required = required
	}
	return schema
}

// convertProperties converts property definitions to map[string]*Schema.
func convertProperties(props map[string]any) map[string]*tool.Schema {
	if props == nil {
		return nil
	}

	result := make(map[string]*tool.Schema)
	for name, prop := range props {
		if propMap, ok := prop.(map[string]any); ok {
			result[name] = convertSchemaMap(propMap)
		}
	}
	return result
}
