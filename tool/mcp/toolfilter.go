//
// Tencent is pleased to support the open source community by making trpc-mcp-adapter available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-mcp-adapter is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"context"
)

// filterMode defines how a name filter treats its listed names.
type filterMode string

const (
	// FilterModeInclude keeps only the listed tools.
	FilterModeInclude filterMode = "include"
	// FilterModeExclude drops the listed tools.
	FilterModeExclude filterMode = "exclude"
)

// ToolFilter defines the interface for filtering tools.
type ToolFilter interface {
	Filter(ctx context.Context, tools []ToolInfo) []ToolInfo
}

// ToolInfo contains metadata about an MCP tool.
type ToolInfo struct {
	// Name is the name of the tool.
	Name string `json:"name"`
	// Description is a description of what the tool does.
	Description string `json:"description"`
}

// ToolFilterFunc is a function type that implements the ToolFilter interface.
type ToolFilterFunc func(ctx context.Context, tools []ToolInfo) []ToolInfo

// Filter implements the ToolFilter interface.
func (f ToolFilterFunc) Filter(ctx context.Context, tools []ToolInfo) []ToolInfo {
	return f(ctx, tools)
}

// ToolNameFilter filters tools by a list of tool names.
type ToolNameFilter struct {
	// Names is the list of tool names to filter by.
	Names []string
	// Mode specifies whether to include or exclude the listed names.
	Mode filterMode
}

// Filter implements the ToolFilter interface.
func (f *ToolNameFilter) Filter(ctx context.Context, tools []ToolInfo) []ToolInfo {
	if len(f.Names) == 0 {
		return tools
	}

	nameSet := make(map[string]bool, len(f.Names))
	for _, name := range f.Names {
		nameSet[name] = true
	}

	var filtered []ToolInfo
	for _, t := range tools {
		inSet := nameSet[t.Name]
		if f.Mode == FilterModeExclude {
			if !inSet {
				filtered = append(filtered, t)
			}
			continue
		}
		if inSet {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// CompositeFilter combines multiple filters using AND logic.
type CompositeFilter struct {
	// Filters is the list of filters to combine.
	Filters []ToolFilter
}

// Filter implements the ToolFilter interface.
func (f *CompositeFilter) Filter(ctx context.Context, tools []ToolInfo) []ToolInfo {
	result := tools
	for _, filter := range f.Filters {
		result = filter.Filter(ctx, result)
	}
	return result
}

// NewIncludeFilter creates a filter that only keeps the specified tool names.
func NewIncludeFilter(toolNames ...string) ToolFilter {
	return &ToolNameFilter{Names: toolNames, Mode: FilterModeInclude}
}

// NewExcludeFilter creates a filter that drops the specified tool names.
func NewExcludeFilter(toolNames ...string) ToolFilter {
	return &ToolNameFilter{Names: toolNames, Mode: FilterModeExclude}
}

// NewCompositeFilter creates a composite filter that applies multiple filters in order.
func NewCompositeFilter(filters ...ToolFilter) ToolFilter {
	return &CompositeFilter{Filters: filters}
}

// NewFuncFilter creates a filter from a function.
func NewFuncFilter(filterFunc func(ctx context.Context, tools []ToolInfo) []ToolInfo) ToolFilter {
	return ToolFilterFunc(filterFunc)
}

// NoFilter returns all tools without filtering.
var NoFilter ToolFilter = ToolFilterFunc(func(ctx context.Context, tools []ToolInfo) []ToolInfo {
	return tools
})
