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
	"testing"

	"github.com/stretchr/testify/require"
)

var filterInput = []ToolInfo{
	{Name: "read_file", Description: "Reads a file"},
	{Name: "write_file", Description: "Writes a file"},
	{Name: "search", Description: "Searches the web"},
}

func filterNames(tools []ToolInfo) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

func TestIncludeFilter(t *testing.T) {
	filter := NewIncludeFilter("read_file", "search")
	got := filter.Filter(context.Background(), filterInput)
	require.Equal(t, []string{"read_file", "search"}, filterNames(got))
}

func TestExcludeFilter(t *testing.T) {
	filter := NewExcludeFilter("write_file")
	got := filter.Filter(context.Background(), filterInput)
	require.Equal(t, []string{"read_file", "search"}, filterNames(got))
}

func TestNameFilter_EmptyListPassesEverything(t *testing.T) {
	filter := &ToolNameFilter{Mode: FilterModeInclude}
	got := filter.Filter(context.Background(), filterInput)
	require.Len(t, got, len(filterInput))
}

func TestCompositeFilter(t *testing.T) {
	filter := NewCompositeFilter(
		NewExcludeFilter("search"),
		NewIncludeFilter("read_file", "search"),
	)
	got := filter.Filter(context.Background(), filterInput)
	require.Equal(t, []string{"read_file"}, filterNames(got))
}

func TestFuncFilter(t *testing.T) {
	filter := NewFuncFilter(func(ctx context.Context, tools []ToolInfo) []ToolInfo {
		return tools[:1]
	})
	got := filter.Filter(context.Background(), filterInput)
	require.Equal(t, []string{"read_file"}, filterNames(got))
}

func TestNoFilter(t *testing.T) {
	got := NoFilter.Filter(context.Background(), filterInput)
	require.Equal(t, filterInput, got)
}
