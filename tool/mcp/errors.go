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
	"fmt"
	"time"

	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// RemoteToolError reports a call the server completed but flagged as failed.
// It carries the raw result content for diagnostics; error content is never
// normalized into agent output.
type RemoteToolError struct {
	// Tool is the name of the remote tool that reported the error.
	Tool string
	// Content is the raw content sequence returned with the error result.
	Content []mcp.Content
}

// Error implements the error interface.
func (e *RemoteToolError) Error() string {
	return fmt.Sprintf("Error from MCP tool '%s': %v", e.Tool, e.Content)
}

// TimeoutError reports that a remote call did not complete within the
// configured per-call timeout, or that the synchronous bridge gave up waiting
// for its worker.
type TimeoutError struct {
	// Tool is the name of the remote tool.
	Tool string
	// Timeout is the configured per-call timeout.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("MCP tool '%s' timed out after %s", e.Tool, e.Timeout)
}
