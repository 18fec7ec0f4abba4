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

// transport specifies the transport method: "stdio", "sse", "streamable".
type transport string

const (
	// transportStdio is the stdio transport.
	transportStdio transport = "stdio"
	// transportSSE is the Server-Sent Events transport.
	transportSSE transport = "sse"
	// transportStreamable is the streamable HTTP transport.
	transportStreamable transport = "streamable"
)

// defaultClientInfo identifies this adapter to MCP servers when the caller
// does not provide its own client info.
var defaultClientInfo = mcp.Implementation{
	Name:    "trpc-mcp-adapter",
	Version: "1.0.0",
}

// ConnectionConfig defines the configuration for connecting to an MCP server.
type ConnectionConfig struct {
	// Transport specifies the transport method: "stdio", "sse", "streamable".
	Transport string `json:"transport"`

	// Streamable/SSE configuration.
	ServerURL string            `json:"server_url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`

	// STDIO configuration.
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Timeout bounds session management operations (initialize, list tools)
	// when the caller supplies no deadline of its own. Per-call timeouts on
	// tool invocations are configured on the entrypoints instead.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Advanced configuration.
	ClientInfo mcp.Implementation `json:"client_info,omitempty"`
}

// ReconnectConfig controls automatic session re-establishment after
// connection-level failures.
type ReconnectConfig struct {
	// Enabled turns automatic reconnection on.
	Enabled bool
	// MaxAttempts is the number of reconnect attempts per failed operation.
	MaxAttempts int
}

// toolSetConfig holds internal configuration for ToolSet.
type toolSetConfig struct {
	connectionConfig ConnectionConfig
	reconnectConfig  *ReconnectConfig
	toolFilter       ToolFilter
	mcpOptions       []mcp.ClientOption
	entrypointOpts   []EntrypointOption
	sink             ImageSink
	name             string
}

// ToolSetOption is a function type for configuring ToolSet.
type ToolSetOption func(*toolSetConfig)

// WithToolFilter configures tool filtering.
func WithToolFilter(filter ToolFilter) ToolSetOption {
	return func(c *toolSetConfig) {
		c.toolFilter = filter
	}
}

// WithMCPOptions sets additional options for the underlying MCP client.
func WithMCPOptions(options ...mcp.ClientOption) ToolSetOption {
	return func(c *toolSetConfig) {
		c.mcpOptions = append(c.mcpOptions, options...)
	}
}

// WithEntrypointOptions sets the options applied to the entrypoint of every
// tool the set wraps, such as WithCallTimeout.
func WithEntrypointOptions(options ...EntrypointOption) ToolSetOption {
	return func(c *toolSetConfig) {
		c.entrypointOpts = append(c.entrypointOpts, options...)
	}
}

// WithImageSink sets the sink that receives image artifacts produced by the
// set's tools. Without it artifacts are logged and dropped.
func WithImageSink(sink ImageSink) ToolSetOption {
	return func(c *toolSetConfig) {
		c.sink = sink
	}
}

// WithReconnect enables automatic session reconnection.
func WithReconnect(config ReconnectConfig) ToolSetOption {
	return func(c *toolSetConfig) {
		c.reconnectConfig = &config
	}
}

// WithName sets the tool set name.
func WithName(name string) ToolSetOption {
	return func(c *toolSetConfig) {
		c.name = name
	}
}

// validateTransport validates the transport string and returns the internal transport type.
func validateTransport(t string) (transport, error) {
	switch t {
	case "stdio":
		return transportStdio, nil
	case "sse":
		return transportSSE, nil
	case "streamable", "streamable_http":
		return transportStreamable, nil
	default:
		return "", fmt.Errorf("unsupported transport: %s, supported: stdio, sse, streamable", t)
	}
}
