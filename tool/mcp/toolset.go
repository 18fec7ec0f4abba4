//
// Tencent is pleased to support the open source community by making trpc-mcp-adapter available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-mcp-adapter is licensed under the Apache License Version 2.0.
//
//

// Package mcp adapts remote MCP tools into always-text tool entrypoints.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"trpc.group/trpc-go/trpc-mcp-adapter/log"
	"trpc.group/trpc-go/trpc-mcp-adapter/tool"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// reconnectErrorPatterns are the error fragments that indicate the session
// itself failed and re-establishing it may help. Conservative on purpose:
// configuration errors and slow calls are excluded.
var reconnectErrorPatterns = []string{
	"session_expired:",
	"transport is closed",
	"client not initialized",
	"not initialized",
	"connection refused",
	"connection reset",
	"EOF",
	"broken pipe",
	"HTTP 404",
	"session not found",
}

// ToolSet lists the tools of one MCP server and wraps each of them as a
// CallableTool backed by a shared session.
type ToolSet struct {
	config         toolSetConfig
	sessionManager *sessionManager
	tools          []tool.Tool
	mu             sync.RWMutex
	name           string
}

// NewMCPToolSet creates a new MCP tool set with the given configuration.
func NewMCPToolSet(config ConnectionConfig, opts ...ToolSetOption) *ToolSet {
	cfg := toolSetConfig{
		connectionConfig: config,
		name:             "mcp",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.connectionConfig.ClientInfo.Name == "" {
		cfg.connectionConfig.ClientInfo = defaultClientInfo
	}

	return &ToolSet{
		config:         cfg,
		sessionManager: newSessionManager(cfg.connectionConfig, cfg.mcpOptions, cfg.reconnectConfig),
		name:           cfg.name,
	}
}

// Session returns the set's session capability, usable directly with
// NewEntrypoint and NewSyncEntrypoint.
func (ts *ToolSet) Session() Session {
	return ts.sessionManager
}

// Tools returns the wrapped tools, refreshing the list from the server.
// The cached list is returned when the refresh fails.
func (ts *ToolSet) Tools(ctx context.Context) []tool.Tool {
	if err := ts.refreshTools(ctx); err != nil {
		log.Errorf("Failed to refresh MCP tools: %v", err)
	}

	ts.mu.RLock()
	defer ts.mu.RUnlock()
	result := make([]tool.Tool, len(ts.tools))
	copy(result, ts.tools)
	return result
}

// Name returns the tool set name.
func (ts *ToolSet) Name() string {
	return ts.name
}

// Close shuts down the underlying session.
func (ts *ToolSet) Close() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.sessionManager != nil {
		if err := ts.sessionManager.close(); err != nil {
			return fmt.Errorf("failed to close MCP session: %w", err)
		}
	}
	return nil
}

// refreshTools connects to the MCP server and rebuilds the wrapped tool list.
func (ts *ToolSet) refreshTools(ctx context.Context) error {
	if !ts.sessionManager.isConnected() {
		if err := ts.sessionManager.connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to MCP server: %w", err)
		}
	}

	mcpTools, err := ts.sessionManager.listTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools from MCP server: %w", err)
	}
	mcpTools = ts.filterTools(ctx, mcpTools)

	tools := make([]tool.Tool, 0, len(mcpTools))
	for _, toolData := range mcpTools {
		tools = append(tools, newMCPTool(toolData, ts.sessionManager, ts.config.sink, ts.config.entrypointOpts...))
	}

	ts.mu.Lock()
	ts.tools = tools
	ts.mu.Unlock()

	log.Debugf("Refreshed MCP tools, count: %d", len(tools))
	return nil
}

// filterTools applies the configured tool filter to the remote tool list.
func (ts *ToolSet) filterTools(ctx context.Context, mcpTools []mcp.Tool) []mcp.Tool {
	if ts.config.toolFilter == nil {
		return mcpTools
	}

	infos := make([]ToolInfo, len(mcpTools))
	for i, t := range mcpTools {
		infos[i] = ToolInfo{Name: t.Name, Description: t.Description}
	}

	kept := make(map[string]bool)
	for _, info := range ts.config.toolFilter.Filter(ctx, infos) {
		kept[info.Name] = true
	}

	filtered := make([]mcp.Tool, 0, len(mcpTools))
	for _, t := range mcpTools {
		if kept[t.Name] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// sessionManager owns the MCP client connection and implements the Session
// capability consumed by the call executor.
type sessionManager struct {
	config          ConnectionConfig
	mcpOptions      []mcp.ClientOption
	reconnectConfig *ReconnectConfig
	client          mcp.Connector
	mu              sync.RWMutex
	connected       bool
	initialized     bool
	reconnectGroup  singleflight.Group
}

func newSessionManager(config ConnectionConfig, mcpOptions []mcp.ClientOption, reconnectConfig *ReconnectConfig) *sessionManager {
	return &sessionManager{
		config:          config,
		mcpOptions:      mcpOptions,
		reconnectConfig: reconnectConfig,
	}
}

// CallTool implements the Session interface. It issues exactly one remote
// call (plus reconnect retries when enabled) and returns the raw result so
// the executor can see the error flag before any normalization happens.
func (m *sessionManager) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	var result *mcp.CallToolResult

	operationErr := m.withReconnect(ctx, func() error {
		m.mu.RLock()
		defer m.mu.RUnlock()

		if m.client == nil {
			return fmt.Errorf("transport is closed")
		}

		callReq := &mcp.CallToolRequest{}
		callReq.Params.Name = name
		callReq.Params.Arguments = args

		callResp, callErr := m.client.CallTool(ctx, callReq)
		if callErr != nil {
			return fmt.Errorf("failed to call tool %s: %w", name, callErr)
		}

		result = callResp
		return nil
	})

	return result, operationErr
}

// connect establishes the connection to the MCP server and initializes the session.
func (m *sessionManager) connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return nil
	}

	log.Debugf("Connecting to MCP server, transport: %s", m.config.Transport)
	client, err := m.createClient()
	if err != nil {
		return fmt.Errorf("failed to create MCP client: %w", err)
	}

	m.client = client
	m.connected = true

	if err := m.initialize(ctx); err != nil {
		m.connected = false
		if closeErr := client.Close(); closeErr != nil {
			log.Errorf("Failed to close client after initialization failure: %v (init error: %v)", closeErr, err)
		}
		m.client = nil
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}
	return nil
}

// createClient creates the appropriate MCP client for the configured transport.
func (m *sessionManager) createClient() (mcp.Connector, error) {
	clientInfo := m.config.ClientInfo
	if clientInfo.Name == "" {
		clientInfo = defaultClientInfo
	}

	transportType, err := validateTransport(m.config.Transport)
	if err != nil {
		return nil, err
	}

	switch transportType {
	case transportStdio:
		config := mcp.StdioTransportConfig{
			ServerParams: mcp.StdioServerParameters{
				Command: m.config.Command,
				Args:    m.config.Args,
			},
			Timeout: m.config.Timeout,
		}
		return mcp.NewStdioClient(config, clientInfo)
	case transportSSE:
		return mcp.NewSSEClient(m.config.ServerURL, clientInfo, m.clientOptions()...)
	case transportStreamable:
		return mcp.NewClient(m.config.ServerURL, clientInfo, m.clientOptions()...)
	default:
		return nil, fmt.Errorf("unsupported transport: %s", m.config.Transport)
	}
}

func (m *sessionManager) clientOptions() []mcp.ClientOption {
	var options []mcp.ClientOption
	if len(m.config.Headers) > 0 {
		headers := http.Header{}
		for k, v := range m.config.Headers {
			headers.Set(k, v)
		}
		options = append(options, mcp.WithHTTPHeaders(headers))
	}
	return append(options, m.mcpOptions...)
}

// sessionContext applies the configured session timeout when the incoming
// context carries no deadline of its own.
func (m *sessionManager) sessionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.Timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			return context.WithTimeout(ctx, m.config.Timeout)
		}
	}
	return ctx, func() {}
}

// initialize performs the MCP session handshake.
func (m *sessionManager) initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}

	initCtx, cancel := m.sessionContext(ctx)
	defer cancel()
	initResp, err := m.client.Initialize(initCtx, &mcp.InitializeRequest{})
	if err != nil {
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	log.Debugf("MCP session initialized, server: %s %s, protocol: %s",
		initResp.ServerInfo.Name, initResp.ServerInfo.Version, initResp.ProtocolVersion)
	m.initialized = true
	return nil
}

// listTools retrieves the available tools from the MCP server.
func (m *sessionManager) listTools(ctx context.Context) ([]mcp.Tool, error) {
	var result []mcp.Tool

	operationErr := m.withReconnect(ctx, func() error {
		m.mu.RLock()
		defer m.mu.RUnlock()

		if m.client == nil {
			return fmt.Errorf("transport is closed")
		}

		listCtx, cancel := m.sessionContext(ctx)
		defer cancel()
		listResp, listErr := m.client.ListTools(listCtx, &mcp.ListToolsRequest{})
		if listErr != nil {
			return fmt.Errorf("failed to list tools: %w", listErr)
		}

		result = listResp.Tools
		return nil
	})

	return result, operationErr
}

// close closes the MCP session and client connection.
func (m *sessionManager) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected || m.client == nil {
		return nil
	}

	err := m.client.Close()
	m.connected = false
	m.initialized = false
	m.client = nil

	if err != nil {
		return fmt.Errorf("failed to close MCP client: %w", err)
	}
	return nil
}

// isConnected reports whether the session is connected and initialized.
func (m *sessionManager) isConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected && m.initialized
}

// withReconnect runs operation, re-establishing the session and retrying when
// the failure looks like a dead session and reconnection is enabled. Each
// operation gets its own attempt budget.
func (m *sessionManager) withReconnect(ctx context.Context, operation func() error) error {
	err := operation()
	if err == nil || !m.shouldReconnect(err) {
		return err
	}

	maxAttempts := m.reconnectConfig.MaxAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("reconnection aborted: %w", ctx.Err())
		}

		log.Debugf("Session failure detected, reconnecting (attempt %d/%d): %v", attempt, maxAttempts, err)
		if reconnectErr := m.recreateSession(ctx); reconnectErr != nil {
			log.Errorf("Session reconnection failed (attempt %d/%d): %v", attempt, maxAttempts, reconnectErr)
			if attempt >= maxAttempts {
				return err
			}
			continue
		}

		err = operation()
		if err == nil || !m.shouldReconnect(err) {
			return err
		}
	}

	log.Warnf("All reconnection attempts exhausted (max %d)", maxAttempts)
	return err
}

// shouldReconnect reports whether err indicates a dead session worth re-establishing.
func (m *sessionManager) shouldReconnect(err error) bool {
	if m.reconnectConfig == nil || !m.reconnectConfig.Enabled || err == nil {
		return false
	}

	errStr := err.Error()
	for _, pattern := range reconnectErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// recreateSession tears the session down and builds a new one. Concurrent
// callers share a single reconnection through the singleflight group.
func (m *sessionManager) recreateSession(ctx context.Context) error {
	_, err, _ := m.reconnectGroup.Do("reconnect", func() (any, error) {
		return nil, m.doRecreateSession(ctx)
	})
	return err
}

func (m *sessionManager) doRecreateSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		if closeErr := m.client.Close(); closeErr != nil {
			log.Warnf("Failed to close old client during session recreation: %v", closeErr)
		}
		m.client = nil
	}
	m.connected = false
	m.initialized = false

	client, err := m.createClient()
	if err != nil {
		return fmt.Errorf("failed to create new MCP client during session recreation: %w", err)
	}

	m.client = client
	m.connected = true

	if err := m.initialize(ctx); err != nil {
		m.connected = false
		if closeErr := client.Close(); closeErr != nil {
			log.Errorf("Failed to close client after re-initialization failure: %v (init error: %v)", closeErr, err)
		}
		m.client = nil
		return fmt.Errorf("failed to re-initialize MCP session: %w", err)
	}
	return nil
}
