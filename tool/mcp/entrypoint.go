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
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-mcp-adapter/artifact"
	"trpc.group/trpc-go/trpc-mcp-adapter/log"
	"trpc.group/trpc-go/trpc-mcp-adapter/runloop"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// defaultCallTimeout bounds a remote call when no timeout option is given.
const defaultCallTimeout = 30 * time.Second

// Entrypoint is a remote tool invocation callable, meant to be registered
// into an agent's function-calling table under the tool's name.
//
// An entrypoint always returns text. The tool-calling protocol models every
// tool outcome as content, so invocation failures of any kind (remote error,
// timeout, unexpected fault) are rendered as a string starting with
// "Error: " instead of surfacing as an error or a panic.
type Entrypoint func(ctx context.Context, agent ImageSink, args map[string]any) string

type entrypointConfig struct {
	timeout  time.Duration
	detector runloop.Detector
}

func newEntrypointConfig(opts ...EntrypointOption) entrypointConfig {
	cfg := entrypointConfig{
		timeout:  defaultCallTimeout,
		detector: runloop.ContextDetector,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// EntrypointOption configures an entrypoint at construction time.
type EntrypointOption func(*entrypointConfig)

// WithCallTimeout bounds each remote call made through the entrypoint.
// The timeout is fixed for the entrypoint's lifetime; there is no
// process-wide default to mutate.
func WithCallTimeout(timeout time.Duration) EntrypointOption {
	return func(cfg *entrypointConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithDetector overrides how the synchronous entrypoint decides whether a
// cooperative dispatch loop is active on the calling context.
func WithDetector(detector runloop.Detector) EntrypointOption {
	return func(cfg *entrypointConfig) {
		if detector != nil {
			cfg.detector = detector
		}
	}
}

// NewEntrypoint returns an entrypoint for toolData that executes on the
// caller's goroutine; the remote call is its only blocking point. It is the
// variant to use from inside a cooperative dispatch loop.
func NewEntrypoint(toolData mcp.Tool, session Session, opts ...EntrypointOption) Entrypoint {
	cfg := newEntrypointConfig(opts...)
	executor := &callExecutor{session: session, timeout: cfg.timeout}
	name := toolData.Name

	return func(ctx context.Context, agent ImageSink, args map[string]any) string {
		out, err := safeExecute(ctx, executor, name, args, sinkOrDiscard(agent))
		if err != nil {
			log.Errorf("Failed to call MCP tool '%s': %v", name, err)
			return errorText(err)
		}
		return out
	}
}

// NewSyncEntrypoint returns an entrypoint for toolData that is safe to invoke
// from plain blocking code and from callbacks running inside a cooperative
// dispatch loop. In the latter case the remote call is relocated to a
// dedicated worker goroutine so the loop is never starved; the caller's wait
// is then bounded by the call timeout plus a fixed grace period.
//
// For a successful call its output is identical to the asynchronous
// entrypoint's; the two differ only in their execution-context constraints.
func NewSyncEntrypoint(toolData mcp.Tool, session Session, opts ...EntrypointOption) Entrypoint {
	cfg := newEntrypointConfig(opts...)
	executor := &callExecutor{session: session, timeout: cfg.timeout}
	bridge := newSyncBridge(cfg.detector)
	name := toolData.Name

	return func(ctx context.Context, agent ImageSink, args map[string]any) string {
		sink := sinkOrDiscard(agent)
		out, err := bridge.runBlocking(ctx, name, cfg.timeout, func(taskCtx context.Context) (string, error) {
			return safeExecute(taskCtx, executor, name, args, sink)
		})
		if err != nil {
			log.Errorf("Failed to call MCP tool '%s': %v", name, err)
			return errorText(err)
		}
		return out
	}
}

// safeExecute shields the entrypoint (and, on the sync path, the process)
// from panics escaping a session implementation by converting them to errors.
func safeExecute(ctx context.Context, executor *callExecutor, name string,
	args map[string]any, sink ImageSink) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in MCP tool '%s': %v", name, r)
		}
	}()
	return executor.execute(ctx, name, args, sink)
}

func errorText(err error) string {
	return "Error: " + err.Error()
}

// discardSink drops artifacts when the caller provides no sink.
type discardSink struct{}

func (discardSink) AddImage(image *artifact.Image) {
	log.Debugf("Discarding image artifact %s: no image sink configured", image.ID)
}

func sinkOrDiscard(sink ImageSink) ImageSink {
	if sink == nil {
		return discardSink{}
	}
	return sink
}
