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
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trpc.group/trpc-go/trpc-mcp-adapter/log"
	"trpc.group/trpc-go/trpc-mcp-adapter/telemetry"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// Session is the established channel used to issue remote tool calls.
// Connection setup, retries and pooling belong to the implementation; the
// executor uses it strictly as a call capability. Implementations must either
// serialize concurrent calls or interleave them safely.
type Session interface {
	// CallTool invokes the named remote tool with the given arguments and
	// returns the raw call result.
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// callExecutor performs exactly one remote call per execute and turns the
// result into transcript text. It owns no resources beyond a call's lifetime.
type callExecutor struct {
	session Session
	timeout time.Duration
}

// execute invokes the remote tool once under the configured deadline.
// A result flagged IsError becomes a RemoteToolError, a transport deadline
// becomes a TimeoutError, and any other session failure propagates as is.
// Errors are never converted to text here; the entrypoint layer is the sole
// place that happens.
func (e *callExecutor) execute(ctx context.Context, name string, args map[string]any, sink ImageSink) (string, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "mcp.call_tool")
	span.SetAttributes(attribute.String("mcp.tool.name", name))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	log.Debugf("Calling MCP tool '%s' with args: %v", name, args)
	result, err := e.session.CallTool(callCtx, name, args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &TimeoutError{Tool: name, Timeout: e.timeout}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if result.IsError {
		remoteErr := &RemoteToolError{Tool: name, Content: result.Content}
		span.RecordError(remoteErr)
		span.SetStatus(codes.Error, remoteErr.Error())
		return "", remoteErr
	}

	return normalizeContent(result.Content, sink), nil
}
