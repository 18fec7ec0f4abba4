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
	"time"

	"trpc.group/trpc-go/trpc-mcp-adapter/log"
	"trpc.group/trpc-go/trpc-mcp-adapter/runloop"
)

// graceTimeout is added to the caller's wait when work is relocated to a
// worker, absorbing worker start-up and teardown overhead.
const graceTimeout = 5 * time.Second

// syncBridge runs a blocking-style task from a call site that may or may not
// sit inside a cooperative dispatch loop. When no loop is active the task
// runs on the calling goroutine. When a loop is active the task is relocated
// to a dedicated worker goroutine with a loop-cleared context, and the caller
// blocks only on the worker's result, never on the task itself.
type syncBridge struct {
	detector runloop.Detector
	grace    time.Duration
}

func newSyncBridge(detector runloop.Detector) *syncBridge {
	if detector == nil {
		detector = runloop.ContextDetector
	}
	return &syncBridge{detector: detector, grace: graceTimeout}
}

type taskResult struct {
	out string
	err error
}

// runBlocking executes task to completion. timeout is the inner deadline the
// task runs under (enforced by the task's own context handling); the bridge
// only adds the outer wait bound when the task is relocated.
func (b *syncBridge) runBlocking(ctx context.Context, name string, timeout time.Duration,
	task func(context.Context) (string, error)) (string, error) {
	if !b.detector.Active(ctx) {
		// No dispatch loop on this context, so blocking the caller is safe.
		return task(ctx)
	}
	return b.runDetached(ctx, name, timeout, task)
}

// runDetached relocates task to a fresh worker goroutine. The worker context
// keeps the caller's values (trace propagation) but drops its cancellation
// and its loop marker, so the task neither dies with the caller nor takes the
// detached branch again. The caller's wait is bounded by timeout plus grace:
// the inner deadline should fire first, and the outer bound only catches a
// worker stuck on a peer that ignores cancellation. When the outer bound
// fires, cancellation of the worker is best-effort and the goroutine may
// outlive the call; that is logged because it is a potential leak.
func (b *syncBridge) runDetached(ctx context.Context, name string, timeout time.Duration,
	task func(context.Context) (string, error)) (string, error) {
	workerCtx, cancel := context.WithCancel(runloop.Clear(context.WithoutCancel(ctx)))

	done := make(chan taskResult, 1)
	go func() {
		defer cancel()
		out, err := task(workerCtx)
		done <- taskResult{out: out, err: err}
	}()

	timer := time.NewTimer(timeout + b.grace)
	defer timer.Stop()

	select {
	case result := <-done:
		return result.out, result.err
	case <-timer.C:
		cancel()
		log.Warnf("MCP tool '%s' worker did not finish within %s, abandoning wait; the worker goroutine may still be running",
			name, timeout+b.grace)
		return "", &TimeoutError{Tool: name, Timeout: timeout}
	}
}
