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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-mcp-adapter/runloop"
)

func TestBridge_DirectBranchWhenNoLoopActive(t *testing.T) {
	bridge := newSyncBridge(nil)

	var sawLoop bool
	out, err := bridge.runBlocking(context.Background(), "tool", time.Second,
		func(ctx context.Context) (string, error) {
			sawLoop = runloop.Active(ctx)
			return "direct", nil
		})

	require.NoError(t, err)
	require.Equal(t, "direct", out)
	require.False(t, sawLoop)
}

func TestBridge_DetachedBranchClearsLoopMarker(t *testing.T) {
	bridge := newSyncBridge(nil)

	var sawLoop bool
	out, err := bridge.runBlocking(runloop.Mark(context.Background()), "tool", time.Second,
		func(ctx context.Context) (string, error) {
			sawLoop = runloop.Active(ctx)
			return "detached", nil
		})

	require.NoError(t, err)
	require.Equal(t, "detached", out)
	require.False(t, sawLoop, "worker context must not carry the loop marker")
}

func TestBridge_DetachedBranchKeepsContextValues(t *testing.T) {
	type ctxKey struct{}
	bridge := newSyncBridge(nil)
	ctx := context.WithValue(runloop.Mark(context.Background()), ctxKey{}, "kept")

	out, err := bridge.runBlocking(ctx, "tool", time.Second,
		func(ctx context.Context) (string, error) {
			v, _ := ctx.Value(ctxKey{}).(string)
			return v, nil
		})

	require.NoError(t, err)
	require.Equal(t, "kept", out)
}

func TestBridge_DetachedBranchPropagatesTaskError(t *testing.T) {
	bridge := newSyncBridge(nil)
	boom := errors.New("boom")

	_, err := bridge.runBlocking(runloop.Mark(context.Background()), "tool", time.Second,
		func(ctx context.Context) (string, error) {
			return "", boom
		})
	require.ErrorIs(t, err, boom)
}

func TestBridge_InjectedDetectorControlsBranch(t *testing.T) {
	always := runloop.DetectorFunc(func(context.Context) bool { return true })
	bridge := newSyncBridge(always)

	var sawLoop bool
	// The context is not marked, but the injected detector forces the
	// detached branch anyway.
	_, err := bridge.runBlocking(context.Background(), "tool", time.Second,
		func(ctx context.Context) (string, error) {
			sawLoop = runloop.Active(ctx)
			return "", nil
		})
	require.NoError(t, err)
	require.False(t, sawLoop)
}

func TestBridge_OuterDeadlineAbandonsStuckWorker(t *testing.T) {
	bridge := &syncBridge{detector: runloop.ContextDetector, grace: 50 * time.Millisecond}

	start := time.Now()
	_, err := bridge.runBlocking(runloop.Mark(context.Background()), "stuck", 50*time.Millisecond,
		func(ctx context.Context) (string, error) {
			// Ignores cancellation, like a peer that does not honor it.
			time.Sleep(2 * time.Second)
			return "late", nil
		})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, "stuck", timeoutErr.Tool)
	require.Contains(t, err.Error(), "timed out")
	require.Less(t, time.Since(start), time.Second,
		"the caller must be released by the outer deadline, not the task's duration")
}

func TestBridge_OuterDeadlineCancelsWorkerContext(t *testing.T) {
	bridge := &syncBridge{detector: runloop.ContextDetector, grace: 20 * time.Millisecond}

	canceled := make(chan struct{})
	_, err := bridge.runBlocking(runloop.Mark(context.Background()), "stuck", 20*time.Millisecond,
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			close(canceled)
			return "", ctx.Err()
		})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("worker context was not canceled after the outer deadline fired")
	}
}

func TestBridge_CallerWaitIsBoundedEvenIfWorkerNeedsCaller(t *testing.T) {
	// Worst case for a dispatch loop: the task can only complete if the
	// calling goroutine keeps running, which it cannot while it waits. The
	// outer deadline must release the caller with a timeout instead of
	// leaving it blocked forever.
	bridge := &syncBridge{detector: runloop.ContextDetector, grace: 50 * time.Millisecond}
	release := make(chan struct{})

	start := time.Now()
	_, err := bridge.runBlocking(runloop.Mark(context.Background()), "tool", 50*time.Millisecond,
		func(ctx context.Context) (string, error) {
			<-release // only the caller could send this, and it is waiting
			return "never", nil
		})
	close(release)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Less(t, time.Since(start), time.Second)
}
