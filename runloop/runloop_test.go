//
// Tencent is pleased to support the open source community by making trpc-mcp-adapter available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-mcp-adapter is licensed under the Apache License Version 2.0.
//
//

package runloop

import (
	"context"
	"testing"
)

func TestMarkAndActive(t *testing.T) {
	ctx := context.Background()
	if Active(ctx) {
		t.Fatal("fresh context reported as active")
	}

	marked := Mark(ctx)
	if !Active(marked) {
		t.Fatal("marked context not reported as active")
	}
	if Active(ctx) {
		t.Fatal("marking must not mutate the parent context")
	}
}

func TestClear(t *testing.T) {
	marked := Mark(context.Background())
	cleared := Clear(marked)
	if Active(cleared) {
		t.Fatal("cleared context still reported as active")
	}
	if !Active(marked) {
		t.Fatal("clearing must not mutate the marked context")
	}

	// Clearing an unmarked context is a no-op.
	ctx := context.Background()
	if Clear(ctx) != ctx {
		t.Fatal("Clear of an unmarked context should return it unchanged")
	}
}

func TestContextDetector(t *testing.T) {
	if ContextDetector.Active(context.Background()) {
		t.Fatal("detector reported an unmarked context as active")
	}
	if !ContextDetector.Active(Mark(context.Background())) {
		t.Fatal("detector missed a marked context")
	}
}

func TestDetectorFunc(t *testing.T) {
	always := DetectorFunc(func(context.Context) bool { return true })
	if !always.Active(context.Background()) {
		t.Fatal("DetectorFunc did not forward to the wrapped function")
	}
}
