//
// Tencent is pleased to support the open source community by making trpc-mcp-adapter available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-mcp-adapter is licensed under the Apache License Version 2.0.
//
//

// Package runloop marks contexts that run inside a cooperative dispatch loop.
//
// An agent runner that processes events on a single goroutine marks the
// contexts it hands to tool callbacks. A nominally-blocking tool wrapper
// invoked from such a callback must not block that goroutine on work whose
// completion depends on the loop continuing to run; it checks the marker and
// relocates the work to an isolated goroutine instead.
package runloop

import "context"

type markerKey struct{}

// Mark returns a context flagged as running inside a cooperative dispatch loop.
// Runners call this before handing contexts to synchronously-invoked callbacks.
func Mark(ctx context.Context) context.Context {
	return context.WithValue(ctx, markerKey{}, true)
}

// Clear returns a context with the loop flag removed. Work relocated to an
// isolated worker runs under a cleared context so nested blocking calls take
// the direct path.
func Clear(ctx context.Context) context.Context {
	if !Active(ctx) {
		return ctx
	}
	return context.WithValue(ctx, markerKey{}, false)
}

// Active reports whether ctx is flagged as running inside a dispatch loop.
func Active(ctx context.Context) bool {
	v, ok := ctx.Value(markerKey{}).(bool)
	return ok && v
}

// Detector reports whether the calling context sits inside a running
// dispatch loop. It exists so branch selection can be tested by injecting
// "loop active" or "loop not active" directly.
type Detector interface {
	Active(ctx context.Context) bool
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context) bool

// Active implements the Detector interface.
func (f DetectorFunc) Active(ctx context.Context) bool {
	return f(ctx)
}

// ContextDetector is the default detector, probing the context marker.
var ContextDetector Detector = DetectorFunc(Active)
