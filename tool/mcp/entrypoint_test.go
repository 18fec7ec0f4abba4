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
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-mcp-adapter/artifact"
	"trpc.group/trpc-go/trpc-mcp-adapter/runloop"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

var testTool = mcp.Tool{Name: "echo", Description: "Echoes input"}

func TestEntrypoint_Success(t *testing.T) {
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			return textResult("hello"), nil
		},
	}

	entrypoint := NewEntrypoint(testTool, session)
	got := entrypoint(context.Background(), &recordingSink{}, nil)
	require.Equal(t, "hello", got)
}

func TestEntrypoint_RemoteErrorBecomesText(t *testing.T) {
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{mcp.TextContent{Text: "bad input"}},
			}, nil
		},
	}

	entrypoint := NewEntrypoint(mcp.Tool{Name: "X"}, session)
	got := entrypoint(context.Background(), &recordingSink{}, nil)

	require.True(t, strings.HasPrefix(got, "Error: "), "got %q", got)
	require.Contains(t, got, "Error from MCP tool 'X'")
	require.Contains(t, got, "bad input")
}

func TestEntrypoint_TransportErrorBecomesText(t *testing.T) {
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			return nil, errors.New("connection refused")
		},
	}

	for name, entrypoint := range map[string]Entrypoint{
		"async": NewEntrypoint(testTool, session),
		"sync":  NewSyncEntrypoint(testTool, session),
	} {
		t.Run(name, func(t *testing.T) {
			got := entrypoint(context.Background(), &recordingSink{}, nil)
			require.True(t, strings.HasPrefix(got, "Error: "), "got %q", got)
			require.Contains(t, got, "connection refused")
		})
	}
}

func TestEntrypoint_PanicBecomesText(t *testing.T) {
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			panic("session exploded")
		},
	}

	for name, entrypoint := range map[string]Entrypoint{
		"async": NewEntrypoint(testTool, session),
		"sync":  NewSyncEntrypoint(testTool, session),
	} {
		t.Run(name, func(t *testing.T) {
			var got string
			require.NotPanics(t, func() {
				got = entrypoint(context.Background(), &recordingSink{}, nil)
			})
			require.True(t, strings.HasPrefix(got, "Error: "), "got %q", got)
			require.Contains(t, got, "session exploded")
		})
	}
}

func TestEntrypoint_TimeoutBecomesText(t *testing.T) {
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return textResult("late"), nil
			}
		},
	}

	entrypoint := NewSyncEntrypoint(testTool, session, WithCallTimeout(50*time.Millisecond))
	start := time.Now()
	got := entrypoint(context.Background(), &recordingSink{}, nil)

	require.True(t, strings.HasPrefix(got, "Error: "), "got %q", got)
	require.Contains(t, got, "timed out")
	require.Less(t, time.Since(start), time.Second)
}

func TestEntrypoint_SyncAsyncEquivalence(t *testing.T) {
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			return textResult("a", "b"), nil
		},
	}

	asyncOut := NewEntrypoint(testTool, session)(context.Background(), &recordingSink{}, nil)
	syncOut := NewSyncEntrypoint(testTool, session)(context.Background(), &recordingSink{}, nil)
	require.Equal(t, asyncOut, syncOut)
	require.Equal(t, "a\nb", syncOut)
}

func TestSyncEntrypoint_InsideDispatchLoop(t *testing.T) {
	// Stand-in for other scheduled work: a dispatcher goroutine serving
	// jobs. The remote call completes only after the dispatcher has served
	// one, so the call cannot have starved concurrent work while in flight.
	jobs := make(chan chan struct{})
	go func() {
		for job := range jobs {
			close(job)
		}
	}()
	defer close(jobs)

	var markerCleared atomic.Bool
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			markerCleared.Store(!runloop.Active(ctx))
			job := make(chan struct{})
			jobs <- job
			<-job
			return textResult("fast"), nil
		},
	}

	entrypoint := NewSyncEntrypoint(testTool, session)
	got := entrypoint(runloop.Mark(context.Background()), &recordingSink{}, nil)
	require.Equal(t, "fast", got)
	require.True(t, markerCleared.Load(), "remote call must run with the loop marker cleared")
}

func TestEntrypoint_ImagesReachTheAgent(t *testing.T) {
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{
				mcp.TextContent{Text: "a"},
				mcp.ImageContent{MimeType: "image/jpeg"},
			}}, nil
		},
	}

	agent := artifact.NewCollection()
	got := NewSyncEntrypoint(testTool, session)(context.Background(), agent, nil)
	require.Equal(t, "a\nImage has been generated and added to the response.", got)
	require.Equal(t, 1, agent.Len())
}

func TestEntrypoint_NilSinkDiscardsImages(t *testing.T) {
	session := &fakeSession{
		callFn: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{mcp.ImageContent{}}}, nil
		},
	}

	entrypoint := NewEntrypoint(testTool, session)
	require.NotPanics(t, func() {
		got := entrypoint(context.Background(), nil, nil)
		require.Equal(t, "Image has been generated and added to the response.", got)
	})
}

func TestEntrypointConfig_Defaults(t *testing.T) {
	cfg := newEntrypointConfig()
	require.Equal(t, defaultCallTimeout, cfg.timeout)
	require.NotNil(t, cfg.detector)
}

func TestEntrypointConfig_Options(t *testing.T) {
	always := runloop.DetectorFunc(func(context.Context) bool { return true })
	cfg := newEntrypointConfig(WithCallTimeout(time.Minute), WithDetector(always))
	require.Equal(t, time.Minute, cfg.timeout)
	require.True(t, cfg.detector.Active(context.Background()))

	// Non-positive timeouts and nil detectors are ignored.
	cfg = newEntrypointConfig(WithCallTimeout(0), WithDetector(nil))
	require.Equal(t, defaultCallTimeout, cfg.timeout)
	require.NotNil(t, cfg.detector)
}
