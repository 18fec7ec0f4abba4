//
// Tencent is pleased to support the open source community by making trpc-mcp-adapter available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-mcp-adapter is licensed under the Apache License Version 2.0.
//
//

package artifact

import "sync"

// Collection is an append-only set of image artifacts.
//
// Appends are safe from any goroutine. The synchronous tool entrypoint may
// hand artifacts over from a short-lived worker goroutine, so the agent-side
// collection must tolerate appends that do not happen on the agent's own
// goroutine.
type Collection struct {
	mu     sync.Mutex
	images []*Image
}

// NewCollection creates an empty artifact collection.
func NewCollection() *Collection {
	return &Collection{}
}

// AddImage appends an image artifact to the collection, taking ownership of it.
func (c *Collection) AddImage(img *Image) {
	if img == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, img)
}

// Images returns a snapshot of the collected artifacts in append order.
func (c *Collection) Images() []*Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Image, len(c.images))
	copy(out, c.images)
	return out
}

// Len reports the number of collected artifacts.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}
