//
// Tencent is pleased to support the open source community by making trpc-mcp-adapter available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-mcp-adapter is licensed under the Apache License Version 2.0.
//
//

// Package artifact provides the definition and storage of content artifacts.
package artifact

// Image is a generated image artifact. Its identity is independent of the
// textual transcript it was produced for: once handed to a collection the
// collection owns it for the rest of the session.
type Image struct {
	// ID uniquely identifies the artifact.
	ID string `json:"id"`
	// URL is the optional URL where the image can be accessed.
	URL string `json:"url,omitempty"`
	// Data contains the raw image bytes, if the image was returned inline.
	Data []byte `json:"data,omitempty"`
	// MimeType is the IANA standard MIME type of the image data.
	MimeType string `json:"mime_type,omitempty"`
	// Name is an optional display name, used to label the artifact.
	Name string `json:"name,omitempty"`
}
