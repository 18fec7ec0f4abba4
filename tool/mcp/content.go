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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-mcp-adapter/artifact"
	"trpc.group/trpc-go/trpc-mcp-adapter/log"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// imagePlaceholder is the transcript line standing in for an image artifact.
const imagePlaceholder = "Image has been generated and added to the response."

// defaultImageMimeType is assumed when the server omits the image MIME type.
const defaultImageMimeType = "image/png"

// ImageSink receives image artifacts produced while normalizing tool output.
// The agent provides it; ownership of each artifact transfers on AddImage.
// It must be safe to call from the goroutine the normalizer runs on, which
// for the synchronous entrypoint may be a short-lived worker goroutine.
type ImageSink interface {
	AddImage(image *artifact.Image)
}

// normalizeContent renders an ordered content sequence as a single string for
// the model transcript. Text items contribute their text, image items are
// handed to sink and replaced by a fixed placeholder line, embedded resources
// are rendered as their JSON form, and unrecognized variants get a textual
// fallback. Items are processed strictly in encounter order, contributions
// are separated by exactly one newline, and the result carries no trailing
// whitespace. Every variant has a defined rendering, so normalization cannot
// fail.
func normalizeContent(content []mcp.Content, sink ImageSink) string {
	segments := make([]string, 0, len(content))
	for _, item := range content {
		switch c := item.(type) {
		case mcp.TextContent:
			segments = append(segments, c.Text)
		case mcp.ImageContent:
			sink.AddImage(newImageArtifact(c))
			segments = append(segments, imagePlaceholder)
		case mcp.EmbeddedResource:
			segments = append(segments, embeddedResourceText(c))
		default:
			segments = append(segments, unsupportedContentText(item))
		}
	}
	return strings.TrimRightFunc(strings.Join(segments, "\n"), unicode.IsSpace)
}

// newImageArtifact builds a freshly-identified artifact from an image content
// item. Inline data arrives base64-encoded on the wire; payloads that fail to
// decode are kept verbatim rather than dropped.
func newImageArtifact(c mcp.ImageContent) *artifact.Image {
	mimeType := c.MimeType
	if mimeType == "" {
		mimeType = defaultImageMimeType
	}

	var data []byte
	if c.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(c.Data)
		if err != nil {
			log.Debugf("Image content is not valid base64, keeping raw payload: %v", err)
			decoded = []byte(c.Data)
		}
		data = decoded
	}

	return &artifact.Image{
		ID:       uuid.NewString(),
		Data:     data,
		MimeType: mimeType,
	}
}

func embeddedResourceText(c mcp.EmbeddedResource) string {
	encoded, err := json.Marshal(c.Resource)
	if err != nil {
		log.Debugf("Failed to encode embedded resource: %v", err)
		return fmt.Sprintf("[Embedded resource: %v]", c.Resource)
	}
	return fmt.Sprintf("[Embedded resource: %s]", encoded)
}

func unsupportedContentText(item any) string {
	return fmt.Sprintf("[Unsupported content type: %T]", item)
}
