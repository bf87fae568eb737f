// Package server implements the MCP (Model Context Protocol) server for
// cropping and transcribing handwriting photos.
//
// This package provides a JSON-RPC 2.0 server that lets a client open an
// interactive crop session on a photo, drive the crop square with pan and
// pinch gestures, preview what the user sees, and finalize the crop into
// source pixels, optionally running OCR on the result.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr so they never interleave with responses.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Operations:
//   - image_load: Load image and get metadata
//   - image_crop: Extract rectangular pixel region
//
// Crop Sessions:
//   - crop_session_start: Open a session for a photo and display size
//   - crop_session_pan: Move the crop square
//   - crop_session_pinch: Resize the crop square about its center
//   - crop_session_state: Current crop and visible region
//   - crop_session_preview: Render the display with the crop outline
//   - crop_session_finalize: Map to source pixels, crop, save, OCR
//   - crop_session_cancel: Abandon the crop
//
// OCR Operations:
//   - image_ocr: Extract text from an image or region
//   - ocr_info: Report OCR backend availability
//
// # Image Caching
//
// Decoded images are cached by path and reused across tool calls. An image
// opened for a crop session is dropped from the cache when its last session
// is finalized, cancelled or evicted.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A crop that lands entirely outside the visible photo is not an error: the
// finalize result reports degenerate=true and carries the uncropped photo.
//
// # Usage
//
//	srv := server.New(config.Default(), logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal().Err(err).Msg("server failed")
//	}
package server
