// Package server implements the MCP (Model Context Protocol) server for the
// quadrant text encoder.
//
// This package provides a JSON-RPC 2.0 server that lets MCP clients turn
// images into quadrant hex text and inspect the canvas the text was computed
// from.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Encoding:
//   - image_load: Load and normalize an image, report source metadata
//   - image_to_text: Quadrant hex text, preview data URL and statistics
//   - image_preview: The normalized canvas as a data URL
//
// Inspection:
//   - image_crop_quadrant: Extract one 75x75 region
//   - image_sample_color: Color and token of one canvas pixel
//   - image_region_colors: Most frequent tokens in one region
//   - image_quadrant_overlay: Canvas with region boundaries drawn
//
// Every tool works on the normalized 150x150 canvas, never on the source
// pixels, so coordinates and colors match the text encoding exactly.
//
// # Canvas Caching
//
// Normalized canvases are cached by path and reused across tool calls.
// image_load always re-reads the file and refreshes the cache entry.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32603 (result could not be
//     marshaled) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Lines that are not valid JSON get a -32700 parse error with a null id.
//
// # Usage
//
//	srv := server.New(config.Default(), logger)
//	if err := srv.Run(os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
