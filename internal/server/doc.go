// Package server implements the MCP (Model Context Protocol) server for the
// scale-bar tools.
//
// This package provides a JSON-RPC 2.0 server that exposes magnification
// lookup, scale-bar layout and batch rendering through the MCP protocol, so
// an assistant can annotate a folder of micrographs and check the result.
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
// Calibration:
//   - scalebar_resolve: Magnification token and calibration for a filename
//   - scalebar_calibrations: Calibration table, layout and font in use
//
// Layout:
//   - scalebar_layout: Box, bar and label placement for an image size
//
// Rendering:
//   - scalebar_render: Annotate one image
//   - scalebar_process_batch: Annotate a list of images and zip the results
//   - scalebar_preview: Annotate in memory and return the corner as PNG
//
// Quality checks:
//   - scalebar_verify: OCR a processed label and compare it with the expected text
//
// # Skipped Files
//
// A file whose name has no magnification token, whose magnification is not
// calibrated, or whose extension is not a supported image format is not an
// error. Every tool reports it in a "skip" object carrying the same reason and
// message a batch run would log.
//
// # Font
//
// The label font is loaded once in New. When the configured font cannot be
// found the built-in Go Regular face is used and every rendering result
// reports font_degraded.
package server
