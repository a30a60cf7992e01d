// Package server implements the MCP (Model Context Protocol) server for the
// Polaris latitude tools.
//
// The server speaks JSON-RPC 2.0 over stdio so an MCP client can hand it a
// night-sky photograph and get back detected stars, the selected Polaris
// candidate and a latitude estimate with its error margin.
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
// Frames:
//   - frame_load: Load a photograph and describe it
//
// Polaris Pipeline:
//   - polaris_analyze: Full pipeline, photograph to latitude
//   - polaris_detect_stars: Star detection only
//   - polaris_score_stars: Rank given stars as Polaris candidates
//   - polaris_solve_latitude: Pixel row to latitude
//   - polaris_annotate: Annotated PNG of the analysis
//   - polaris_star_cutout: Enlarged PNG around a star
//
// Orientation and Location:
//   - compass_heading: Facing-north check and compass calibration
//   - latitude_nearest_city: Reference cities near a latitude
//
// History:
//   - observation_history: List, summarise, get and delete recorded results
//
// # Frame Caching
//
// Decoded frames are cached by path and reused across tool calls. The cache
// persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(cfg, store)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
