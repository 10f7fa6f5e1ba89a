// Package server implements the MCP (Model Context Protocol) server for
// document capture.
//
// A client works through a checklist of documents: it scans a photo for each
// one, inspects the result, crops by hand where detection fell back to the
// original photo, and finally exports everything.
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
// Checklist:
//   - checklist_list: Documents in order, with tier and status marker
//   - document_status: Stored result for one document, or a summary
//
// Capture:
//   - document_scan: Detect, flatten and store a photo for a document
//   - document_rescan: Run the stored image through detection again
//   - document_crop: Manually crop the stored image
//
// Diagnostics:
//   - document_detect: Report the detected corners without storing
//   - document_edge_map: Return the edge map the detector sees
//
// Export:
//   - export_zip: All stored images in one ZIP archive
//   - export_pdfs: One single-page PDF per stored image
//
// # Status Markers
//
// Every stored result carries a status: auto (flattened, ✅), fallback (no
// outline found, original stored, ⚠️), error (processing failed, original
// stored, ❌) or manual (cropped by hand, 🟩).
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A photo in which no document is found is not an error; the result is
// stored with status fallback.
//
// # Usage
//
//	cfg, err := config.Load(os.Args[1:])
//	...
//	srv, err := server.New(cfg, nil)
//	...
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
