package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG for stored image headers
	"time"

	"github.com/ironsheep/docscan-mcp/internal/capture"
	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/export"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/pipeline"
	"github.com/ironsheep/docscan-mcp/internal/session"
	"github.com/ironsheep/docscan-mcp/internal/store"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "document_scan", "export_zip").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Checklist
	case "checklist_list":
		return s.handleChecklistList(args)
	case "document_status":
		return s.handleDocumentStatus(args)

	// Capture
	case "document_scan":
		return s.handleDocumentScan(ctx, args)
	case "document_rescan":
		return s.handleDocumentRescan(ctx, args)
	case "document_crop":
		return s.handleDocumentCrop(args)

	// Diagnostics
	case "document_detect":
		return s.handleDocumentDetect(args)
	case "document_edge_map":
		return s.handleDocumentEdgeMap(ctx, args)

	// Export
	case "export_zip":
		return s.handleExportZip(args)
	case "export_pdfs":
		return s.handleExportPDFs(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// documentResult is the tool view of a stored result.
type documentResult struct {
	Index       int          `json:"index"`
	Document    string       `json:"document"`
	Scanned     bool         `json:"scanned"`
	Status      store.Status `json:"status,omitempty"`
	Marker      string       `json:"marker,omitempty"`
	CaptureID   string       `json:"capture_id,omitempty"`
	Error       string       `json:"error,omitempty"`
	Bytes       int          `json:"bytes,omitempty"`
	Width       int          `json:"width,omitempty"`
	Height      int          `json:"height,omitempty"`
	UpdatedAt   *time.Time   `json:"updated_at,omitempty"`
	ImageBase64 string       `json:"image_base64,omitempty"`
	MimeType    string       `json:"mime_type,omitempty"`
}

func (s *Server) describe(r store.ScanResult, includeImage bool) documentResult {
	updated := r.UpdatedAt
	out := documentResult{
		Index:     s.cfg.Checklist.Index(r.Document),
		Document:  r.Document,
		Scanned:   true,
		Status:    r.Status,
		Marker:    r.Status.Marker(),
		CaptureID: r.CaptureID,
		Error:     r.Err,
		Bytes:     len(r.Data),
		UpdatedAt: &updated,
	}

	if len(r.Data) > 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(r.Data)); err == nil {
			out.Width, out.Height = cfg.Width, cfg.Height
		}
		if includeImage {
			out.ImageBase64 = base64.StdEncoding.EncodeToString(r.Data)
			out.MimeType = "image/jpeg"
		}
	}
	return out
}

func (s *Server) results() *store.Store {
	return s.session.Pipeline().Store()
}

func (s *Server) lookup(name string) (config.Document, error) {
	if name == "" {
		return config.Document{}, errors.New("document is required")
	}
	doc, ok := s.cfg.Checklist.Lookup(name)
	if !ok {
		return config.Document{}, fmt.Errorf("%w: %q", store.ErrUnknownDocument, name)
	}
	return doc, nil
}

// === Checklist Handlers ===

type checklistEntry struct {
	Index    int                `json:"index"`
	Name     string             `json:"name"`
	Tier     config.QualityTier `json:"tier"`
	Quality  int                `json:"quality"`
	Binarize bool               `json:"binarize"`
	Status   store.Status       `json:"status,omitempty"`
	Marker   string             `json:"marker,omitempty"`
}

func (s *Server) handleChecklistList(args json.RawMessage) (interface{}, error) {
	st := s.results()
	entries := make([]checklistEntry, 0, len(s.cfg.Checklist))
	for i, doc := range s.cfg.Checklist {
		e := checklistEntry{
			Index:    i + 1,
			Name:     doc.Name,
			Tier:     doc.Tier,
			Quality:  s.cfg.QualityFor(doc.Tier),
			Binarize: doc.Binarize,
		}
		if r, ok := st.Get(doc.Name); ok {
			e.Status = r.Status
			e.Marker = r.Status.Marker()
		}
		entries = append(entries, e)
	}

	return map[string]interface{}{
		"documents": entries,
		"total":     len(entries),
		"scanned":   st.Len(),
	}, nil
}

type documentStatusArgs struct {
	Document     string `json:"document"`
	IncludeImage bool   `json:"include_image"`
}

func (s *Server) handleDocumentStatus(args json.RawMessage) (interface{}, error) {
	var a documentStatusArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	if a.Document == "" {
		snap := s.results().Snapshot()
		docs := make([]documentResult, 0, len(snap))
		for _, e := range snap {
			docs = append(docs, s.describe(e.ScanResult, false))
		}
		return map[string]interface{}{
			"documents":   docs,
			"scanned":     len(snap),
			"total":       len(s.cfg.Checklist),
			"total_bytes": snap.TotalBytes(),
			"session":     s.session.State(),
		}, nil
	}

	doc, err := s.lookup(a.Document)
	if err != nil {
		return nil, err
	}
	r, ok := s.results().Get(doc.Name)
	if !ok {
		return documentResult{Index: s.cfg.Checklist.Index(doc.Name), Document: doc.Name}, nil
	}
	return s.describe(r, a.IncludeImage), nil
}

// === Capture Handlers ===

type documentScanArgs struct {
	Document string `json:"document"`
	Path     string `json:"path"`
}

func (s *Server) handleDocumentScan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.lookup(a.Document); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	r, err := s.session.Scan(ctx, a.Document, capture.FileDevice{Path: a.Path})
	if err != nil {
		return nil, err
	}
	return s.describe(r, false), nil
}

type documentRescanArgs struct {
	Document string `json:"document"`
}

func (s *Server) handleDocumentRescan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentRescanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.lookup(a.Document); err != nil {
		return nil, err
	}

	r, err := s.session.Rescan(ctx, a.Document)
	if err != nil {
		return nil, err
	}
	return s.describe(r, false), nil
}

type documentCropArgs struct {
	Document string `json:"document"`
	X1       int    `json:"x1"`
	Y1       int    `json:"y1"`
	X2       int    `json:"x2"`
	Y2       int    `json:"y2"`
}

func (s *Server) handleDocumentCrop(args json.RawMessage) (interface{}, error) {
	var a documentCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.lookup(a.Document); err != nil {
		return nil, err
	}

	r, err := s.session.Crop(a.Document, a.X1, a.Y1, a.X2, a.Y2)
	if err != nil {
		if errors.Is(err, session.ErrNotScanned) {
			return nil, fmt.Errorf("%w: scan the document before cropping", err)
		}
		return nil, err
	}
	return s.describe(r, false), nil
}

// === Diagnostic Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

// detectResult pairs the detection with the photo it ran on.
type detectResult struct {
	Frame *imaging.FrameInfo `json:"frame"`
	*pipeline.Detection
}

func (s *Server) handleDocumentDetect(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	frame, info, err := imaging.LoadFrameWithInfo(a.Path)
	if err != nil {
		return nil, err
	}
	det, err := s.session.Pipeline().Detect(frame)
	if err != nil {
		return nil, err
	}
	return detectResult{Frame: info, Detection: det}, nil
}

func (s *Server) handleDocumentEdgeMap(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	frame, err := capture.ReadFrame(ctx, capture.FileDevice{Path: a.Path})
	if err != nil {
		return nil, err
	}
	return imaging.EdgeMap(frame)
}

// === Export Handlers ===

type exportZipArgs struct {
	OutputPath string `json:"output_path"`
}

type exportResult struct {
	Path string `json:"path"`
	*export.Manifest
}

func (s *Server) handleExportZip(args json.RawMessage) (interface{}, error) {
	var a exportZipArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, errors.New("output_path is required")
	}

	manifest, err := s.exporter.WriteZipFile(a.OutputPath, s.results().Snapshot())
	if err != nil {
		return nil, err
	}
	return exportResult{Path: a.OutputPath, Manifest: manifest}, nil
}

type exportPDFsArgs struct {
	OutputDir string `json:"output_dir"`
}

func (s *Server) handleExportPDFs(args json.RawMessage) (interface{}, error) {
	var a exportPDFsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputDir == "" {
		return nil, errors.New("output_dir is required")
	}

	manifest, err := s.exporter.WritePDFs(a.OutputDir, s.results().Snapshot())
	if err != nil {
		return nil, err
	}
	return exportResult{Path: a.OutputDir, Manifest: manifest}, nil
}
