package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Checklist
		{
			Name:        "checklist_list",
			Description: "List the documents to capture, in checklist order, with their quality tier and current scan status.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "document_status",
			Description: "Get the stored result for one document, or a summary of every document when no name is given. Optionally includes the stored image as base64 JPEG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"document": map[string]interface{}{
						"type":        "string",
						"description": "Checklist document name. Omit for a summary of all documents.",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the stored JPEG as base64. Requires document. Default false",
						"default":     false,
					},
				},
			},
		},

		// Capture
		{
			Name:        "document_scan",
			Description: "Capture a photo for a checklist document. The document outline is detected and the page is flattened; when no outline is found the original photo is stored as a fallback.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"document": map[string]interface{}{
						"type":        "string",
						"description": "Checklist document name",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photo",
					},
				},
				"required": []string{"document", "path"},
			},
		},
		{
			Name:        "document_rescan",
			Description: "Run the stored image for a document through detection and flattening again.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"document": map[string]interface{}{
						"type":        "string",
						"description": "Checklist document name",
					},
				},
				"required": []string{"document"},
			},
		},
		{
			Name:        "document_crop",
			Description: "Manually crop the stored image for a document and store the result. Use this when automatic detection fell back to the original photo. The document must have been scanned first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"document": map[string]interface{}{
						"type":        "string",
						"description": "Checklist document name",
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
				},
				"required": []string{"document", "x1", "y1", "x2", "y2"},
			},
		},

		// Diagnostics
		{
			Name:        "document_detect",
			Description: "Detect the document outline in a photo without storing anything. Returns the photo size, format and file size, the ordered corners and the flattened output size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photo",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_edge_map",
			Description: "Return the edge map the document detector sees for a photo, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photo",
					},
				},
				"required": []string{"path"},
			},
		},

		// Export
		{
			Name:        "export_zip",
			Description: "Write every stored document image into a ZIP archive as <index>_<document>.jpg.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the archive to write",
					},
				},
				"required": []string{"output_path"},
			},
		},
		{
			Name:        "export_pdfs",
			Description: "Write one single-page PDF per stored document image as <index>_<document>.pdf.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the directory to write into",
					},
				},
				"required": []string{"output_dir"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
