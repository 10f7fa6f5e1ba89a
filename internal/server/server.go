package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/export"
	"github.com/ironsheep/docscan-mcp/internal/pipeline"
	"github.com/ironsheep/docscan-mcp/internal/session"
	"github.com/ironsheep/docscan-mcp/internal/store"
)

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	session  *session.Session
	exporter *export.Exporter
	logger   *log.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance with an empty result store.
// A nil logger uses the standard logger.
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	p, err := pipeline.New(cfg, store.New(cfg.Checklist), logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		session:  session.New(p, logger),
		exporter: export.New(cfg.ArchiveLimitBytes, logger),
		logger:   logger,
	}, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w until r is exhausted or ctx is cancelled.
//
// Reading happens on a separate goroutine so cancellation is noticed while
// r is idle. That goroutine stays blocked in Read until r returns.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)
	go s.readLines(ctx, r, lines, errc)

	encoder := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errc:
			if err != nil {
				return fmt.Errorf("scanner error: %w", err)
			}
			return nil

		case line := <-lines:
			if err := ctx.Err(); err != nil {
				return err
			}

			var req MCPRequest
			if err := json.Unmarshal(line, &req); err != nil {
				s.logger.Printf("Failed to parse request: %v", err)
				continue
			}

			resp := s.handleRequest(ctx, &req)
			if resp != nil {
				if err := encoder.Encode(resp); err != nil {
					s.logger.Printf("Failed to encode response: %v", err)
				}
			}
		}
	}
}

// readLines sends each non-empty line of r on lines, then the scanner
// result on errc.
func (s *Server) readLines(ctx context.Context, r io.Reader, lines chan<- []byte, errc chan<- error) {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		line := append([]byte(nil), scanner.Bytes()...)

		select {
		case lines <- line:
		case <-ctx.Done():
			return
		}
	}
	errc <- scanner.Err()
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    s.cfg.ServerName,
				"version": s.cfg.Version,
			},
		},
	}
}
