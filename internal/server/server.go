package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/scalebar-mcp/internal/calibration"
	"github.com/ironsheep/scalebar-mcp/internal/config"
	"github.com/ironsheep/scalebar-mcp/internal/overlay"
)

// ServerName and ServerVersion are reported in the initialize handshake.
const (
	ServerName    = "scalebar-mcp"
	ServerVersion = "0.1.0"
)

// Server handles MCP protocol communication
type Server struct {
	cfg        *config.Config
	table      *calibration.Table
	compositor *overlay.Compositor
	logger     *log.Logger
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

// New creates a server from cfg. A nil cfg means config.Default(). The label
// font is loaded once here; a missing preferred font is logged and the
// built-in font is used for every render.
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}

	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}
	style, err := cfg.Style()
	if err != nil {
		return nil, err
	}

	f := overlay.LoadFont(cfg.FontOptions())
	if f.Degraded {
		logger.Printf("Preferred font unavailable, using %s: %s", f.Source, f.Reason)
	}

	return &Server{
		cfg:        cfg,
		table:      table,
		compositor: overlay.NewCompositor(cfg.Layout, f, style),
		logger:     logger,
	}, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w
// until r is exhausted. Requests are handled one at a time.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Batch requests can list many paths
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
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
				"name":    ServerName,
				"version": ServerVersion,
			},
		},
	}
}
