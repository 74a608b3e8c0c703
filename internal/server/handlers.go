package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ironsheep/scalebar-mcp/internal/batch"
	"github.com/ironsheep/scalebar-mcp/internal/calibration"
	"github.com/ironsheep/scalebar-mcp/internal/imaging"
	"github.com/ironsheep/scalebar-mcp/internal/overlay"
	"github.com/ironsheep/scalebar-mcp/internal/verify"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "scalebar_resolve").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Resolves the magnification from the file name
//  4. Calls the calibration/overlay/batch/verify function
//  5. Returns the result or error
//
// A file that would be skipped in a batch is not an error here; the skip
// reason is part of the result.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Calibration
	case "scalebar_resolve":
		return s.handleResolve(args)
	case "scalebar_calibrations":
		return s.handleCalibrations(args)

	// Layout
	case "scalebar_layout":
		return s.handleLayout(args)

	// Rendering
	case "scalebar_render":
		return s.handleRender(args)
	case "scalebar_process_batch":
		return s.handleProcessBatch(args)
	case "scalebar_preview":
		return s.handlePreview(args)

	// Quality checks
	case "scalebar_verify":
		return s.handleVerify(args)

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

// unmarshalArgs decodes tool arguments. Tools without required arguments may
// be called with none at all.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

// skipInfo describes why a file would not be processed.
type skipInfo struct {
	Reason        string `json:"reason"`
	Message       string `json:"message"`
	Magnification int    `json:"magnification,omitempty"`
}

// resolve looks up the calibration for filename. A skip is returned as info,
// not as an error.
func (s *Server) resolve(filename string) (calibration.Entry, *skipInfo) {
	base := filepath.Base(filename)
	entry, err := s.table.Resolve(base)
	if err == nil {
		return entry, nil
	}
	var skip *calibration.SkipError
	if errors.As(err, &skip) {
		return calibration.Entry{}, &skipInfo{
			Reason:        skip.Reason,
			Message:       skip.Message(base),
			Magnification: skip.Magnification,
		}
	}
	return calibration.Entry{}, &skipInfo{Reason: err.Error(), Message: base + ": " + err.Error()}
}

// === Calibration Handlers ===

type resolveArgs struct {
	Filename string `json:"filename"`
}

type resolveResult struct {
	Filename string             `json:"filename"`
	Tokens   []int              `json:"tokens"`
	Entry    *calibration.Entry `json:"entry,omitempty"`
	Label    string             `json:"label,omitempty"`
	// ScaleLengthPx is the bar length in pixels for the resolved entry.
	ScaleLengthPx int `json:"scale_length_px,omitempty"`
	// Ambiguous is set when the name carries more than one token; the
	// leftmost one is used.
	Ambiguous bool      `json:"ambiguous"`
	Skip      *skipInfo `json:"skip,omitempty"`
}

func (s *Server) handleResolve(args json.RawMessage) (interface{}, error) {
	var a resolveArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}

	base := filepath.Base(a.Filename)
	tokens := calibration.Tokens(base)
	result := &resolveResult{
		Filename:  base,
		Tokens:    tokens,
		Ambiguous: len(tokens) > 1,
	}

	entry, skip := s.resolve(base)
	if skip != nil {
		result.Skip = skip
		return result, nil
	}
	result.Entry = &entry
	result.Label = overlay.Label(entry)
	result.ScaleLengthPx = entry.ScaleLengthPx()
	return result, nil
}

type calibrationsResult struct {
	Entries []calibrationRow   `json:"entries"`
	Layout  overlay.LayoutSpec `json:"layout"`
	Font    fontInfo           `json:"font"`
	Colors  colorInfo          `json:"colors"`
}

type calibrationRow struct {
	calibration.Entry
	Label         string `json:"label"`
	ScaleLengthPx int    `json:"scale_length_px"`
}

type fontInfo struct {
	Source   string  `json:"source"`
	Size     float64 `json:"size"`
	Degraded bool    `json:"degraded"`
	Reason   string  `json:"reason,omitempty"`
}

type colorInfo struct {
	Box string `json:"box"`
	Ink string `json:"ink"`
}

func (s *Server) handleCalibrations(args json.RawMessage) (interface{}, error) {
	var a struct{}
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	entries := s.table.Entries()
	rows := make([]calibrationRow, len(entries))
	for i, e := range entries {
		rows[i] = calibrationRow{Entry: e, Label: overlay.Label(e), ScaleLengthPx: e.ScaleLengthPx()}
	}

	f := s.compositor.Font()
	style := s.compositor.Style()
	return &calibrationsResult{
		Entries: rows,
		Layout:  s.compositor.Spec(),
		Font: fontInfo{
			Source:   f.Source,
			Size:     s.cfg.FontOptions().Size,
			Degraded: f.Degraded,
			Reason:   f.Reason,
		},
		Colors: colorInfo{
			Box: imaging.HexString(style.Box),
			Ink: imaging.HexString(style.Ink),
		},
	}, nil
}

// === Layout Handlers ===

type layoutArgs struct {
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type layoutResult struct {
	Filename string            `json:"filename"`
	Geometry *overlay.Geometry `json:"geometry,omitempty"`
	// InBounds is false when the box does not fit inside the image; drawing
	// is clipped in that case.
	InBounds bool      `json:"in_bounds"`
	Skip     *skipInfo `json:"skip,omitempty"`
}

func (s *Server) handleLayout(args json.RawMessage) (interface{}, error) {
	var a layoutArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, fmt.Errorf("width and height must be positive, got %dx%d", a.Width, a.Height)
	}

	result := &layoutResult{Filename: filepath.Base(a.Filename)}
	entry, skip := s.resolve(a.Filename)
	if skip != nil {
		result.Skip = skip
		return result, nil
	}

	bounds := image.Rect(0, 0, a.Width, a.Height)
	g := s.compositor.Layout(bounds, entry)
	result.Geometry = &g
	result.InBounds = g.InBounds(bounds)
	return result, nil
}

// === Rendering Handlers ===

type renderArgs struct {
	Path      string `json:"path"`
	OutputDir string `json:"output_dir"`
}

type renderResult struct {
	Source       string            `json:"source"`
	OutputPath   string            `json:"output_path,omitempty"`
	Geometry     *overlay.Geometry `json:"geometry,omitempty"`
	FontDegraded bool              `json:"font_degraded"`
	Skip         *skipInfo         `json:"skip,omitempty"`
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	result := &renderResult{Source: a.Path, FontDegraded: s.compositor.Font().Degraded}
	img, entry, skip, err := s.loadForRender(a.Path)
	if err != nil {
		return nil, err
	}
	if skip != nil {
		result.Skip = skip
		return result, nil
	}

	outDir := a.OutputDir
	if outDir == "" {
		if outDir, err = os.MkdirTemp("", "scalebar-*"); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	g := s.compositor.Render(img, entry)
	outPath := filepath.Join(outDir, filepath.Base(a.Path))
	if err := imaging.Save(img, outPath, s.cfg.EncodeOptions()); err != nil {
		return nil, err
	}
	s.logger.Printf("Rendered %s (%s)", outPath, g.Label)

	result.OutputPath = outPath
	result.Geometry = &g
	return result, nil
}

// loadForRender resolves path before touching the file, so skipped files are
// never decoded.
func (s *Server) loadForRender(path string) (*image.RGBA, calibration.Entry, *skipInfo, error) {
	base := filepath.Base(path)
	entry, skip := s.resolve(base)
	if skip != nil {
		return nil, calibration.Entry{}, skip, nil
	}
	if !imaging.SupportedExtension(base) {
		return nil, calibration.Entry{}, &skipInfo{
			Reason:  batch.ReasonUnsupportedFormat,
			Message: fmt.Sprintf("%s: Unsupported image format.", base),
		}, nil
	}
	img, err := imaging.Load(path)
	if err != nil {
		return nil, calibration.Entry{}, nil, err
	}
	return img, entry, nil, nil
}

type processBatchArgs struct {
	Paths       []string `json:"paths"`
	OutputDir   string   `json:"output_dir"`
	ArchiveName string   `json:"archive_name"`
	Verify      *bool    `json:"verify"`
}

func (s *Server) handleProcessBatch(args json.RawMessage) (interface{}, error) {
	var a processBatchArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must list at least one image")
	}
	if a.ArchiveName == "" {
		a.ArchiveName = s.cfg.Output.ArchiveName
	}
	doVerify := s.cfg.Verify.Enabled
	if a.Verify != nil {
		doVerify = *a.Verify
	}

	inputs := make([]batch.Input, len(a.Paths))
	for i, p := range a.Paths {
		inputs[i] = batch.FileInput(p)
	}

	p := batch.New(s.table, s.compositor, batch.Options{
		OutputDir:      a.OutputDir,
		ArchiveName:    a.ArchiveName,
		Encode:         s.cfg.EncodeOptions(),
		Verify:         doVerify,
		VerifyLanguage: s.cfg.Verify.Language,
		Logger:         s.logger,
	})
	return p.Run(context.Background(), inputs)
}

type previewArgs struct {
	Path    string  `json:"path"`
	Context *int    `json:"context"`
	Scale   float64 `json:"scale"`
}

type previewResult struct {
	Geometry *overlay.Geometry   `json:"geometry,omitempty"`
	Crop     *imaging.CropResult `json:"crop,omitempty"`
	Skip     *skipInfo           `json:"skip,omitempty"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	pad := 40
	if a.Context != nil {
		pad = max(*a.Context, 0)
	}

	img, entry, skip, err := s.loadForRender(a.Path)
	if err != nil {
		return nil, err
	}
	if skip != nil {
		return &previewResult{Skip: skip}, nil
	}

	g := s.compositor.Render(img, entry)
	crop, err := imaging.Crop(img, g.Box.Inset(-pad), a.Scale)
	if err != nil {
		return nil, err
	}
	return &previewResult{Geometry: &g, Crop: crop}, nil
}

// === Quality Check Handlers ===

type verifyArgs struct {
	Path string `json:"path"`
}

type verifyResult struct {
	Path     string            `json:"path"`
	Geometry *overlay.Geometry `json:"geometry,omitempty"`
	Result   *verify.Result    `json:"result,omitempty"`
	Skip     *skipInfo         `json:"skip,omitempty"`
}

func (s *Server) handleVerify(args json.RawMessage) (interface{}, error) {
	var a verifyArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	img, entry, skip, err := s.loadForRender(a.Path)
	if err != nil {
		return nil, err
	}
	if skip != nil {
		return &verifyResult{Path: a.Path, Skip: skip}, nil
	}

	g := s.compositor.Layout(img.Bounds(), entry)
	res, err := verify.Label(img, g, verify.Options{
		Language:   s.cfg.Verify.Language,
		Background: s.compositor.Style().Box,
	})
	if err != nil {
		return nil, err
	}
	return &verifyResult{Path: a.Path, Geometry: &g, Result: res}, nil
}
