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
		// Calibration
		{
			Name:        "scalebar_resolve",
			Description: "Find the magnification token (e.g. 40x) in a filename and return its calibration: millimeters per pixel and the scale-bar length in micrometers. Reports why a file would be skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"filename": map[string]interface{}{
						"type":        "string",
						"description": "Image file name or path; only the base name is scanned",
					},
				},
				"required": []string{"filename"},
			},
		},
		{
			Name:        "scalebar_calibrations",
			Description: "List the calibration table, layout constants and the label font in use.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Layout
		{
			Name:        "scalebar_layout",
			Description: "Compute where the scale-bar box, bar and label would be placed on an image of the given size, without reading or writing any file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"filename": map[string]interface{}{
						"type":        "string",
						"description": "File name carrying the magnification token",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Image width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Image height in pixels",
					},
				},
				"required": []string{"filename", "width", "height"},
			},
		},

		// Rendering
		{
			Name:        "scalebar_render",
			Description: "Add a scale bar to one image and save it under the same file name in the output directory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the source image",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for the processed image. Default: a new temporary directory",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "scalebar_process_batch",
			Description: "Add scale bars to a list of images in order, skipping files without a usable magnification, and bundle the results into a zip archive. Returns per-file diagnostics and the archive path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the source images, processed in this order",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for processed images. Default: a new temporary directory",
					},
					"archive_name": map[string]interface{}{
						"type":        "string",
						"description": "Zip file name, written inside output_dir when given, otherwise next to the temporary staging directory. Default processed_images.zip",
					},
					"verify": map[string]interface{}{
						"type":        "boolean",
						"description": "Read each label back with OCR and report mismatches",
						"default":     false,
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "scalebar_preview",
			Description: "Render the scale bar in memory and return the bottom-right region containing it as base64-encoded PNG. Nothing is written to disk.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the source image",
					},
					"context": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels of surrounding image to include around the box (default 40)",
						"default":     40,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned crop. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Quality checks
		{
			Name:        "scalebar_verify",
			Description: "OCR the label of an already processed image and compare it with the label its filename calls for.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to a processed image",
					},
				},
				"required": []string{"path"},
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
