package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Crop session ID returned by crop_session_start",
	}
}

func phaseProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"began", "changed", "ended", "cancelled"},
		"description": "Gesture phase. Default changed",
		"default":     "changed",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load a photo and return its upright dimensions (EXIF orientation applied) and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular pixel region from an image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
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
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Crop Sessions
		{
			Name:        "crop_session_start",
			Description: "Start an interactive crop of a photo shown aspect-fit on a display of the given size. Returns a session ID and the initial crop square (80% of the shorter display side, centered).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"display_width": map[string]interface{}{
						"type":        "number",
						"description": "Width of the display surface showing the photo",
					},
					"display_height": map[string]interface{}{
						"type":        "number",
						"description": "Height of the display surface showing the photo",
					},
				},
				"required": []string{"path", "display_width", "display_height"},
			},
		},
		{
			Name:        "crop_session_pan",
			Description: "Move the crop rectangle by the translation since the previous pan event. The rectangle is clamped to the display.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"dx": map[string]interface{}{
						"type":        "number",
						"description": "Horizontal translation in display units",
					},
					"dy": map[string]interface{}{
						"type":        "number",
						"description": "Vertical translation in display units",
					},
					"phase": phaseProperty(),
				},
				"required": []string{"session_id", "dx", "dy"},
			},
		},
		{
			Name:        "crop_session_pinch",
			Description: "Resize the square crop rectangle around its center by a scale factor relative to its current size (1.05 grows by 5%). Only changed events resize.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Multiplicative scale factor since the previous pinch event",
					},
					"phase": phaseProperty(),
				},
				"required": []string{"session_id", "scale"},
			},
		},
		{
			Name:        "crop_session_state",
			Description: "Return the current crop rectangle, the visible image region and the session state.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "crop_session_preview",
			Description: "Render the display as the user sees it: the photo aspect-fit with the crop outline, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"border_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (e.g. #ffffff). Defaults to the server setting",
					},
					"dim_outside": map[string]interface{}{
						"type":        "boolean",
						"description": "Shade the area outside the crop rectangle",
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "crop_session_finalize",
			Description: "Finish the crop: map the rectangle to source pixels, cut the photo, optionally save it and transcribe it. A crop outside the visible image keeps the uncropped photo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the result (.png, .jpg, .gif, .webp)",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the result as base64-encoded PNG. Default true",
						"default":     true,
					},
					"ocr": map[string]interface{}{
						"type":        "boolean",
						"description": "Transcribe the result with OCR",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Defaults to the server setting",
					},
					"enhance": map[string]interface{}{
						"type":        "boolean",
						"description": "Enhance handwriting before OCR. Defaults to the server setting",
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "crop_session_cancel",
			Description: "Abandon a crop session. The photo stays uncropped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
				},
				"required": []string{"session_id"},
			},
		},

		// OCR
		{
			Name:        "image_ocr",
			Description: "Transcribe the text in a photo, or in a pixel region of it. Lines are joined with newlines.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Defaults to the server setting",
					},
					"enhance": map[string]interface{}{
						"type":        "boolean",
						"description": "Enhance handwriting before OCR. Defaults to the server setting",
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional pixel region {x1, y1, x2, y2}",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report whether the OCR backend is available and its version.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
