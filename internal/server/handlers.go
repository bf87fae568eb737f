package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pencrop-mcp/internal/geometry"
	pimaging "github.com/ironsheep/pencrop-mcp/internal/imaging"
	"github.com/ironsheep/pencrop-mcp/internal/ocr"
	"github.com/ironsheep/pencrop-mcp/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "crop_session_pan").
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
// A panicking tool is reported the same way and the server keeps running.
func (s *Server) handleToolsCall(req *MCPRequest) (resp *MCPResponse) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("tool", params.Name).Interface("panic", r).Msg("tool panicked")
			resp = s.errorResponse(req.ID, -32000, "Tool execution failed", fmt.Sprintf("panic: %v", r))
		}
	}()

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Msg("tool done")

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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Basic Image Operations
	case "image_load":
		return s.handleImageLoad(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// Crop Sessions
	case "crop_session_start":
		return s.handleSessionStart(args)
	case "crop_session_pan":
		return s.handleSessionPan(args)
	case "crop_session_pinch":
		return s.handleSessionPinch(args)
	case "crop_session_state":
		return s.handleSessionState(args)
	case "crop_session_preview":
		return s.handleSessionPreview(args)
	case "crop_session_finalize":
		return s.handleSessionFinalize(args)
	case "crop_session_cancel":
		return s.handleSessionCancel(args)

	// OCR Operations
	case "image_ocr":
		return s.handleImageOCR(args)
	case "ocr_info":
		return ocr.GetInfo(), nil

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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return pimaging.LoadImageInfo(s.cache, a.Path)
}

type imageCropArgs struct {
	Path string `json:"path"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return pimaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2)
}

// === Crop Session Handlers ===

type sessionStartArgs struct {
	Path          string  `json:"path"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
}

func (s *Server) handleSessionStart(args json.RawMessage) (interface{}, error) {
	var a sessionStartArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	info, err := pimaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}

	display := geometry.Size{W: a.DisplayWidth, H: a.DisplayHeight}
	snap, evicted, err := s.sessions.Create(a.Path, info.Size(), display)
	if err != nil {
		s.releaseImage(a.Path)
		return nil, err
	}
	if evicted != nil {
		s.log.Info().Str("session_id", evicted.ID).Msg("evicted oldest crop session")
		s.releaseImage(evicted.ImagePath)
	}

	s.log.Info().
		Str("session_id", snap.ID).
		Str("path", a.Path).
		Stringer("crop", snap.CropRect).
		Msg("crop session started")
	return snap, nil
}

type sessionPanArgs struct {
	SessionID string  `json:"session_id"`
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	Phase     string  `json:"phase"`
}

func (s *Server) handleSessionPan(args json.RawMessage) (interface{}, error) {
	var a sessionPanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	phase, err := geometry.ParsePhase(a.Phase)
	if err != nil {
		return nil, err
	}
	return s.sessions.Pan(a.SessionID, phase, a.DX, a.DY)
}

type sessionPinchArgs struct {
	SessionID string  `json:"session_id"`
	Scale     float64 `json:"scale"`
	Phase     string  `json:"phase"`
}

func (s *Server) handleSessionPinch(args json.RawMessage) (interface{}, error) {
	var a sessionPinchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	phase, err := geometry.ParsePhase(a.Phase)
	if err != nil {
		return nil, err
	}
	return s.sessions.Pinch(a.SessionID, phase, a.Scale)
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleSessionState(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.sessions.Get(a.SessionID)
}

type sessionPreviewArgs struct {
	SessionID   string `json:"session_id"`
	BorderColor string `json:"border_color"`
	DimOutside  *bool  `json:"dim_outside"`
}

func (s *Server) handleSessionPreview(args json.RawMessage) (interface{}, error) {
	var a sessionPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	snap, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(snap.ImagePath)
	if err != nil {
		return nil, err
	}

	opts := pimaging.OverlayOptions{
		BorderColor: s.cfg.BorderColor,
		BorderWidth: s.cfg.BorderWidth,
		DimOutside:  s.cfg.DimOutside,
	}
	if a.BorderColor != "" {
		opts.BorderColor = a.BorderColor
	}
	if a.DimOutside != nil {
		opts.DimOutside = *a.DimOutside
	}
	return pimaging.RenderOverlayResult(img, snap.Display, snap.CropRect, opts)
}

type sessionFinalizeArgs struct {
	SessionID    string `json:"session_id"`
	OutputPath   string `json:"output_path"`
	IncludeImage *bool  `json:"include_image"`
	OCR          bool   `json:"ocr"`
	Language     string `json:"language"`
	Enhance      *bool  `json:"enhance"`
}

// FinalizeResult is returned by crop_session_finalize.
type FinalizeResult struct {
	session.Result

	// Cropped is false when the degenerate crop fell back to the full photo.
	Cropped bool `json:"cropped"`

	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`

	OCR *ocr.OCRResult `json:"ocr,omitempty"`
}

func (s *Server) handleSessionFinalize(args json.RawMessage) (interface{}, error) {
	var a sessionFinalizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	// The session is closed only once every step succeeded, so a failed save
	// or OCR can be retried.
	res, err := s.sessions.Finalize(a.SessionID)
	if err != nil {
		return nil, err
	}

	logger := s.log.With().Str("session_id", res.ID).Str("state", res.State).Logger()

	img, err := s.cache.Load(res.ImagePath)
	if err != nil {
		return nil, err
	}
	out, cropped := pimaging.ApplyCrop(img, res.SourceRect)
	if !cropped {
		logger.Info().Stringer("source_rect", res.SourceRect).Msg("degenerate crop, keeping original image")
	}

	result := &FinalizeResult{
		Result:  res,
		Cropped: cropped,
		Width:   out.Bounds().Dx(),
		Height:  out.Bounds().Dy(),
	}

	if a.OutputPath != "" {
		if err := pimaging.Save(out, a.OutputPath); err != nil {
			return nil, err
		}
		result.OutputPath = a.OutputPath
	}

	if a.IncludeImage == nil || *a.IncludeImage {
		encoded, err := pimaging.EncodePNGBase64(out)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cropped image: %w", err)
		}
		result.ImageBase64 = encoded
		result.MimeType = "image/png"
	}

	if a.OCR {
		text, err := s.recognize(out, a.Language, a.Enhance)
		if err != nil {
			return nil, err
		}
		result.OCR = text
	}

	if err := s.sessions.Close(res.ID); err != nil {
		return nil, err
	}
	s.releaseImage(res.ImagePath)

	logger.Info().
		Stringer("source_rect", res.SourceRect).
		Bool("cropped", cropped).
		Msg("crop session finalized")
	return result, nil
}

func (s *Server) handleSessionCancel(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	snap, err := s.sessions.Cancel(a.SessionID)
	if err != nil {
		return nil, err
	}
	s.releaseImage(snap.ImagePath)

	s.log.Info().Str("session_id", snap.ID).Str("state", snap.State).Msg("crop session cancelled")
	return snap, nil
}

// releaseImage drops a decoded photo from the cache once no open session
// refers to it.
func (s *Server) releaseImage(path string) {
	if s.sessions.ImagePaths()[path] {
		return
	}
	s.cache.Evict(path)
}

// === OCR Handlers ===

type ocrRegion struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

type imageOCRArgs struct {
	Path     string     `json:"path"`
	Language string     `json:"language"`
	Enhance  *bool      `json:"enhance"`
	Region   *ocrRegion `json:"region"`
}

// handleImageOCR transcribes a photo or a region of it. Without enhancement
// word bounds are in image coordinates; with enhancement they refer to the
// enhanced crop.
func (s *Server) handleImageOCR(args json.RawMessage) (interface{}, error) {
	var a imageOCRArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Region == nil {
		return s.recognize(img, a.Language, a.Enhance)
	}

	region := image.Rect(a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2)
	if region.Empty() || !region.In(img.Bounds()) {
		return nil, fmt.Errorf("OCR region %v outside image bounds %v", region, img.Bounds())
	}
	if !s.enhanceEnabled(a.Enhance) {
		return ocr.ExtractTextFromRegion(img, region, s.language(a.Language))
	}
	return s.recognize(imaging.Crop(img, region), a.Language, a.Enhance)
}

// recognize runs OCR with the server's language and enhancement defaults.
func (s *Server) recognize(img image.Image, language string, enhance *bool) (*ocr.OCRResult, error) {
	if s.enhanceEnabled(enhance) {
		img = pimaging.Enhance(img, pimaging.DefaultEnhanceOptions())
	}
	return ocr.Recognize(img, s.language(language))
}

func (s *Server) enhanceEnabled(override *bool) bool {
	if override != nil {
		return *override
	}
	return s.cfg.Enhance
}

func (s *Server) language(lang string) string {
	if lang != "" {
		return lang
	}
	if s.cfg.Language != "" {
		return s.cfg.Language
	}
	return ocr.DefaultLanguage
}
