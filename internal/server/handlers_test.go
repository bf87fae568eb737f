package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/pencrop-mcp/internal/session"
)

// createTestImageFile creates a solid color PNG and returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the JSON text content.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	paramsJSON, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %+v", content)
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return out, nil
}

func mustCallTool(t *testing.T, s *Server, name string, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	out, rpcErr := callTool(t, s, name, args)
	if rpcErr != nil {
		t.Fatalf("%s: unexpected error: %s: %v", name, rpcErr.Message, rpcErr.Data)
	}
	return out
}

func rectOf(t *testing.T, v interface{}) [4]float64 {
	t.Helper()
	m, ok := v.(map[string]interface{})
	if !ok {
		t.Fatalf("not a rect: %v", v)
	}
	return [4]float64{
		m["x"].(float64),
		m["y"].(float64),
		m["width"].(float64),
		m["height"].(float64),
	}
}

func approxRect(a, b [4]float64) bool {
	for i := range a {
		d := a[i] - b[i]
		if d < -1e-6 || d > 1e-6 {
			return false
		}
	}
	return true
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	out := mustCallTool(t, s, "image_load", map[string]interface{}{"path": imgPath})

	if out["width"] != float64(100) || out["height"] != float64(80) {
		t.Errorf("dimensions: got %vx%v, want 100x80", out["width"], out["height"])
	}
	if out["format"] != "png" {
		t.Errorf("format: got %v, want png", out["format"])
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(t)

	_, rpcErr := callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})
	if rpcErr == nil {
		t.Fatal("expected error for missing file")
	}
	if rpcErr.Code != -32000 {
		t.Errorf("Code: got %d, want -32000", rpcErr.Code)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t)

	_, rpcErr := callTool(t, s, "nonexistent_tool", map[string]interface{}{})
	if rpcErr == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(rpcErr.Data.(string), "unknown tool") {
		t.Errorf("Data: got %v", rpcErr.Data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 1, Params: json.RawMessage(`[1,2]`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_Crop(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 100, color.RGBA{0, 0, 255, 255})

	out := mustCallTool(t, s, "image_crop", map[string]interface{}{
		"path": imgPath, "x1": 10, "y1": 10, "x2": 50, "y2": 30,
	})
	if out["width"] != float64(40) || out["height"] != float64(20) {
		t.Errorf("size: got %vx%v, want 40x20", out["width"], out["height"])
	}
	if out["image_base64"] == "" {
		t.Error("image_base64 is empty")
	}

	_, rpcErr := callTool(t, s, "image_crop", map[string]interface{}{
		"path": imgPath, "x1": 50, "y1": 10, "x2": 150, "y2": 30,
	})
	if rpcErr == nil {
		t.Error("expected error for region outside image")
	}
}

func TestCropSession_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	// Same aspect as the 300x400 display, so nothing is letterboxed.
	imgPath := createTestImageFile(t, 120, 160, color.RGBA{200, 200, 200, 255})

	start := mustCallTool(t, s, "crop_session_start", map[string]interface{}{
		"path": imgPath, "display_width": 300, "display_height": 400,
	})
	id, _ := start["session_id"].(string)
	if id == "" {
		t.Fatalf("no session_id in %v", start)
	}
	// No gesture yet.
	if start["state"] != "idle" {
		t.Errorf("state: got %v, want idle", start["state"])
	}
	if got := rectOf(t, start["crop_rect"]); !approxRect(got, [4]float64{30, 80, 240, 240}) {
		t.Errorf("initial crop: got %v", got)
	}
	if got := rectOf(t, start["visible_region"]); !approxRect(got, [4]float64{0, 0, 300, 400}) {
		t.Errorf("visible region: got %v", got)
	}

	pan := mustCallTool(t, s, "crop_session_pan", map[string]interface{}{
		"session_id": id, "dx": 50, "dy": 0,
	})
	if got := rectOf(t, pan["crop_rect"]); !approxRect(got, [4]float64{60, 80, 240, 240}) {
		t.Errorf("after pan: got %v", got)
	}
	if pan["state"] != "active" {
		t.Errorf("state after pan: got %v, want active", pan["state"])
	}

	state := mustCallTool(t, s, "crop_session_state", map[string]interface{}{"session_id": id})
	if got := rectOf(t, state["crop_rect"]); !approxRect(got, [4]float64{60, 80, 240, 240}) {
		t.Errorf("state: got %v", got)
	}

	preview := mustCallTool(t, s, "crop_session_preview", map[string]interface{}{
		"session_id": id, "dim_outside": true,
	})
	if preview["width"] != float64(300) || preview["height"] != float64(400) {
		t.Errorf("preview size: got %vx%v, want 300x400", preview["width"], preview["height"])
	}
	if preview["mime_type"] != "image/png" {
		t.Errorf("preview mime_type: got %v", preview["mime_type"])
	}

	outPath := filepath.Join(t.TempDir(), "out", "crop.png")
	fin := mustCallTool(t, s, "crop_session_finalize", map[string]interface{}{
		"session_id": id, "output_path": outPath,
	})
	if fin["state"] != "finalized" {
		t.Errorf("state: got %v, want finalized", fin["state"])
	}
	// Display to source scale is 0.4.
	if got := rectOf(t, fin["source_rect"]); !approxRect(got, [4]float64{24, 32, 96, 96}) {
		t.Errorf("source rect: got %v", got)
	}
	if fin["degenerate"] != false || fin["cropped"] != true {
		t.Errorf("degenerate=%v cropped=%v", fin["degenerate"], fin["cropped"])
	}
	if fin["width"] != float64(96) || fin["height"] != float64(96) {
		t.Errorf("cropped size: got %vx%v, want 96x96", fin["width"], fin["height"])
	}
	if fin["image_base64"] == nil {
		t.Error("image_base64 missing")
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output not saved: %v", err)
	}

	// The session is gone after finalize.
	if _, rpcErr := callTool(t, s, "crop_session_state", map[string]interface{}{"session_id": id}); rpcErr == nil {
		t.Error("expected error for finalized session")
	}
	if n := s.cache.Len(); n != 0 {
		t.Errorf("cache should be empty after the last session closed, has %d", n)
	}
}

func TestCropSession_PinchPhases(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 60, 80, color.White)

	start := mustCallTool(t, s, "crop_session_start", map[string]interface{}{
		"path": imgPath, "display_width": 300, "display_height": 400,
	})
	id := start["session_id"].(string)

	began := mustCallTool(t, s, "crop_session_pinch", map[string]interface{}{
		"session_id": id, "scale": 2.0, "phase": "began",
	})
	if got := rectOf(t, began["crop_rect"]); !approxRect(got, [4]float64{30, 80, 240, 240}) {
		t.Errorf("began should not resize: got %v", got)
	}

	// The held 2.0 combines with the first change.
	changed := mustCallTool(t, s, "crop_session_pinch", map[string]interface{}{
		"session_id": id, "scale": 0.25,
	})
	if got := rectOf(t, changed["crop_rect"]); !approxRect(got, [4]float64{90, 140, 120, 120}) {
		t.Errorf("changed: got %v", got)
	}

	_, rpcErr := callTool(t, s, "crop_session_pinch", map[string]interface{}{
		"session_id": id, "scale": 0.5, "phase": "wiggle",
	})
	if rpcErr == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestCropSession_DegenerateFallback(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 100, color.RGBA{10, 20, 30, 255})

	start := mustCallTool(t, s, "crop_session_start", map[string]interface{}{
		"path": imgPath, "display_width": 200, "display_height": 100,
	})
	id := start["session_id"].(string)
	if got := rectOf(t, start["visible_region"]); !approxRect(got, [4]float64{50, 0, 100, 100}) {
		t.Errorf("visible region: got %v", got)
	}

	// Shrink to 40 units and push into the left pillarbox margin.
	mustCallTool(t, s, "crop_session_pinch", map[string]interface{}{"session_id": id, "scale": 0.5})
	pan := mustCallTool(t, s, "crop_session_pan", map[string]interface{}{"session_id": id, "dx": -1000, "dy": 0})
	if got := rectOf(t, pan["crop_rect"]); !approxRect(got, [4]float64{0, 30, 40, 40}) {
		t.Fatalf("crop: got %v", got)
	}

	fin := mustCallTool(t, s, "crop_session_finalize", map[string]interface{}{
		"session_id": id, "include_image": false,
	})
	if fin["degenerate"] != true {
		t.Errorf("degenerate: got %v, want true", fin["degenerate"])
	}
	if fin["cropped"] != false {
		t.Errorf("cropped: got %v, want false", fin["cropped"])
	}
	if fin["width"] != float64(100) || fin["height"] != float64(100) {
		t.Errorf("fallback size: got %vx%v, want 100x100", fin["width"], fin["height"])
	}
	if _, ok := fin["image_base64"]; ok {
		t.Error("image_base64 should be omitted when include_image is false")
	}
}

func TestCropSession_Cancel(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 50, 50, color.Black)

	start := mustCallTool(t, s, "crop_session_start", map[string]interface{}{
		"path": imgPath, "display_width": 100, "display_height": 100,
	})
	id := start["session_id"].(string)

	out := mustCallTool(t, s, "crop_session_cancel", map[string]interface{}{"session_id": id})
	if out["state"] != "cancelled" {
		t.Errorf("state: got %v, want cancelled", out["state"])
	}

	for _, tool := range []string{"crop_session_pan", "crop_session_finalize", "crop_session_cancel"} {
		_, rpcErr := callTool(t, s, tool, map[string]interface{}{"session_id": id, "dx": 1, "dy": 1})
		if rpcErr == nil {
			t.Errorf("%s after cancel: expected error", tool)
			continue
		}
		if !strings.Contains(rpcErr.Data.(string), "not found") {
			t.Errorf("%s: Data %v", tool, rpcErr.Data)
		}
	}
}

func TestCropSession_InvalidDisplay(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 50, 50, color.Black)

	tests := []struct {
		name string
		w, h float64
	}{
		{"zero width", 0, 100},
		{"negative height", 100, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rpcErr := callTool(t, s, "crop_session_start", map[string]interface{}{
				"path": imgPath, "display_width": tt.w, "display_height": tt.h,
			})
			if rpcErr == nil {
				t.Fatal("expected error")
			}
			if rpcErr.Code != -32000 {
				t.Errorf("Code: got %d, want -32000", rpcErr.Code)
			}
		})
	}
	if s.sessions.Len() != 0 {
		t.Errorf("no session should be open, have %d", s.sessions.Len())
	}
	if s.cache.Len() != 0 {
		t.Errorf("photo of a rejected session should not stay cached, have %d", s.cache.Len())
	}
}

func TestCropSession_FinalizeRetryAfterFailedSave(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 120, 160, color.White)

	start := mustCallTool(t, s, "crop_session_start", map[string]interface{}{
		"path": imgPath, "display_width": 300, "display_height": 400,
	})
	id := start["session_id"].(string)
	mustCallTool(t, s, "crop_session_pan", map[string]interface{}{"session_id": id, "dx": 50, "dy": 0})

	// A regular file where a directory is expected makes the save fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, rpcErr := callTool(t, s, "crop_session_finalize", map[string]interface{}{
		"session_id": id, "output_path": filepath.Join(blocker, "crop.png"),
	})
	if rpcErr == nil {
		t.Fatal("expected save error")
	}

	state := mustCallTool(t, s, "crop_session_state", map[string]interface{}{"session_id": id})
	if state["state"] != "finalized" {
		t.Errorf("state after failed finalize: got %v, want finalized", state["state"])
	}

	outPath := filepath.Join(t.TempDir(), "crop.png")
	fin := mustCallTool(t, s, "crop_session_finalize", map[string]interface{}{
		"session_id": id, "output_path": outPath, "include_image": false,
	})
	if got := rectOf(t, fin["source_rect"]); !approxRect(got, [4]float64{24, 32, 96, 96}) {
		t.Errorf("source rect on retry: got %v", got)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output not saved: %v", err)
	}
	if s.sessions.Len() != 0 {
		t.Errorf("session should close after a successful finalize, have %d", s.sessions.Len())
	}
}

func TestCropSession_PreviewLargeDisplay(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 40, 40, color.White)

	start := mustCallTool(t, s, "crop_session_start", map[string]interface{}{
		"path": imgPath, "display_width": 1e10, "display_height": 1e10,
	})
	id := start["session_id"].(string)

	preview := mustCallTool(t, s, "crop_session_preview", map[string]interface{}{"session_id": id})
	if preview["width"] != float64(4096) || preview["height"] != float64(4096) {
		t.Errorf("preview size: got %vx%v, want 4096x4096", preview["width"], preview["height"])
	}

	// The server keeps serving afterwards.
	mustCallTool(t, s, "crop_session_state", map[string]interface{}{"session_id": id})
}

func TestHandleToolsCall_RecoversFromPanic(t *testing.T) {
	s := newTestServer(t)
	s.sessions = nil

	_, rpcErr := callTool(t, s, "crop_session_state", map[string]interface{}{"session_id": "x"})
	if rpcErr == nil {
		t.Fatal("expected error from panicking tool")
	}
	if rpcErr.Code != -32000 {
		t.Errorf("Code: got %d, want -32000", rpcErr.Code)
	}
	if !strings.HasPrefix(rpcErr.Data.(string), "panic: ") {
		t.Errorf("Data: got %v", rpcErr.Data)
	}

	// Later requests are still answered.
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 2, Method: "ping"})
	if resp == nil || resp.Error != nil {
		t.Errorf("ping after panic: %+v", resp)
	}
}

func TestCropSession_EvictsOldest(t *testing.T) {
	s := newTestServer(t)
	s.sessions = session.NewStore(2)
	imgPath := createTestImageFile(t, 50, 50, color.Black)

	var ids []string
	for i := 0; i < 3; i++ {
		out := mustCallTool(t, s, "crop_session_start", map[string]interface{}{
			"path": imgPath, "display_width": 100, "display_height": 100,
		})
		ids = append(ids, out["session_id"].(string))
	}

	if _, rpcErr := callTool(t, s, "crop_session_state", map[string]interface{}{"session_id": ids[0]}); rpcErr == nil {
		t.Error("oldest session should have been evicted")
	}
	for _, id := range ids[1:] {
		mustCallTool(t, s, "crop_session_state", map[string]interface{}{"session_id": id})
	}
	// The shared photo stays cached while sessions still use it.
	if s.cache.Len() != 1 {
		t.Errorf("cache: got %d images, want 1", s.cache.Len())
	}
}

func TestHandleToolsCall_OCRRegionOutOfBounds(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 50, 50, color.White)

	_, rpcErr := callTool(t, s, "image_ocr", map[string]interface{}{
		"path":   imgPath,
		"region": map[string]interface{}{"x1": 40, "y1": 40, "x2": 80, "y2": 80},
	})
	if rpcErr == nil {
		t.Fatal("expected error for region outside image")
	}
}

func TestHandleToolsCall_OCRInfo(t *testing.T) {
	s := newTestServer(t)

	out := mustCallTool(t, s, "ocr_info", nil)
	if out["backend"] != "gosseract" {
		t.Errorf("backend: got %v, want gosseract", out["backend"])
	}
}

func TestServerDefaults(t *testing.T) {
	s := newTestServer(t)

	if got := s.language(""); got != "eng" {
		t.Errorf("language default: got %q", got)
	}
	if got := s.language("deu"); got != "deu" {
		t.Errorf("language override: got %q", got)
	}

	yes := true
	if s.enhanceEnabled(nil) {
		t.Error("enhance should follow config (disabled in tests)")
	}
	if !s.enhanceEnabled(&yes) {
		t.Error("enhance override ignored")
	}
}
