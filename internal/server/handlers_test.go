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

	"github.com/ironsheep/image-text-mcp/internal/encoder"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestPNG(t, img)
}

// createQuadrantImageFile creates a 150x150 image with one color per region:
// red, green, blue, white in encoding order.
func createQuadrantImageFile(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 150, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 150; x++ {
			var c color.RGBA
			switch {
			case x < 75 && y < 75:
				c = color.RGBA{255, 0, 0, 255}
			case y < 75:
				c = color.RGBA{0, 255, 0, 255}
			case x < 75:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return writeTestPNG(t, img)
}

func writeTestPNG(t *testing.T, img image.Image) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return f.Name()
}

// callTool sends a tools/call request and returns the response
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// callToolResult calls a tool that must succeed and decodes its text content into v
func callToolResult(t *testing.T, s *Server, name string, args map[string]interface{}, v interface{}) {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %+v", name, resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v", err)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var result struct {
		Source struct {
			Width    int    `json:"width"`
			Height   int    `json:"height"`
			Format   string `json:"format"`
			HasAlpha bool   `json:"has_alpha"`
		} `json:"source"`
		Canvas struct {
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			Background string `json:"background"`
		} `json:"canvas"`
		Regions []encoder.Region `json:"regions"`
	}
	callToolResult(t, s, "image_load", map[string]interface{}{"path": imgPath}, &result)

	if result.Source.Width != 100 || result.Source.Height != 80 {
		t.Errorf("source dimensions: got %dx%d, want 100x80", result.Source.Width, result.Source.Height)
	}
	if result.Source.Format != "png" {
		t.Errorf("source format: got %s, want png", result.Source.Format)
	}
	if result.Canvas.Width != 150 || result.Canvas.Height != 150 {
		t.Errorf("canvas dimensions: got %dx%d, want 150x150", result.Canvas.Width, result.Canvas.Height)
	}
	if result.Canvas.Background != ".0e0e0e" {
		t.Errorf("background: got %s, want .0e0e0e", result.Canvas.Background)
	}
	if len(result.Regions) != 4 || result.Regions[3].Name != "bottom-right" || result.Regions[3].X != 75 {
		t.Errorf("regions: got %+v", result.Regions)
	}
}

func TestHandleToolsCall_ImageLoad_Refreshes(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 150, 150, color.RGBA{255, 0, 0, 255})

	var first struct{ Text string }
	callToolResult(t, s, "image_to_text", map[string]interface{}{"path": imgPath}, &first)

	// Overwrite the file with a different color
	img := image.NewRGBA(image.Rect(0, 0, 150, 150))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 255, 255
	}
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatalf("failed to rewrite image: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()

	var cached struct{ Text string }
	callToolResult(t, s, "image_to_text", map[string]interface{}{"path": imgPath}, &cached)
	if !strings.HasPrefix(cached.Text, ".ff0000") {
		t.Error("image_to_text should use the cached canvas until image_load")
	}

	var loaded map[string]interface{}
	callToolResult(t, s, "image_load", map[string]interface{}{"path": imgPath}, &loaded)

	var refreshed struct{ Text string }
	callToolResult(t, s, "image_to_text", map[string]interface{}{"path": imgPath}, &refreshed)
	if !strings.HasPrefix(refreshed.Text, ".0000ff") {
		t.Errorf("after image_load: got prefix %s, want .0000ff", refreshed.Text[:7])
	}
}

func TestHandleToolsCall_ImageToText(t *testing.T) {
	s := newTestServer()
	imgPath := createQuadrantImageFile(t)

	var result struct {
		Text     string            `json:"text"`
		ImageURL string            `json:"imageUrl"`
		Stats    encoder.TextStats `json:"stats"`
	}
	callToolResult(t, s, "image_to_text", map[string]interface{}{"path": imgPath}, &result)

	if len(result.Text) != encoder.EncodedLen {
		t.Errorf("text length: got %d, want %d", len(result.Text), encoder.EncodedLen)
	}
	if !strings.HasPrefix(result.Text, ".ff0000") || !strings.HasSuffix(result.Text, ".ffffff") {
		t.Errorf("unexpected first/last tokens: %s ... %s", result.Text[:7], result.Text[len(result.Text)-7:])
	}
	if !strings.HasPrefix(result.ImageURL, "data:image/png;base64,") {
		t.Errorf("imageUrl: unexpected prefix %.30s", result.ImageURL)
	}
	if result.Stats.Tokens != encoder.TokensTotal {
		t.Errorf("stats.tokens: got %d, want %d", result.Stats.Tokens, encoder.TokensTotal)
	}
	if result.Stats.DistinctColors != 4 {
		t.Errorf("stats.distinct_colors: got %d, want 4", result.Stats.DistinctColors)
	}
}

func TestHandleToolsCall_ImagePreview(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 40, 20, color.RGBA{0, 0, 255, 255})

	tests := []struct {
		format   string
		wantMime string
	}{
		{"", "image/png"},
		{"png", "image/png"},
		{"jpeg", "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			args := map[string]interface{}{"path": imgPath}
			if tt.format != "" {
				args["format"] = tt.format
			}

			var result struct {
				Width    int    `json:"width"`
				MimeType string `json:"mime_type"`
				DataURL  string `json:"data_url"`
			}
			callToolResult(t, s, "image_preview", args, &result)

			if result.Width != 150 {
				t.Errorf("width: got %d, want 150", result.Width)
			}
			if result.MimeType != tt.wantMime {
				t.Errorf("mime: got %s, want %s", result.MimeType, tt.wantMime)
			}
			if !strings.HasPrefix(result.DataURL, "data:"+tt.wantMime+";base64,") {
				t.Errorf("data url: unexpected prefix %.30s", result.DataURL)
			}
		})
	}

	resp := callTool(t, s, "image_preview", map[string]interface{}{"path": imgPath, "format": "gif"})
	if resp.Error == nil {
		t.Error("expected error for unsupported preview format")
	}
}

func TestHandleToolsCall_CropQuadrant(t *testing.T) {
	s := newTestServer()
	imgPath := createQuadrantImageFile(t)

	regions := []string{"top-left", "top-right", "bottom-left", "bottom-right"}
	for _, region := range regions {
		t.Run(region, func(t *testing.T) {
			var result struct {
				Region string `json:"region"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			}
			callToolResult(t, s, "image_crop_quadrant", map[string]interface{}{
				"path":   imgPath,
				"region": region,
			}, &result)

			if result.Region != region {
				t.Errorf("region: got %s, want %s", result.Region, region)
			}
			if result.Width != 75 || result.Height != 75 {
				t.Errorf("dimensions: got %dx%d, want 75x75", result.Width, result.Height)
			}
		})
	}
}

func TestHandleToolsCall_CropQuadrant_WithScale(t *testing.T) {
	s := newTestServer()
	imgPath := createQuadrantImageFile(t)

	var result struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	callToolResult(t, s, "image_crop_quadrant", map[string]interface{}{
		"path":   imgPath,
		"region": "bottom-right",
		"scale":  2.0,
	}, &result)

	if result.Width != 150 || result.Height != 150 {
		t.Errorf("scaled dimensions: got %dx%d, want 150x150", result.Width, result.Height)
	}
}

func TestHandleToolsCall_CropQuadrant_Invalid(t *testing.T) {
	s := newTestServer()
	imgPath := createQuadrantImageFile(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown region", map[string]interface{}{"path": imgPath, "region": "center"}},
		{"missing region", map[string]interface{}{"path": imgPath}},
		{"negative scale", map[string]interface{}{"path": imgPath, "region": "top-left", "scale": -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "image_crop_quadrant", tt.args)
			if resp.Error == nil {
				t.Fatal("expected error")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_SampleColor(t *testing.T) {
	s := newTestServer()
	imgPath := createQuadrantImageFile(t)

	tests := []struct {
		x, y      int
		wantToken string
	}{
		{0, 0, ".ff0000"},
		{149, 0, ".00ff00"},
		{0, 149, ".0000ff"},
		{149, 149, ".ffffff"},
	}

	for _, tt := range tests {
		var result struct {
			Token string `json:"token"`
			Hex   string `json:"hex"`
		}
		callToolResult(t, s, "image_sample_color", map[string]interface{}{
			"path": imgPath, "x": tt.x, "y": tt.y,
		}, &result)

		if result.Token != tt.wantToken {
			t.Errorf("(%d,%d) token: got %s, want %s", tt.x, tt.y, result.Token, tt.wantToken)
		}
		if result.Hex != "#"+tt.wantToken[1:] {
			t.Errorf("(%d,%d) hex: got %s", tt.x, tt.y, result.Hex)
		}
	}
}

func TestHandleToolsCall_SampleColor_Padding(t *testing.T) {
	s := newTestServer()
	// 2:1 landscape leaves background rows at the top of the canvas
	imgPath := createTestImageFile(t, 200, 100, color.RGBA{255, 255, 0, 255})

	var result struct {
		Token string `json:"token"`
	}
	callToolResult(t, s, "image_sample_color", map[string]interface{}{
		"path": imgPath, "x": 75, "y": 0,
	}, &result)

	if result.Token != ".0e0e0e" {
		t.Errorf("padding token: got %s, want .0e0e0e", result.Token)
	}

	resp := callTool(t, s, "image_sample_color", map[string]interface{}{
		"path": imgPath, "x": 150, "y": 0,
	})
	if resp.Error == nil {
		t.Error("expected error outside the canvas")
	}
}

func TestHandleToolsCall_RegionColors(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 300, 150, color.RGBA{0, 128, 255, 255})

	var result struct {
		Region         string `json:"region"`
		DistinctColors int    `json:"distinct_colors"`
		Colors         []struct {
			Token string `json:"token"`
			Count int    `json:"count"`
		} `json:"colors"`
	}
	callToolResult(t, s, "image_region_colors", map[string]interface{}{
		"path": imgPath, "region": "top-left",
	}, &result)

	if result.Region != "top-left" {
		t.Errorf("region: got %s", result.Region)
	}
	// Rows 0..36 are padding, 37..74 are image
	if result.DistinctColors != 2 {
		t.Fatalf("distinct colors: got %d, want 2", result.DistinctColors)
	}
	if result.Colors[0].Token != ".0080ff" || result.Colors[1].Token != ".0e0e0e" {
		t.Errorf("colors: got %+v", result.Colors)
	}
	if result.Colors[0].Count+result.Colors[1].Count != encoder.TokensPerRegion {
		t.Errorf("counts should cover the region: got %+v", result.Colors)
	}
}

func TestHandleToolsCall_RegionColors_Count(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 300, 150, color.RGBA{0, 128, 255, 255})

	var result struct {
		DistinctColors int           `json:"distinct_colors"`
		Colors         []interface{} `json:"colors"`
	}
	callToolResult(t, s, "image_region_colors", map[string]interface{}{
		"path": imgPath, "region": "bottom-left", "count": 1,
	}, &result)

	if result.DistinctColors != 2 || len(result.Colors) != 1 {
		t.Errorf("got %d distinct, %d listed; want 2, 1", result.DistinctColors, len(result.Colors))
	}

	resp := callTool(t, s, "image_region_colors", map[string]interface{}{
		"path": imgPath, "region": "bottom-left", "count": -1,
	})
	if resp.Error == nil {
		t.Error("expected error for negative count")
	}
}

func TestHandleToolsCall_QuadrantOverlay(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 150, 150, color.RGBA{0, 0, 0, 255})

	for _, c := range []string{"", "#00FF00", "not-a-color"} {
		args := map[string]interface{}{"path": imgPath}
		if c != "" {
			args["color"] = c
		}

		var result struct {
			Width       int      `json:"width"`
			ImageBase64 string   `json:"image_base64"`
			Regions     []string `json:"regions"`
		}
		callToolResult(t, s, "image_quadrant_overlay", args, &result)

		if result.Width != 150 {
			t.Errorf("color %q: width got %d, want 150", c, result.Width)
		}
		if result.ImageBase64 == "" {
			t.Errorf("color %q: empty image", c)
		}
		if len(result.Regions) != 4 {
			t.Errorf("color %q: regions got %v", c, result.Regions)
		}
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer()
	missing := filepath.Join(t.TempDir(), "missing.png")

	for _, name := range expectedTools {
		t.Run(name, func(t *testing.T) {
			resp := callTool(t, s, name, map[string]interface{}{
				"path":   missing,
				"region": "top-left",
			})
			if resp.Error == nil {
				t.Fatal("Expected error for non-existent file")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_UndecodableFile(t *testing.T) {
	s := newTestServer()
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	resp := callTool(t, s, "image_to_text", map[string]interface{}{"path": path})
	if resp.Error == nil {
		t.Fatal("Expected error for undecodable file")
	}
	data, _ := resp.Error.Data.(string)
	if !strings.Contains(data, "unprocessable") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer()

	resp := callTool(t, s, "nonexistent_tool", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("Expected error for invalid tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_MissingPath(t *testing.T) {
	s := newTestServer()

	for _, name := range expectedTools {
		resp := callTool(t, s, name, map[string]interface{}{})
		if resp.Error == nil {
			t.Errorf("%s: expected error for missing path", name)
		}
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{invalid json}`),
	}

	resp := s.handleRequest(req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != CodeInvalidParams {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := newTestServer()
	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer()

	for _, name := range expectedTools {
		if _, err := s.executeTool(name, json.RawMessage(`{bad json}`)); err == nil {
			t.Errorf("%s: expected error for invalid JSON", name)
		}
	}
}

func TestToolResponse(t *testing.T) {
	s := newTestServer()

	resp := s.toolResponse(3, map[string]int{"count": 2})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	var decoded map[string]int
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &decoded); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	if decoded["count"] != 2 {
		t.Errorf("count: got %d, want 2", decoded["count"])
	}
}

func TestToolResponse_MarshalError(t *testing.T) {
	s := newTestServer()

	resp := s.toolResponse(4, map[string]interface{}{"bad": make(chan int)})
	if resp.Error == nil {
		t.Fatal("expected error response for unmarshalable result")
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("Error code: got %d, want %d", resp.Error.Code, CodeInternalError)
	}
	if resp.ID != 4 {
		t.Errorf("ID: got %v, want 4", resp.ID)
	}
	if resp.Result != nil {
		t.Errorf("Result should be empty, got %v", resp.Result)
	}
}
