package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/image-text-mcp/internal/encoder"
	"github.com/ironsheep/image-text-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_to_text").
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
// Tool execution errors return a JSON-RPC error response with code CodeToolFailed.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, CodeToolFailed, "Tool execution failed", err.Error())
	}

	return s.toolResponse(req.ID, result)
}

// toolResponse wraps a tool result in MCP's text content. A result that
// cannot be marshaled is reported as an internal error.
func (s *Server) toolResponse(id interface{}, result interface{}) *MCPResponse {
	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.logger.Error("failed to marshal tool result", "error", err)
		return s.errorResponse(id, CodeInternalError, "Internal error", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(text),
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
//  3. Loads the normalized canvas from cache
//  4. Calls the appropriate encoder/imaging function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_to_text":
		return s.handleImageToText(args)
	case "image_preview":
		return s.handleImagePreview(args)
	case "image_crop_quadrant":
		return s.handleImageCropQuadrant(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_region_colors":
		return s.handleImageRegionColors(args)
	case "image_quadrant_overlay":
		return s.handleImageQuadrantOverlay(args)
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

// unmarshalArgs decodes tool arguments and rejects a missing path.
func unmarshalArgs(args json.RawMessage, dst interface{ path() string }) error {
	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if dst.path() == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a *pathArgs) path() string { return a.Path }

// loadCanvas returns the cached canvas for path, loading it if necessary
func (s *Server) loadCanvas(path string) (*imaging.Canvas, error) {
	return s.cache.Load(path)
}

type imageLoadResult struct {
	Source  imaging.ImageInfo `json:"source"`
	Canvas  canvasInfo        `json:"canvas"`
	Regions []encoder.Region  `json:"regions"`
}

type canvasInfo struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	// Always re-read so a changed file is picked up
	s.cache.Evict(a.Path)
	c, err := s.loadCanvas(a.Path)
	if err != nil {
		return nil, err
	}
	return &imageLoadResult{
		Source: c.Source,
		Canvas: canvasInfo{
			Width:      c.Image.Bounds().Dx(),
			Height:     c.Image.Bounds().Dy(),
			Background: encoder.Token(encoder.Background),
		},
		Regions: encoder.Regions(),
	}, nil
}

type imageToTextResult struct {
	Text     string             `json:"text"`
	ImageURL string             `json:"imageUrl"`
	Stats    *encoder.TextStats `json:"stats"`
}

func (s *Server) handleImageToText(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	c, err := s.loadCanvas(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.conv.ConvertCanvas(c.Image)
	if err != nil {
		return nil, err
	}
	stats, err := encoder.Stats(res.Text)
	if err != nil {
		return nil, err
	}
	return &imageToTextResult{Text: res.Text, ImageURL: res.ImageURL, Stats: stats}, nil
}

type imagePreviewArgs struct {
	pathArgs
	Format string `json:"format"`
}

func (s *Server) handleImagePreview(args json.RawMessage) (interface{}, error) {
	var a imagePreviewArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = s.conv.PreviewFormat
	}
	c, err := s.loadCanvas(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.RenderPreview(c.Image, a.Format, s.conv.JPEGQuality)
}

type imageCropQuadrantArgs struct {
	pathArgs
	Region string  `json:"region"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleImageCropQuadrant(args json.RawMessage) (interface{}, error) {
	var a imageCropQuadrantArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", a.Scale)
	}
	c, err := s.loadCanvas(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropRegion(c.Image, a.Region, a.Scale)
}

type imageSampleColorArgs struct {
	pathArgs
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	c, err := s.loadCanvas(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(c.Image, a.X, a.Y)
}

type imageRegionColorsArgs struct {
	pathArgs
	Region string `json:"region"`
	Count  *int   `json:"count"`
}

func (s *Server) handleImageRegionColors(args json.RawMessage) (interface{}, error) {
	var a imageRegionColorsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	count := 5
	if a.Count != nil {
		count = *a.Count
	}
	if count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", count)
	}
	c, err := s.loadCanvas(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.RegionColors(c.Image, a.Region, count)
}

type imageQuadrantOverlayArgs struct {
	pathArgs
	Color string `json:"color"`
}

func (s *Server) handleImageQuadrantOverlay(args json.RawMessage) (interface{}, error) {
	var a imageQuadrantOverlayArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = imaging.DefaultOverlayColor
	}
	c, err := s.loadCanvas(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.QuadrantOverlay(c.Image, a.Color)
}
