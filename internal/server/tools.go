package server

import "github.com/ironsheep/image-text-mcp/internal/encoder"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

func regionNames() []string {
	regions := encoder.Regions()
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Name
	}
	return names
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file, normalize it to the 150x150 canvas and return the source metadata and region layout. Re-reads the file even if it was loaded before.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_to_text",
			Description: "Encode an image as quadrant hex text: four 75x75 regions in order top-left, top-right, bottom-left, bottom-right, each pixel written as .rrggbb with a comma after every row. Returns the text, a preview data URL of the encoded canvas and summary statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_preview",
			Description: "Render the normalized 150x150 canvas that the text encoding is computed from, as a data URL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "jpeg"},
						"description": "Image format of the preview. Defaults to the configured preview format",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop_quadrant",
			Description: "Crop one of the four 75x75 encoder regions from the normalized canvas and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        regionNames(),
						"description": "Region to extract",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor, nearest neighbor. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "region"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the color of one pixel of the normalized canvas, including the exact token the encoder writes for it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate on the canvas (0-149, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate on the canvas (0-149, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_region_colors",
			Description: "List the most frequent tokens in one region of the normalized canvas with their pixel counts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        regionNames(),
						"description": "Region to analyze",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return (default 5, 0 for all)",
						"default":     5,
					},
				},
				"required": []string{"path", "region"},
			},
		},
		{
			Name:        "image_quadrant_overlay",
			Description: "Render the normalized canvas with the region boundaries drawn and each region labelled with its index and origin.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Line color as #RRGGBB or #RRGGBBAA (default: #FF000080)",
						"default":     "#FF000080",
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
