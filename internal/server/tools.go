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
		"description": "Absolute path to the photograph",
	}
}

func lensProperties(props map[string]interface{}) map[string]interface{} {
	props["fov"] = map[string]interface{}{
		"type":        "number",
		"description": "Vertical field of view in degrees. Defaults to the configured camera",
	}
	props["profile"] = map[string]interface{}{
		"type":        "string",
		"description": "Named camera profile from the configuration file",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frames
		{
			Name:        "frame_load",
			Description: "Load a night-sky photograph and return its dimensions, format, orientation and sky background statistics. The frame is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Polaris Pipeline
		{
			Name:        "polaris_analyze",
			Description: "Run the full pipeline on a photograph taken facing north: detect stars, pick the most likely Polaris and estimate the observer's latitude with an error margin. Returns the top candidates, warnings and the nearest reference city.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": lensProperties(map[string]interface{}{
					"path": pathProperty(),
					"azimuth": map[string]interface{}{
						"type":        "number",
						"description": "Compass heading of the camera in degrees, if known. Adds a facing-north check",
					},
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Downscale frames whose longer side exceeds this before detection. Defaults to the configured value",
					},
					"record": map[string]interface{}{
						"type":        "boolean",
						"description": "Store the result in the observation history. Default false",
						"default":     false,
					},
					"note": map[string]interface{}{
						"type":        "string",
						"description": "Free-text note stored with a recorded observation",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "polaris_detect_stars",
			Description: "Detect point-like stars in a photograph. Returns sub-pixel positions and brightness (0-255), brightest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"strategy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"prominence", "threshold"},
						"description": "Detection strategy. Defaults to the configured strategy",
					},
					"min_prominence": map[string]interface{}{
						"type":        "number",
						"description": "Minimum peak height above the local background",
					},
					"luminance_floor": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels at or below this luminance are never peaks",
					},
					"max_stars": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of stars to return",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "polaris_score_stars",
			Description: "Rank star positions by how likely each is to be Polaris, using height in the frame, brightness and isolation. Pass stars from polaris_detect_stars together with the frame size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"stars": map[string]interface{}{
						"type":        "array",
						"description": "Stars as {x, y, brightness}",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":          map[string]interface{}{"type": "number"},
								"y":          map[string]interface{}{"type": "number"},
								"brightness": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y", "brightness"},
						},
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Frame width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Frame height in pixels",
					},
					"weights": map[string]interface{}{
						"type":        "object",
						"description": "Optional score weights; must be non-negative and sum to 1",
						"properties": map[string]interface{}{
							"height":     map[string]interface{}{"type": "number"},
							"brightness": map[string]interface{}{"type": "number"},
							"isolation":  map[string]interface{}{"type": "number"},
						},
					},
				},
				"required": []string{"stars", "width", "height"},
			},
		},
		{
			Name:        "polaris_solve_latitude",
			Description: "Convert Polaris' pixel row into a latitude estimate. Assumes a level camera whose optical axis is on the horizon, so the frame's centre row is 0° altitude.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": lensProperties(map[string]interface{}{
					"pixel_y": map[string]interface{}{
						"type":        "number",
						"description": "Vertical position of Polaris (0 = top row)",
					},
					"image_height": map[string]interface{}{
						"type":        "integer",
						"description": "Frame height in pixels",
					},
				}),
				"required": []string{"pixel_y", "image_height"},
			},
		},
		{
			Name:        "polaris_annotate",
			Description: "Analyze a photograph and return it as base64 PNG with the ranked candidates circled (red to green by score), Polaris marked with a crosshair, the horizon row and the latitude printed in the corner.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": lensProperties(map[string]interface{}{
					"path": pathProperty(),
					"marker_radius": map[string]interface{}{
						"type":        "integer",
						"description": "Ring radius in pixels. Default 6",
						"default":     6,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Polaris marker colour as #rrggbb. Default #ff3030",
					},
					"horizon": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the zero-altitude row. Default true",
						"default":     true,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "polaris_star_cutout",
			Description: "Cut out and enlarge the area around a star position and return it as base64 PNG. Use this to check that a candidate is a real star rather than noise or a hot pixel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Star X position",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Star Y position",
					},
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Half-size of the cutout in pixels. Default 24",
						"default":     24,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Enlargement factor. Default 8",
						"default":     8.0,
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Orientation and Location
		{
			Name:        "compass_heading",
			Description: "Interpret a compass azimuth: cardinal direction, whether the camera faces north within tolerance and the turn needed to face north. With samples and expected, also returns the compass calibration offset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"azimuth": map[string]interface{}{
						"type":        "number",
						"description": "Heading in degrees clockwise from north",
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Degrees either side of north that count as facing north. Defaults to the configured tolerance",
					},
					"samples": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Raw compass readings taken while pointing at a known heading",
					},
					"expected": map[string]interface{}{
						"type":        "number",
						"description": "The known heading the samples were taken at",
					},
				},
				"required": []string{"azimuth"},
			},
		},
		{
			Name:        "latitude_nearest_city",
			Description: "Find the reference city closest in latitude to an estimate and list the cities inside the error band. Optionally returns the band as GeoJSON.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"latitude": map[string]interface{}{
						"type":        "number",
						"description": "Estimated latitude in degrees",
					},
					"margin": map[string]interface{}{
						"type":        "number",
						"description": "Error margin in degrees. Default 0",
					},
					"geojson": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a GeoJSON FeatureCollection of the band and cities. Default false",
						"default":     false,
					},
				},
				"required": []string{"latitude"},
			},
		},

		// History
		{
			Name:        "observation_history",
			Description: "Browse recorded observations. Actions: list (newest first), summary (weighted combined latitude), get and delete (by id). Requires a configured history database.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"action": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"list", "summary", "get", "delete"},
						"description": "Operation to perform. Default list",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum observations for list. Default 20",
						"default":     20,
					},
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Observation ID for get and delete",
					},
				},
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
