package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
	"github.com/uygaratabay1015-boop/kutupp/internal/heading"
	"github.com/uygaratabay1015-boop/kutupp/internal/history"
	"github.com/uygaratabay1015-boop/kutupp/internal/imaging"
	"github.com/uygaratabay1015-boop/kutupp/internal/latitude"
	"github.com/uygaratabay1015-boop/kutupp/internal/pipeline"
	"github.com/uygaratabay1015-boop/kutupp/internal/places"
	"github.com/uygaratabay1015-boop/kutupp/internal/polaris"
)

// errHistoryDisabled is returned by history operations when no database is
// configured.
var errHistoryDisabled = errors.New("observation history is disabled; set history.path in the configuration file")

const (
	defaultCutoutRadius = 24
	defaultCutoutScale  = 8.0
	defaultHistoryLimit = 20
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_load", "polaris_analyze").
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
//  2. Fills optional parameters from the loaded configuration
//  3. Loads frames from cache as needed
//  4. Calls the pipeline or the individual stage
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Frames
	case "frame_load":
		return s.handleFrameLoad(args)

	// Polaris Pipeline
	case "polaris_analyze":
		return s.handlePolarisAnalyze(args)
	case "polaris_detect_stars":
		return s.handlePolarisDetectStars(args)
	case "polaris_score_stars":
		return s.handlePolarisScoreStars(args)
	case "polaris_solve_latitude":
		return s.handlePolarisSolveLatitude(args)
	case "polaris_annotate":
		return s.handlePolarisAnnotate(args)
	case "polaris_star_cutout":
		return s.handlePolarisStarCutout(args)

	// Orientation and Location
	case "compass_heading":
		return s.handleCompassHeading(args)
	case "latitude_nearest_city":
		return s.handleLatitudeNearestCity(args)

	// History
	case "observation_history":
		return s.handleObservationHistory(args)

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

// lens resolves the vertical FOV and solver for a call. An explicit fov
// overrides the profile's.
func (s *Server) lens(fov float64, profile string) (float64, *latitude.Solver, error) {
	cfgFOV, solver, err := s.cfg.Lens(profile)
	if err != nil {
		return 0, nil, err
	}
	if fov != 0 {
		cfgFOV = fov
	}
	return cfgFOV, solver, nil
}

func (s *Server) analyzeOptions(fov float64, profile string) (pipeline.Options, error) {
	opts, err := pipeline.OptionsFromConfig(s.cfg, profile)
	if err != nil {
		return pipeline.Options{}, err
	}
	if fov != 0 {
		opts.VerticalFOV = fov
	}
	return opts, nil
}

// === Frame Handlers ===

type frameLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFrameLoad(args json.RawMessage) (interface{}, error) {
	var a frameLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

// === Polaris Pipeline Handlers ===

type polarisAnalyzeArgs struct {
	Path         string   `json:"path"`
	FOV          float64  `json:"fov"`
	Profile      string   `json:"profile"`
	Azimuth      *float64 `json:"azimuth"`
	MaxDimension *int     `json:"max_dimension"`
	Record       bool     `json:"record"`
	Note         string   `json:"note"`
}

type polarisAnalyzeResult struct {
	*pipeline.Report
	ObservationID string `json:"observation_id,omitempty"`
}

func (s *Server) handlePolarisAnalyze(args json.RawMessage) (interface{}, error) {
	var a polarisAnalyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Record && s.store == nil {
		return nil, errHistoryDisabled
	}

	opts, err := s.analyzeOptions(a.FOV, a.Profile)
	if err != nil {
		return nil, err
	}
	opts.Azimuth = a.Azimuth
	if a.MaxDimension != nil {
		opts.Prepare.MaxDimension = *a.MaxDimension
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	report, err := pipeline.Analyze(img, opts)
	if err != nil {
		return nil, err
	}

	result := polarisAnalyzeResult{Report: report}
	if a.Record && report.Found {
		obs, err := s.store.Record(context.Background(), history.Observation{
			Source:      a.Path,
			Result:      *report.Latitude,
			Polaris:     *report.Polaris,
			Score:       report.Score,
			ImageWidth:  report.Width,
			ImageHeight: report.Height,
			VerticalFOV: report.VerticalFOV,
			Azimuth:     a.Azimuth,
			Note:        a.Note,
		})
		if err != nil {
			return nil, err
		}
		result.ObservationID = obs.ID
	}
	return result, nil
}

type polarisDetectStarsArgs struct {
	Path           string   `json:"path"`
	Strategy       string   `json:"strategy"`
	MinProminence  *float64 `json:"min_prominence"`
	LuminanceFloor *int     `json:"luminance_floor"`
	MaxStars       *int     `json:"max_stars"`
}

type polarisDetectStarsResult struct {
	Width  int              `json:"width"`
	Height int              `json:"height"`
	Count  int              `json:"count"`
	Stars  []detection.Star `json:"stars"`
}

func (s *Server) handlePolarisDetectStars(args json.RawMessage) (interface{}, error) {
	var a polarisDetectStarsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	params, err := s.cfg.DetectorParams()
	if err != nil {
		return nil, err
	}
	if a.Strategy != "" {
		if params.Strategy, err = detection.ParseStrategy(a.Strategy); err != nil {
			return nil, err
		}
	}
	if a.MinProminence != nil {
		params.MinProminence = *a.MinProminence
	}
	if a.LuminanceFloor != nil {
		params.LuminanceFloor = *a.LuminanceFloor
	}
	if a.MaxStars != nil {
		params.MaxStars = *a.MaxStars
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	frame := imaging.PrepareFrame(img, imaging.PrepareOptions{
		MaxDimension: s.cfg.Frame.MaxDimension,
		DenoiseSigma: s.cfg.Frame.DenoiseSigma,
	})
	stars := detection.NewDetector(params).Detect(detection.FromImage(frame.Image))
	for i := range stars {
		stars[i].X, stars[i].Y = frame.ToOriginal(stars[i].X, stars[i].Y)
	}

	return &polarisDetectStarsResult{
		Width:  frame.OriginalWidth,
		Height: frame.OriginalHeight,
		Count:  len(stars),
		Stars:  stars,
	}, nil
}

type polarisScoreStarsArgs struct {
	Stars   []detection.Star `json:"stars"`
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Weights *polaris.Weights `json:"weights"`
}

type polarisScoreStarsResult struct {
	Polaris *detection.Star     `json:"polaris,omitempty"`
	Score   float64             `json:"score"`
	Ranked  []polaris.StarScore `json:"ranked"`
}

func (s *Server) handlePolarisScoreStars(args json.RawMessage) (interface{}, error) {
	var a polarisScoreStarsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %dx%d", a.Width, a.Height)
	}

	scorer := s.cfg.Scorer()
	if a.Weights != nil {
		if err := a.Weights.Validate(); err != nil {
			return nil, err
		}
		scorer.Weights = *a.Weights
	}

	ranked := scorer.ScoreStars(a.Stars, a.Height, a.Width)
	result := &polarisScoreStarsResult{Ranked: ranked}
	if len(ranked) > 0 {
		best := ranked[0].Star
		result.Polaris = &best
		result.Score = ranked[0].TotalScore
	}
	return result, nil
}

type polarisSolveLatitudeArgs struct {
	PixelY      float64 `json:"pixel_y"`
	ImageHeight int     `json:"image_height"`
	FOV         float64 `json:"fov"`
	Profile     string  `json:"profile"`
}

func (s *Server) handlePolarisSolveLatitude(args json.RawMessage) (interface{}, error) {
	var a polarisSolveLatitudeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	fov, solver, err := s.lens(a.FOV, a.Profile)
	if err != nil {
		return nil, err
	}
	return solver.Solve(a.PixelY, a.ImageHeight, fov)
}

type polarisAnnotateArgs struct {
	Path         string  `json:"path"`
	FOV          float64 `json:"fov"`
	Profile      string  `json:"profile"`
	MarkerRadius int     `json:"marker_radius"`
	Color        string  `json:"color"`
	Horizon      *bool   `json:"horizon"`
}

type polarisAnnotateResult struct {
	*imaging.AnnotateResult
	Found    bool             `json:"found"`
	Latitude *latitude.Result `json:"latitude,omitempty"`
}

func (s *Server) handlePolarisAnnotate(args json.RawMessage) (interface{}, error) {
	var a polarisAnnotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	horizon := true
	if a.Horizon != nil {
		horizon = *a.Horizon
	}

	opts, err := s.analyzeOptions(a.FOV, a.Profile)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	report, err := pipeline.Analyze(img, opts)
	if err != nil {
		return nil, err
	}

	label := "no stars detected"
	if report.Found {
		label = fmt.Sprintf("lat %.2f +/- %.2f", report.Latitude.Latitude, report.Latitude.ErrorMargin)
	}
	annotated, err := imaging.Annotate(img, imaging.AnnotateOptions{
		Scores:       report.Candidates,
		Polaris:      report.Polaris,
		Label:        label,
		Horizon:      horizon,
		MarkerRadius: a.MarkerRadius,
		PolarisColor: a.Color,
	})
	if err != nil {
		return nil, err
	}
	return &polarisAnnotateResult{
		AnnotateResult: annotated,
		Found:          report.Found,
		Latitude:       report.Latitude,
	}, nil
}

type polarisStarCutoutArgs struct {
	Path   string  `json:"path"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius int     `json:"radius"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handlePolarisStarCutout(args json.RawMessage) (interface{}, error) {
	var a polarisStarCutoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Radius == 0 {
		a.Radius = defaultCutoutRadius
	}
	if a.Scale == 0 {
		a.Scale = defaultCutoutScale
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Cutout(img, a.X, a.Y, a.Radius, a.Scale)
}

// === Orientation and Location Handlers ===

type compassHeadingArgs struct {
	Azimuth   float64   `json:"azimuth"`
	Tolerance *float64  `json:"tolerance"`
	Samples   []float64 `json:"samples"`
	Expected  *float64  `json:"expected"`
}

type compassHeadingResult struct {
	heading.Reading
	CalibrationOffset *float64 `json:"calibration_offset,omitempty"`
	Samples           int      `json:"samples,omitempty"`
}

func (s *Server) handleCompassHeading(args json.RawMessage) (interface{}, error) {
	var a compassHeadingArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if math.IsNaN(a.Azimuth) || math.IsInf(a.Azimuth, 0) {
		return nil, fmt.Errorf("azimuth must be finite")
	}
	tolerance := s.cfg.Compass.NorthTolerance
	if a.Tolerance != nil {
		tolerance = *a.Tolerance
	}
	if tolerance < 0 || tolerance > 180 {
		return nil, fmt.Errorf("tolerance %g outside 0-180", tolerance)
	}

	result := &compassHeadingResult{Reading: heading.Read(a.Azimuth, tolerance)}
	if len(a.Samples) > 0 {
		if a.Expected == nil {
			return nil, fmt.Errorf("expected heading is required with samples")
		}
		var cal heading.Calibrator
		for _, v := range a.Samples {
			cal.Collect(v)
		}
		result.Samples = cal.Len()
		offset := cal.Calibrate(*a.Expected)
		result.CalibrationOffset = &offset
	}
	return result, nil
}

type latitudeNearestCityArgs struct {
	Latitude float64 `json:"latitude"`
	Margin   float64 `json:"margin"`
	GeoJSON  bool    `json:"geojson"`
}

type latitudeNearestCityResult struct {
	Nearest  places.Match    `json:"nearest"`
	InBand   []places.City   `json:"in_band"`
	InRegion bool            `json:"in_region"`
	GeoJSON  json.RawMessage `json:"geojson,omitempty"`
}

func (s *Server) handleLatitudeNearestCity(args json.RawMessage) (interface{}, error) {
	var a latitudeNearestCityArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Latitude < -90 || a.Latitude > 90 {
		return nil, fmt.Errorf("latitude %g outside -90..90", a.Latitude)
	}
	if a.Margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %g", a.Margin)
	}

	match, _ := places.Nearest(a.Latitude, a.Margin, places.TurkeyCities)
	result := &latitudeNearestCityResult{
		Nearest:  match,
		InBand:   places.WithinBand(a.Latitude, a.Margin, places.TurkeyCities),
		InRegion: places.InBound(a.Latitude, places.TurkeyBound),
	}
	if a.GeoJSON {
		data, err := places.BandGeoJSON(a.Latitude, a.Margin, places.TurkeyBound, places.TurkeyCities)
		if err != nil {
			return nil, err
		}
		result.GeoJSON = data
	}
	return result, nil
}

// === History Handlers ===

type observationHistoryArgs struct {
	Action string `json:"action"`
	Limit  int    `json:"limit"`
	ID     string `json:"id"`
}

func (s *Server) handleObservationHistory(args json.RawMessage) (interface{}, error) {
	var a observationHistoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errHistoryDisabled
	}
	ctx := context.Background()

	switch a.Action {
	case "", "list":
		if a.Limit == 0 {
			a.Limit = defaultHistoryLimit
		}
		obs, err := s.store.List(ctx, a.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"count":        len(obs),
			"observations": obs,
		}, nil
	case "summary":
		return s.store.Summary(ctx)
	case "get":
		if a.ID == "" {
			return nil, fmt.Errorf("id is required for get")
		}
		return s.store.Get(ctx, a.ID)
	case "delete":
		if a.ID == "" {
			return nil, fmt.Errorf("id is required for delete")
		}
		if err := s.store.Delete(ctx, a.ID); err != nil {
			return nil, err
		}
		return map[string]interface{}{"deleted": a.ID}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s (want list, summary, get or delete)", a.Action)
	}
}
