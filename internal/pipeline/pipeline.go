// Package pipeline runs the full analysis of one night-sky photograph:
// frame preparation, star detection, Polaris selection, latitude solving and
// the optional compass and reference-city checks.
package pipeline

import (
	"fmt"
	"image"

	"github.com/uygaratabay1015-boop/kutupp/internal/config"
	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
	"github.com/uygaratabay1015-boop/kutupp/internal/heading"
	"github.com/uygaratabay1015-boop/kutupp/internal/imaging"
	"github.com/uygaratabay1015-boop/kutupp/internal/latitude"
	"github.com/uygaratabay1015-boop/kutupp/internal/places"
	"github.com/uygaratabay1015-boop/kutupp/internal/polaris"
)

const (
	// lowConfidence is the Polaris score below which a warning is added.
	lowConfidence = 0.5

	defaultTopCandidates = 5
)

// Options configures one analysis.
type Options struct {
	Detector detection.Params
	Scorer   *polaris.Scorer
	Solver   *latitude.Solver

	// VerticalFOV is the camera's vertical field of view in degrees.
	VerticalFOV float64

	Prepare imaging.PrepareOptions

	// Azimuth is the compass heading at capture time, if known.
	Azimuth        *float64
	NorthTolerance float64

	// Cities are matched against the latitude. Nil skips the lookup.
	Cities []places.City

	// TopCandidates is how many ranked candidates the report carries.
	TopCandidates int

	// Sky adds frame luminance statistics to the report.
	Sky bool
}

// DefaultOptions uses the package defaults, a 60° lens and the Turkish
// reference cities.
func DefaultOptions() Options {
	return Options{
		Detector:       detection.DefaultParams(),
		Scorer:         polaris.NewScorer(),
		Solver:         latitude.NewSolver(),
		VerticalFOV:    60,
		NorthTolerance: heading.DefaultTolerance,
		Cities:         places.TurkeyCities,
		TopCandidates:  defaultTopCandidates,
		Sky:            true,
	}
}

// OptionsFromConfig builds Options from a loaded configuration and an
// optional camera profile name.
func OptionsFromConfig(cfg *config.Config, profile string) (Options, error) {
	params, err := cfg.DetectorParams()
	if err != nil {
		return Options{}, fmt.Errorf("detector config: %w", err)
	}
	fov, solver, err := cfg.Lens(profile)
	if err != nil {
		return Options{}, err
	}

	opts := DefaultOptions()
	opts.Detector = params
	opts.Scorer = cfg.Scorer()
	opts.Solver = solver
	opts.VerticalFOV = fov
	opts.NorthTolerance = cfg.Compass.NorthTolerance
	opts.Prepare = imaging.PrepareOptions{
		MaxDimension: cfg.Frame.MaxDimension,
		DenoiseSigma: cfg.Frame.DenoiseSigma,
	}
	return opts, nil
}

// Report is the outcome of an analysis. Found is false when no star was
// detected; that is a normal result, not an error. All pixel positions refer
// to the original photograph.
type Report struct {
	Found       bool                `json:"found"`
	Width       int                 `json:"width"`
	Height      int                 `json:"height"`
	VerticalFOV float64             `json:"vertical_fov"`
	StarCount   int                 `json:"star_count"`
	Polaris     *detection.Star     `json:"polaris,omitempty"`
	Score       float64             `json:"score"`
	Latitude    *latitude.Result    `json:"latitude,omitempty"`
	Candidates  []polaris.StarScore `json:"candidates,omitempty"`
	Heading     *heading.Reading    `json:"heading,omitempty"`
	NearestCity *places.Match       `json:"nearest_city,omitempty"`
	Sky         *imaging.SkyStats   `json:"sky,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// Analyze runs the pipeline on a decoded photograph.
func Analyze(img image.Image, opts Options) (*Report, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}
	frame := imaging.PrepareFrame(img, opts.Prepare)
	buf := detection.FromImage(frame.Image)

	r, err := run(buf, opts, frame.OriginalWidth, frame.OriginalHeight, frame.ToOriginal)
	if err != nil {
		return nil, err
	}

	if opts.Sky {
		sky, err := imaging.MeasureSky(frame.Image, nil)
		if err != nil {
			return nil, fmt.Errorf("measuring sky: %w", err)
		}
		r.Sky = sky
		switch sky.Condition {
		case "overexposed":
			r.Warnings = append(r.Warnings, "frame is overexposed; star centroids may be clipped")
		case "bright":
			r.Warnings = append(r.Warnings, "bright sky background; faint stars may be missed")
		}
	}
	return r, nil
}

// AnalyzeBuffer runs the pipeline on a luminance buffer. Frame preparation
// and sky statistics are skipped.
func AnalyzeBuffer(buf *detection.PixelBuffer, opts Options) (*Report, error) {
	if buf == nil {
		return nil, fmt.Errorf("pixel buffer is nil")
	}
	identity := func(x, y float64) (float64, float64) { return x, y }
	return run(buf, opts, buf.Width, buf.Height, identity)
}

// run detects and scores in buffer coordinates, then maps the results back
// to the original frame with toOriginal and solves there.
func run(buf *detection.PixelBuffer, opts Options, width, height int, toOriginal func(x, y float64) (float64, float64)) (*Report, error) {
	if err := opts.Detector.Validate(); err != nil {
		return nil, fmt.Errorf("detector params: %w", err)
	}
	scorer := opts.Scorer
	if scorer == nil {
		scorer = polaris.NewScorer()
	}
	solver := opts.Solver
	if solver == nil {
		solver = latitude.NewSolver()
	}

	r := &Report{
		Width:       width,
		Height:      height,
		VerticalFOV: opts.VerticalFOV,
	}

	if opts.Azimuth != nil {
		reading := heading.Read(*opts.Azimuth, opts.NorthTolerance)
		r.Heading = &reading
		if !reading.FacingNorth {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"camera faces %s (%.1f° from north); turn %.1f° to face north",
				reading.Cardinal, reading.Deviation, reading.Correction))
		}
	}

	stars := detection.NewDetector(opts.Detector).Detect(buf)
	r.StarCount = len(stars)
	if len(stars) == 0 {
		r.Warnings = append(r.Warnings, "no stars detected; the frame may be too dark, cloudy or overexposed")
		return r, nil
	}

	ranked := scorer.ScoreStars(stars, buf.Height, buf.Width)
	if len(ranked) == 0 {
		return r, nil
	}

	best := ranked[0]
	top := opts.TopCandidates
	if top <= 0 || top > len(ranked) {
		top = len(ranked)
	}
	r.Candidates = make([]polaris.StarScore, top)
	for i := 0; i < top; i++ {
		c := ranked[i]
		c.Star.X, c.Star.Y = toOriginal(c.Star.X, c.Star.Y)
		r.Candidates[i] = c
	}

	star := r.Candidates[0].Star
	res, err := solver.Solve(star.Y, height, opts.VerticalFOV)
	if err != nil {
		return nil, fmt.Errorf("solving latitude: %w", err)
	}

	r.Found = true
	r.Polaris = &star
	r.Score = best.TotalScore
	r.Latitude = &res

	if r.Score < lowConfidence {
		r.Warnings = append(r.Warnings, fmt.Sprintf("low Polaris confidence (%.2f)", r.Score))
	}
	if res.Altitude < 0 {
		r.Warnings = append(r.Warnings, "selected star is below the frame centre; check that the camera is level")
	}

	if opts.Cities != nil {
		if m, ok := places.Nearest(res.Latitude, res.ErrorMargin, opts.Cities); ok {
			r.NearestCity = &m
		}
	}
	return r, nil
}
