// Package config loads kutup settings from YAML.
//
// Every field has a default, so an empty or missing file is a valid
// configuration. Values present in the file override the defaults, except
// scoring.weights: a weights block replaces all three default weights, so
// the weights it names must sum to 1 on their own.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
	"github.com/uygaratabay1015-boop/kutupp/internal/heading"
	"github.com/uygaratabay1015-boop/kutupp/internal/latitude"
	"github.com/uygaratabay1015-boop/kutupp/internal/polaris"
)

// EnvPath names the environment variable consulted when no --config flag is
// given.
const EnvPath = "KUTUP_CONFIG"

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid configuration")

	// ErrUnknownProfile is returned for a camera profile not in the file.
	ErrUnknownProfile = errors.New("unknown camera profile")
)

// Config is the full application configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Compass  CompassConfig  `yaml:"compass"`
	Frame    FrameConfig    `yaml:"frame"`
	History  HistoryConfig  `yaml:"history"`
}

// CameraConfig describes the lens used when no profile is selected.
type CameraConfig struct {
	VerticalFOV      float64                  `yaml:"vertical_fov"`
	FOVUncertainty   float64                  `yaml:"fov_uncertainty"`
	CalibrationError float64                  `yaml:"calibration_error"`
	Profiles         map[string]CameraProfile `yaml:"profiles,omitempty"`
}

// CameraProfile is a named lens. A zero FOVUncertainty inherits the camera
// default.
type CameraProfile struct {
	VerticalFOV    float64 `yaml:"vertical_fov"`
	FOVUncertainty float64 `yaml:"fov_uncertainty,omitempty"`
}

// DetectorConfig mirrors detection.Params with YAML names.
type DetectorConfig struct {
	Strategy          string  `yaml:"strategy"`
	LuminanceFloor    int     `yaml:"luminance_floor"`
	BackgroundRadius  int     `yaml:"background_radius"`
	MinProminence     float64 `yaml:"min_prominence"`
	SuppressionRadius float64 `yaml:"suppression_radius"`
	MaxStars          int     `yaml:"max_stars"`
	Centroid          bool    `yaml:"centroid"`
	CentroidMaxArea   int     `yaml:"centroid_max_area"`
}

// ScoringConfig configures the Polaris scorer.
type ScoringConfig struct {
	Weights       polaris.Weights `yaml:"weights"`
	MaxCandidates int             `yaml:"max_candidates"`
	Neighbors     int             `yaml:"neighbors"`
}

// UnmarshalYAML replaces the default weights as a whole when the file has a
// weights block, so a weight left out of that block is zero rather than its
// default.
func (s *ScoringConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain ScoringConfig
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "weights" {
			s.Weights = polaris.Weights{}
		}
	}
	return value.Decode((*plain)(s))
}

// CompassConfig configures heading checks.
type CompassConfig struct {
	NorthTolerance float64 `yaml:"north_tolerance"`
}

// FrameConfig controls preparation of decoded frames before detection.
// Zero disables the step.
type FrameConfig struct {
	MaxDimension int     `yaml:"max_dimension"`
	DenoiseSigma float64 `yaml:"denoise_sigma"`
}

// HistoryConfig locates the observation database. An empty path disables
// history.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dp := detection.DefaultParams()
	return &Config{
		Camera: CameraConfig{
			VerticalFOV:      60,
			FOVUncertainty:   latitude.DefaultFOVUncertainty,
			CalibrationError: latitude.DefaultCalibrationError,
		},
		Detector: DetectorConfig{
			Strategy:          dp.Strategy.String(),
			LuminanceFloor:    dp.LuminanceFloor,
			BackgroundRadius:  dp.BackgroundRadius,
			MinProminence:     dp.MinProminence,
			SuppressionRadius: dp.SuppressionRadius,
			MaxStars:          dp.MaxStars,
			Centroid:          dp.Centroid,
			CentroidMaxArea:   dp.CentroidMaxArea,
		},
		Scoring: ScoringConfig{
			Weights:       polaris.DefaultWeights(),
			MaxCandidates: polaris.DefaultMaxCandidates,
			Neighbors:     polaris.DefaultNeighbors,
		},
		Compass: CompassConfig{NorthTolerance: heading.DefaultTolerance},
	}
}

// Resolve picks the config path: the flag value if set, otherwise
// $KUTUP_CONFIG. Empty means "use defaults".
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return os.Getenv(EnvPath)
}

// Load reads and validates the YAML file at path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate rejects values the pipeline cannot run with. Errors wrap
// ErrInvalid.
func (c *Config) Validate() error {
	if err := validFOV("camera.vertical_fov", c.Camera.VerticalFOV); err != nil {
		return err
	}
	if c.Camera.FOVUncertainty < 0 {
		return invalid("camera.fov_uncertainty must not be negative")
	}
	if c.Camera.CalibrationError < 0 {
		return invalid("camera.calibration_error must not be negative")
	}
	for _, name := range c.ProfileNames() {
		p := c.Camera.Profiles[name]
		if err := validFOV(fmt.Sprintf("camera.profiles.%s.vertical_fov", name), p.VerticalFOV); err != nil {
			return err
		}
		if p.FOVUncertainty < 0 {
			return invalid("camera.profiles.%s.fov_uncertainty must not be negative", name)
		}
	}

	if _, err := c.DetectorParams(); err != nil {
		return fmt.Errorf("%w: detector: %v", ErrInvalid, err)
	}
	if err := c.Scoring.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: scoring: %v", ErrInvalid, err)
	}
	if c.Scoring.MaxCandidates < 0 || c.Scoring.Neighbors < 0 {
		return invalid("scoring limits must not be negative")
	}
	if c.Compass.NorthTolerance < 0 || c.Compass.NorthTolerance > 180 {
		return invalid("compass.north_tolerance %g outside 0-180", c.Compass.NorthTolerance)
	}
	if c.Frame.MaxDimension < 0 {
		return invalid("frame.max_dimension must not be negative")
	}
	if c.Frame.DenoiseSigma < 0 {
		return invalid("frame.denoise_sigma must not be negative")
	}
	return nil
}

// DetectorParams converts the detector section into detection.Params.
func (c *Config) DetectorParams() (detection.Params, error) {
	strategy, err := detection.ParseStrategy(c.Detector.Strategy)
	if err != nil {
		return detection.Params{}, err
	}
	p := detection.Params{
		Strategy:          strategy,
		LuminanceFloor:    c.Detector.LuminanceFloor,
		BackgroundRadius:  c.Detector.BackgroundRadius,
		MinProminence:     c.Detector.MinProminence,
		SuppressionRadius: c.Detector.SuppressionRadius,
		MaxStars:          c.Detector.MaxStars,
		Centroid:          c.Detector.Centroid,
		CentroidMaxArea:   c.Detector.CentroidMaxArea,
	}
	if err := p.Validate(); err != nil {
		return detection.Params{}, err
	}
	return p, nil
}

// Scorer builds a Polaris scorer from the scoring section.
func (c *Config) Scorer() *polaris.Scorer {
	return &polaris.Scorer{
		Weights:       c.Scoring.Weights,
		MaxCandidates: c.Scoring.MaxCandidates,
		Neighbors:     c.Scoring.Neighbors,
	}
}

// Lens resolves a camera profile to its vertical FOV and latitude solver.
// The empty name selects the top-level camera settings.
func (c *Config) Lens(profile string) (float64, *latitude.Solver, error) {
	solver := &latitude.Solver{
		FOVUncertainty:   c.Camera.FOVUncertainty,
		CalibrationError: c.Camera.CalibrationError,
	}
	if profile == "" {
		return c.Camera.VerticalFOV, solver, nil
	}

	p, ok := c.Camera.Profiles[profile]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", ErrUnknownProfile, profile)
	}
	if p.FOVUncertainty > 0 {
		solver.FOVUncertainty = p.FOVUncertainty
	}
	return p.VerticalFOV, solver, nil
}

// ProfileNames lists the configured camera profiles in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Camera.Profiles))
	for name := range c.Camera.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validFOV(field string, v float64) error {
	if !(v > 0 && v < 180) {
		return invalid("%s %g outside (0, 180)", field, v)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
