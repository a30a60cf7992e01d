package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
	"github.com/uygaratabay1015-boop/kutupp/internal/polaris"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kutup.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	if cfg.Camera.VerticalFOV != 60 {
		t.Errorf("vertical_fov: got %v, want 60", cfg.Camera.VerticalFOV)
	}
	if cfg.Camera.FOVUncertainty != 2 || cfg.Camera.CalibrationError != 1 {
		t.Errorf("uncertainty/calibration: got %v/%v, want 2/1", cfg.Camera.FOVUncertainty, cfg.Camera.CalibrationError)
	}
	if cfg.Compass.NorthTolerance != 15 {
		t.Errorf("north_tolerance: got %v, want 15", cfg.Compass.NorthTolerance)
	}
	if cfg.Detector.Strategy != "prominence" {
		t.Errorf("strategy: got %s, want prominence", cfg.Detector.Strategy)
	}
	if cfg.History.Path != "" {
		t.Errorf("history should be disabled by default, got %q", cfg.History.Path)
	}

	p, err := cfg.DetectorParams()
	if err != nil {
		t.Fatalf("DetectorParams failed: %v", err)
	}
	if p != detection.DefaultParams() {
		t.Errorf("detector params: got %+v, want defaults", p)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("empty path should give defaults, got %+v", cfg)
	}
}

func TestLoad_NotExists(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `camera:
  vertical_fov: 48.5
  profiles:
    pixel7:
      vertical_fov: 65
      fov_uncertainty: 1.5
    tele:
      vertical_fov: 20
detector:
  strategy: threshold
  centroid: false
history:
  path: /tmp/obs.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Camera.VerticalFOV != 48.5 {
		t.Errorf("vertical_fov: got %v, want 48.5", cfg.Camera.VerticalFOV)
	}
	// unset fields keep defaults
	if cfg.Camera.FOVUncertainty != 2 {
		t.Errorf("fov_uncertainty: got %v, want 2", cfg.Camera.FOVUncertainty)
	}
	if cfg.History.Path != "/tmp/obs.db" {
		t.Errorf("history path: got %q", cfg.History.Path)
	}
	if names := cfg.ProfileNames(); !reflect.DeepEqual(names, []string{"pixel7", "tele"}) {
		t.Errorf("profile names: got %v", names)
	}

	p, err := cfg.DetectorParams()
	if err != nil {
		t.Fatalf("DetectorParams failed: %v", err)
	}
	if p.Strategy != detection.StrategyThreshold || p.Centroid || p.LuminanceFloor != 45 {
		t.Errorf("detector params: got %+v", p)
	}
}

func TestLoad_PartialWeights(t *testing.T) {
	path := writeConfig(t, `scoring:
  max_candidates: 12
  weights:
    height: 0.5
    brightness: 0.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("a weights block summing to 1 should load: %v", err)
	}
	want := polaris.Weights{Height: 0.5, Brightness: 0.5}
	if cfg.Scoring.Weights != want {
		t.Errorf("weights: got %+v, want %+v", cfg.Scoring.Weights, want)
	}
	if cfg.Scoring.MaxCandidates != 12 {
		t.Errorf("max_candidates: got %d, want 12", cfg.Scoring.MaxCandidates)
	}
	if cfg.Scoring.Neighbors != polaris.DefaultNeighbors {
		t.Errorf("neighbors should keep its default, got %d", cfg.Scoring.Neighbors)
	}

	// no weights block: defaults stay
	cfg, err = Load(writeConfig(t, "scoring:\n  neighbors: 3\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scoring.Weights != polaris.DefaultWeights() {
		t.Errorf("weights: got %+v, want defaults", cfg.Scoring.Weights)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "camera: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "parsing config YAML") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero fov", "camera:\n  vertical_fov: 0\n"},
		{"huge fov", "camera:\n  vertical_fov: 200\n"},
		{"negative calibration", "camera:\n  calibration_error: -1\n"},
		{"bad profile", "camera:\n  profiles:\n    broken:\n      vertical_fov: -3\n"},
		{"unknown strategy", "detector:\n  strategy: hough\n"},
		{"bad background radius", "detector:\n  background_radius: 0\n"},
		{"zero centroid area", "detector:\n  centroid_max_area: 0\n"},
		{"weights do not sum", "scoring:\n  weights:\n    height: 0.9\n"},
		{"tolerance too wide", "compass:\n  north_tolerance: 270\n"},
		{"negative denoise", "frame:\n  denoise_sigma: -0.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLens(t *testing.T) {
	cfg := Default()
	cfg.Camera.Profiles = map[string]CameraProfile{
		"wide": {VerticalFOV: 75, FOVUncertainty: 3},
		"tele": {VerticalFOV: 20},
	}

	tests := []struct {
		profile         string
		wantFOV         float64
		wantUncertainty float64
	}{
		{"", 60, 2},
		{"wide", 75, 3},
		{"tele", 20, 2},
	}

	for _, tt := range tests {
		fov, solver, err := cfg.Lens(tt.profile)
		if err != nil {
			t.Fatalf("Lens(%q) failed: %v", tt.profile, err)
		}
		if fov != tt.wantFOV || solver.FOVUncertainty != tt.wantUncertainty {
			t.Errorf("Lens(%q): got fov %v ± %v, want %v ± %v", tt.profile, fov, solver.FOVUncertainty, tt.wantFOV, tt.wantUncertainty)
		}
		if solver.CalibrationError != 1 {
			t.Errorf("Lens(%q): calibration error %v, want 1", tt.profile, solver.CalibrationError)
		}
	}

	if _, _, err := cfg.Lens("fisheye"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestScorer(t *testing.T) {
	cfg := Default()
	cfg.Scoring.MaxCandidates = 10
	s := cfg.Scorer()
	if s.MaxCandidates != 10 {
		t.Errorf("max candidates: got %d, want 10", s.MaxCandidates)
	}
	if s.Weights.Height != 0.4 {
		t.Errorf("height weight: got %v, want 0.4", s.Weights.Height)
	}
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvPath, "/etc/kutup.yaml")
	if got := Resolve("/tmp/flag.yaml"); got != "/tmp/flag.yaml" {
		t.Errorf("flag should win, got %s", got)
	}
	if got := Resolve(""); got != "/etc/kutup.yaml" {
		t.Errorf("env fallback: got %s", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Camera.VerticalFOV = 55
	cfg.History.Path = "obs.db"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, cfg)
	}
}
