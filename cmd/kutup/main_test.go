package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/uygaratabay1015-boop/kutupp/internal/config"
	"github.com/uygaratabay1015-boop/kutupp/internal/pipeline"
)

func defaultLoader() (*config.Config, error) { return config.Default(), nil }

func TestAnalyzeCmdFlags(t *testing.T) {
	cmd := newAnalyzeCmd(defaultLoader)
	f := cmd.Flags()

	outputFmt, _ := f.GetString("output")
	if outputFmt != "text" {
		t.Errorf("default output = %q, want text", outputFmt)
	}
	fov, _ := f.GetFloat64("fov")
	if fov != 0 {
		t.Errorf("default fov = %v, want 0 (from configuration)", fov)
	}

	for _, flag := range []string{"profile", "fov", "azimuth", "max-dimension", "output", "annotate", "geojson", "record", "note"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestGenSkyCmdFlags(t *testing.T) {
	cmd := newGenSkyCmd()
	f := cmd.Flags()

	width, _ := f.GetInt("width")
	height, _ := f.GetInt("height")
	if width != 1080 || height != 1920 {
		t.Errorf("default size = %dx%d, want 1080x1920", width, height)
	}
	position, _ := f.GetString("position")
	if position != "top_center" {
		t.Errorf("default position = %q, want top_center", position)
	}

	for _, flag := range []string{"width", "height", "stars", "position", "background", "blur", "seed"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestHistoryCmd(t *testing.T) {
	cmd := newHistoryCmd(defaultLoader)

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "summary"} {
		if !names[want] {
			t.Errorf("missing subcommand: %s", want)
		}
	}

	// the default configuration has no history database
	cmd.SetArgs([]string{"summary"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Errorf("expected history-disabled error, got %v", err)
	}
}

func TestRootCmd(t *testing.T) {
	root := newRootCmd()
	for _, flag := range []string{"config", "debug"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag: %s", flag)
		}
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if got := out.String(); got != "kutup dev\n" {
		t.Errorf("version output = %q", got)
	}
}

// writeSky saves a 200x100 frame with one bright star at (100,20).
func writeSky(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	for y := 19; y <= 21; y++ {
		for x := 99; x <= 101; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "sky.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("saving frame: %v", err)
	}
	return path
}

func defaultOptions() (pipeline.Options, error) { return pipeline.DefaultOptions(), nil }

func TestRunAnalyze_Text(t *testing.T) {
	path := writeSky(t)
	dir := t.TempDir()
	annotated := filepath.Join(dir, "annotated.png")
	geo := filepath.Join(dir, "band.geojson")

	var out bytes.Buffer
	err := runAnalyze(context.Background(), &out, "", defaultOptions, analyzeOpts{
		imagePath:    path,
		maxDimension: -1,
		outputFmt:    "text",
		annotatePath: annotated,
		geojsonPath:  geo,
	})
	if err != nil {
		t.Fatalf("runAnalyze failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Stars detected: 1", "Latitude: 18.00° ± 1.17°", "Range: 16.83° to 19.17°"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	if _, err := imaging.Open(annotated); err != nil {
		t.Errorf("annotated frame not readable: %v", err)
	}
	data, err := os.ReadFile(geo)
	if err != nil {
		t.Fatalf("GeoJSON not written: %v", err)
	}
	if !strings.Contains(string(data), "FeatureCollection") {
		t.Errorf("unexpected GeoJSON: %s", data)
	}
}

func TestRunAnalyze_JSONAndFOV(t *testing.T) {
	path := writeSky(t)

	var out bytes.Buffer
	err := runAnalyze(context.Background(), &out, "", defaultOptions, analyzeOpts{
		imagePath:    path,
		fov:          30,
		maxDimension: -1,
		outputFmt:    "json",
	})
	if err != nil {
		t.Fatalf("runAnalyze failed: %v", err)
	}
	if !strings.Contains(out.String(), `"latitude": 9`) {
		t.Errorf("expected latitude 9 in JSON output:\n%s", out.String())
	}
}

func TestRunAnalyze_Errors(t *testing.T) {
	path := writeSky(t)

	tests := []struct {
		name string
		opts analyzeOpts
		hist string
	}{
		{"bad output", analyzeOpts{imagePath: path, outputFmt: "xml"}, ""},
		{"record without history", analyzeOpts{imagePath: path, outputFmt: "text", record: true}, ""},
		{"missing file", analyzeOpts{imagePath: filepath.Join(t.TempDir(), "none.png"), outputFmt: "text"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runAnalyze(context.Background(), &bytes.Buffer{}, tt.hist, defaultOptions, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunAnalyze_Record(t *testing.T) {
	path := writeSky(t)
	db := filepath.Join(t.TempDir(), "history.db")

	var out bytes.Buffer
	err := runAnalyze(context.Background(), &out, db, defaultOptions, analyzeOpts{
		imagePath:    path,
		maxDimension: -1,
		outputFmt:    "text",
		record:       true,
		note:         "test",
	})
	if err != nil {
		t.Fatalf("runAnalyze failed: %v", err)
	}
	if !strings.Contains(out.String(), "Recorded as ") {
		t.Errorf("expected record confirmation:\n%s", out.String())
	}
}

func TestRunAnalyze_NoStars(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	path := filepath.Join(t.TempDir(), "dark.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("saving frame: %v", err)
	}

	var out bytes.Buffer
	err := runAnalyze(context.Background(), &out, "", defaultOptions, analyzeOpts{
		imagePath:    path,
		maxDimension: -1,
		outputFmt:    "text",
	})
	if err == nil {
		t.Fatal("text output should fail when no stars are found")
	}
	if !strings.Contains(out.String(), "no stars detected") {
		t.Errorf("expected warning in output:\n%s", out.String())
	}
}
