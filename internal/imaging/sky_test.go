package imaging

import (
	"image/color"
	"math"
	"testing"
)

func TestMeasureSky_Uniform(t *testing.T) {
	img := createInMemoryImage(50, 40, color.RGBA{30, 30, 30, 255})

	s, err := MeasureSky(img, nil)
	if err != nil {
		t.Fatalf("MeasureSky failed: %v", err)
	}

	if math.Abs(s.Mean-30) > 1e-9 {
		t.Errorf("Mean: got %f, want 30", s.Mean)
	}
	if math.Abs(s.StdDev) > 1e-9 {
		t.Errorf("StdDev: got %f, want 0", s.StdDev)
	}
	if s.Median != 30 || s.P99 != 30 {
		t.Errorf("Median/P99: got %v/%v, want 30/30", s.Median, s.P99)
	}
	if s.SaturatedFraction != 0 {
		t.Errorf("SaturatedFraction: got %f, want 0", s.SaturatedFraction)
	}
	if s.Tint != "#1e1e1e" {
		t.Errorf("Tint: got %s, want #1e1e1e", s.Tint)
	}
	if s.Condition != "dark" {
		t.Errorf("Condition: got %s, want dark", s.Condition)
	}
}

func TestMeasureSky_Conditions(t *testing.T) {
	tests := []struct {
		name      string
		fill      color.RGBA
		saturated int
		want      string
	}{
		{"dark sky", color.RGBA{20, 20, 35, 255}, 10, "dark"},
		{"twilight", color.RGBA{120, 130, 170, 255}, 0, "bright"},
		{"clipped", color.RGBA{20, 20, 20, 255}, 1000, "overexposed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(100, 100, tt.fill)
			for i := 0; i < tt.saturated; i++ {
				img.Set(i%100, i/100, color.White)
			}

			s, err := MeasureSky(img, nil)
			if err != nil {
				t.Fatalf("MeasureSky failed: %v", err)
			}
			if s.Condition != tt.want {
				t.Errorf("Condition: got %s, want %s (stats %+v)", s.Condition, tt.want, s)
			}
		})
	}
}

func TestMeasureSky_Region(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{20, 20, 20, 255})
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}

	top, err := MeasureSky(img, &Region{X1: 0, Y1: 0, X2: 100, Y2: 50})
	if err != nil {
		t.Fatalf("MeasureSky failed: %v", err)
	}
	bottom, err := MeasureSky(img, &Region{X1: 0, Y1: 50, X2: 100, Y2: 100})
	if err != nil {
		t.Fatalf("MeasureSky failed: %v", err)
	}

	if top.Median != 200 || bottom.Median != 20 {
		t.Errorf("region medians: got top %v bottom %v, want 200 and 20", top.Median, bottom.Median)
	}
}

func TestMeasureSky_InvalidRegion(t *testing.T) {
	img := createInMemoryImage(100, 100, color.Black)

	regions := []Region{
		{X1: -1, Y1: 0, X2: 50, Y2: 50},
		{X1: 0, Y1: 0, X2: 101, Y2: 50},
		{X1: 50, Y1: 50, X2: 50, Y2: 60},
	}
	for _, r := range regions {
		r := r
		if _, err := MeasureSky(img, &r); err == nil {
			t.Errorf("MeasureSky should fail for region %+v", r)
		}
	}
}
