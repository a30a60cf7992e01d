package heading

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{370, 10},
		{-10, 350},
		{-720, 0},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Normalize(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCardinal(t *testing.T) {
	tests := []struct {
		az   float64
		want string
	}{
		{0, "N"},
		{22.4, "N"},
		{22.5, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{337.5, "N"},
		{359, "N"},
		{-45, "NW"},
	}
	for _, tt := range tests {
		if got := Cardinal(tt.az); got != tt.want {
			t.Errorf("Cardinal(%v): got %s, want %s", tt.az, got, tt.want)
		}
	}
}

func TestFacingNorth(t *testing.T) {
	tests := []struct {
		az   float64
		want bool
	}{
		{0, true},
		{15, true},
		{345, true},
		{16, false},
		{90, false},
		{225, false},
	}
	for _, tt := range tests {
		if got := FacingNorth(tt.az, DefaultTolerance); got != tt.want {
			t.Errorf("FacingNorth(%v): got %v, want %v", tt.az, got, tt.want)
		}
	}
}

func TestDeviationAndCorrection(t *testing.T) {
	tests := []struct {
		az, deviation float64
	}{
		{0, 0},
		{90, 90},
		{180, 180},
		{225, -135},
		{350, -10},
	}
	for _, tt := range tests {
		if got := DeviationFromNorth(tt.az); math.Abs(got-tt.deviation) > 1e-9 {
			t.Errorf("DeviationFromNorth(%v): got %v, want %v", tt.az, got, tt.deviation)
		}
		if got := CorrectionAngle(tt.az); math.Abs(got+tt.deviation) > 1e-9 {
			t.Errorf("CorrectionAngle(%v): got %v, want %v", tt.az, got, -tt.deviation)
		}
	}
}

func TestRead(t *testing.T) {
	r := Read(-20, 15)
	if math.Abs(r.Azimuth-340) > 1e-9 {
		t.Errorf("azimuth: got %v, want 340", r.Azimuth)
	}
	if r.Cardinal != "N" || r.FacingNorth {
		t.Errorf("got cardinal %s facing north %v, want N and false", r.Cardinal, r.FacingNorth)
	}
	if math.Abs(r.Deviation+20) > 1e-9 || math.Abs(r.Correction-20) > 1e-9 {
		t.Errorf("deviation/correction: got %v/%v, want -20/20", r.Deviation, r.Correction)
	}
}

func TestCalibrator(t *testing.T) {
	var c Calibrator
	if got := c.Calibrate(0); got != 0 {
		t.Errorf("empty calibrator offset: got %v, want 0", got)
	}

	for _, az := range []float64{2, 4, 6} {
		c.Collect(az)
	}
	if c.Len() != 3 {
		t.Errorf("Len: got %d, want 3", c.Len())
	}
	if got := c.Calibrate(0); math.Abs(got+4) > 1e-9 {
		t.Errorf("offset: got %v, want -4", got)
	}
	if c.Len() != 0 {
		t.Errorf("Calibrate should reset samples, Len %d", c.Len())
	}
}

func TestCalibrator_WrapsAroundNorth(t *testing.T) {
	var c Calibrator
	c.Collect(350)
	c.Collect(10)
	if got := c.Calibrate(0); math.Abs(got) > 1e-9 {
		t.Errorf("350 and 10 should average to north, offset %v", got)
	}

	c.Collect(80)
	c.Collect(100)
	if got := c.Calibrate(80); math.Abs(got+10) > 1e-9 {
		t.Errorf("offset: got %v, want -10", got)
	}
}
