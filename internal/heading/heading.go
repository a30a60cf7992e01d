// Package heading interprets compass azimuths for aiming the camera north.
//
// Azimuths are degrees clockwise from north: 0 = N, 90 = E, 180 = S,
// 270 = W. Reading the sensor belongs to the caller; this package only turns
// a value into directions and corrections.
package heading

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// DefaultTolerance is how far from north, in degrees, still counts as facing
// north.
const DefaultTolerance = 15.0

// cardinals are the eight compass points in 45° sectors starting at north.
var cardinals = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Normalize maps any azimuth into [0, 360).
func Normalize(azimuth float64) float64 {
	a := math.Mod(azimuth, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// Cardinal returns the eight-point compass direction for azimuth.
func Cardinal(azimuth float64) string {
	idx := int((Normalize(azimuth)+22.5)/45) % 8
	return cardinals[idx]
}

// FacingNorth reports whether azimuth lies within tolerance degrees of north.
func FacingNorth(azimuth, tolerance float64) bool {
	return math.Abs(DeviationFromNorth(azimuth)) <= tolerance
}

// DeviationFromNorth returns the signed deviation in (-180, 180]. Positive
// values are east of north.
func DeviationFromNorth(azimuth float64) float64 {
	a := Normalize(azimuth)
	if a <= 180 {
		return a
	}
	return a - 360
}

// CorrectionAngle is the rotation in degrees that brings north back to the
// centre of the frame.
func CorrectionAngle(azimuth float64) float64 {
	return -DeviationFromNorth(azimuth)
}

// Reading summarises one azimuth.
type Reading struct {
	Azimuth     float64 `json:"azimuth"`
	Cardinal    string  `json:"cardinal"`
	FacingNorth bool    `json:"facing_north"`
	Deviation   float64 `json:"deviation"`
	Correction  float64 `json:"correction"`
}

// Read interprets azimuth with the given north tolerance.
func Read(azimuth, tolerance float64) Reading {
	a := Normalize(azimuth)
	return Reading{
		Azimuth:     a,
		Cardinal:    Cardinal(a),
		FacingNorth: FacingNorth(a, tolerance),
		Deviation:   DeviationFromNorth(a),
		Correction:  CorrectionAngle(a),
	}
}

// Calibrator accumulates readings taken while the device points at a known
// azimuth and derives the sensor offset. It is safe for concurrent use.
type Calibrator struct {
	mu       sync.Mutex
	readings []float64
}

// Collect records one raw azimuth.
func (c *Calibrator) Collect(azimuth float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readings = append(c.readings, azimuth*math.Pi/180)
}

// Len returns the number of readings collected since the last Calibrate.
func (c *Calibrator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.readings)
}

// Calibrate returns the offset to add to raw readings so they match
// expected, and clears the collected readings. The readings are averaged on
// the circle, so 350° and 10° average to 0°. With no readings it returns 0.
func (c *Calibrator) Calibrate(expected float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.readings) == 0 {
		return 0
	}
	mean := stat.CircularMean(c.readings, nil) * 180 / math.Pi
	c.readings = nil
	return DeviationFromNorth(expected - mean)
}
