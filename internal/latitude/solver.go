// Package latitude converts the vertical position of Polaris in a frame into
// an estimate of the observer's latitude.
//
// Polaris sits within a degree of the north celestial pole, so its altitude
// above the horizon approximates the observer's latitude. With the camera
// held level, a star at the frame centre has altitude 0 and every pixel above
// centre adds verticalFOV/imageHeight degrees.
package latitude

import (
	"errors"
	"math"
)

// Solver defaults, in degrees.
const (
	DefaultFOVUncertainty   = 2.0
	DefaultCalibrationError = 1.0
)

var (
	// ErrInvalidHeight is returned for a non-positive image height.
	ErrInvalidHeight = errors.New("image height must be positive")

	// ErrInvalidFOV is returned for a field of view that is not a positive
	// finite number, or a non-finite pixel position.
	ErrInvalidFOV = errors.New("vertical field of view must be a positive finite number")
)

// Result is a latitude estimate. All values are degrees rounded to two
// decimal places, and UpperBound - LowerBound equals 2*ErrorMargin.
type Result struct {
	Latitude    float64 `json:"latitude"`
	LowerBound  float64 `json:"lower_bound"`
	UpperBound  float64 `json:"upper_bound"`
	ErrorMargin float64 `json:"error_margin"`
	Altitude    float64 `json:"altitude"`
}

// Solver holds the uncertainties propagated into the error margin.
type Solver struct {
	// FOVUncertainty is the ± error of the vertical field of view.
	FOVUncertainty float64

	// CalibrationError is a fixed device error added in quadrature.
	CalibrationError float64
}

// NewSolver returns a solver with ±2° FOV uncertainty and ±1° calibration
// error.
func NewSolver() *Solver {
	return &Solver{
		FOVUncertainty:   DefaultFOVUncertainty,
		CalibrationError: DefaultCalibrationError,
	}
}

// Solve estimates latitude with the default solver.
func Solve(pixelY float64, imageHeight int, verticalFOV float64) (Result, error) {
	return NewSolver().Solve(pixelY, imageHeight, verticalFOV)
}

// Solve estimates latitude from Polaris' pixel row.
//
// The FOV contribution to the error is the larger latitude shift obtained by
// re-solving with verticalFOV ± FOVUncertainty; it is combined with
// CalibrationError in quadrature. Values are rounded half away from zero, and
// the bounds are derived from the rounded latitude and margin.
func (s *Solver) Solve(pixelY float64, imageHeight int, verticalFOV float64) (Result, error) {
	if imageHeight <= 0 {
		return Result{}, ErrInvalidHeight
	}
	if !finite(verticalFOV) || verticalFOV <= 0 || !finite(pixelY) {
		return Result{}, ErrInvalidFOV
	}

	offset := float64(imageHeight)/2 - pixelY
	altitude := PixelToAngle(offset, imageHeight, verticalFOV)
	lat := altitude

	latLow := PixelToAngle(offset, imageHeight, verticalFOV-s.FOVUncertainty)
	latHigh := PixelToAngle(offset, imageHeight, verticalFOV+s.FOVUncertainty)
	fovErr := math.Max(math.Abs(latLow-lat), math.Abs(latHigh-lat))
	total := math.Sqrt(fovErr*fovErr + s.CalibrationError*s.CalibrationError)

	latR := Round2(lat)
	errR := Round2(total)
	return Result{
		Latitude:    latR,
		LowerBound:  Round2(latR - errR),
		UpperBound:  Round2(latR + errR),
		ErrorMargin: errR,
		Altitude:    Round2(altitude),
	}, nil
}

// PixelToAngle converts a vertical pixel offset into degrees.
func PixelToAngle(pixelOffset float64, imageHeight int, verticalFOV float64) float64 {
	if imageHeight <= 0 {
		return 0
	}
	return pixelOffset * verticalFOV / float64(imageHeight)
}

// AngularSeparation returns the angle in degrees between two points dx, dy
// pixels apart, assuming square pixels.
func AngularSeparation(dx, dy float64, imageHeight int, verticalFOV float64) float64 {
	return PixelToAngle(math.Hypot(dx, dy), imageHeight, verticalFOV)
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
