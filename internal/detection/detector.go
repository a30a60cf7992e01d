package detection

import (
	"fmt"
	"sort"
	"strings"
)

// minDimension is the smallest width or height the detector will scan.
const minDimension = 8

// Star is a detected point source.
//
// X and Y are pixel coordinates with sub-pixel precision when centroid
// refinement is enabled. Brightness is the mean luminance (0-255) of the
// pixels that make up the source.
type Star struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Brightness float64 `json:"brightness"`
}

// Strategy selects how raw star candidates are extracted from the frame.
type Strategy int

const (
	// StrategyProminence finds 3x3 local maxima and keeps those that stand
	// out from their local background mean. Robust to sky glow and vignetting.
	StrategyProminence Strategy = iota

	// StrategyThreshold flood-fills regions above an adaptive global
	// threshold. Simpler, and weaker on unevenly lit frames.
	StrategyThreshold
)

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyProminence:
		return "prominence"
	case StrategyThreshold:
		return "threshold"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a configuration name to a Strategy. The empty string
// selects StrategyProminence.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "prominence", "peak":
		return StrategyProminence, nil
	case "threshold", "flood", "flood-fill":
		return StrategyThreshold, nil
	default:
		return 0, fmt.Errorf("unknown detection strategy: %s", name)
	}
}

// Params controls star detection.
type Params struct {
	// Strategy selects candidate extraction. Default StrategyProminence.
	Strategy Strategy

	// LuminanceFloor is the value a peak must exceed to be considered.
	LuminanceFloor int

	// BackgroundRadius is the half-size of the local background window
	// (radius 4 gives a 9x9 window). Pixels closer than this to the frame
	// edge are never peaks.
	BackgroundRadius int

	// MinProminence is the minimum luminance above the local mean.
	MinProminence float64

	// SuppressionRadius is the minimum separation between reported stars.
	SuppressionRadius float64

	// MaxStars caps the number of reported stars. Zero disables the cap.
	MaxStars int

	// Centroid enables brightness-weighted sub-pixel centroiding of each peak.
	Centroid bool

	// CentroidMaxArea caps the number of pixels grown around a peak when
	// centroiding.
	CentroidMaxArea int
}

// DefaultParams returns the detector defaults.
func DefaultParams() Params {
	return Params{
		Strategy:          StrategyProminence,
		LuminanceFloor:    45,
		BackgroundRadius:  4,
		MinProminence:     12.0,
		SuppressionRadius: 4.0,
		MaxStars:          400,
		Centroid:          true,
		CentroidMaxArea:   1024,
	}
}

// Validate reports parameter values the detector cannot work with.
func (p Params) Validate() error {
	if p.Strategy != StrategyProminence && p.Strategy != StrategyThreshold {
		return fmt.Errorf("unknown detection strategy %d", int(p.Strategy))
	}
	if p.LuminanceFloor < 0 || p.LuminanceFloor > 255 {
		return fmt.Errorf("luminance floor %d outside 0-255", p.LuminanceFloor)
	}
	if p.BackgroundRadius < 1 {
		return fmt.Errorf("background radius must be at least 1, got %d", p.BackgroundRadius)
	}
	if p.MinProminence < 0 {
		return fmt.Errorf("minimum prominence must not be negative, got %g", p.MinProminence)
	}
	if p.SuppressionRadius < 0 {
		return fmt.Errorf("suppression radius must not be negative, got %g", p.SuppressionRadius)
	}
	if p.MaxStars < 0 {
		return fmt.Errorf("max stars must not be negative, got %d", p.MaxStars)
	}
	if p.Centroid && p.CentroidMaxArea < 1 {
		return fmt.Errorf("centroid max area must be at least 1, got %d", p.CentroidMaxArea)
	}
	return nil
}

// Detector extracts stars from luminance buffers. It holds no state between
// calls and is safe for concurrent use.
type Detector struct {
	params Params
}

// NewDetector returns a detector using p.
func NewDetector(p Params) *Detector {
	return &Detector{params: p}
}

// Params returns the detector's parameters.
func (d *Detector) Params() Params {
	return d.params
}

// Detect runs the default detector over buf.
func Detect(buf *PixelBuffer) []Star {
	return NewDetector(DefaultParams()).Detect(buf)
}

// Detect returns the stars found in buf, brightest first.
//
// A nil buffer or one smaller than 8x8 yields an empty slice. Uniform or
// noise-only frames yield few or no stars; Detect never fails.
func (d *Detector) Detect(buf *PixelBuffer) []Star {
	if buf == nil || buf.Width < minDimension || buf.Height < minDimension {
		return []Star{}
	}
	if len(buf.Pix) < buf.Width*buf.Height {
		return []Star{}
	}

	var raw []candidate
	switch d.params.Strategy {
	case StrategyThreshold:
		raw = thresholdCandidates(buf)
	default:
		raw = d.prominenceCandidates(buf)
	}
	return suppress(raw, d.params.SuppressionRadius, d.params.MaxStars)
}

// candidate is a star before non-maximum suppression. peak orders
// candidates; star carries the reported position and brightness.
type candidate struct {
	peak float64
	star Star
}

// prominenceCandidates finds local maxima that rise at least MinProminence
// above the mean of their background window.
func (d *Detector) prominenceCandidates(buf *PixelBuffer) []candidate {
	p := d.params
	w, h := buf.Width, buf.Height
	r := p.BackgroundRadius
	if 2*r >= w || 2*r >= h {
		return nil
	}

	integral := newIntegralImage(buf)
	candidates := make([]candidate, 0)

	for y := r; y < h-r; y++ {
		for x := r; x < w-r; x++ {
			lum := buf.Pix[y*w+x]
			if int(lum) <= p.LuminanceFloor {
				continue
			}
			if !isPeak(buf, x, y) {
				continue
			}

			mean := integral.windowMean(x, y, r)
			prominence := float64(lum) - mean
			if prominence < p.MinProminence {
				continue
			}

			star := Star{X: float64(x), Y: float64(y), Brightness: float64(lum)}
			if p.Centroid {
				star = refineCentroid(buf, x, y, mean, prominence, p.CentroidMaxArea)
			}
			candidates = append(candidates, candidate{peak: float64(lum), star: star})
		}
	}
	return candidates
}

// isPeak reports whether (x, y) is a local maximum of its 3x3 neighbourhood.
//
// A strictly brighter neighbour disqualifies the pixel. An equally bright
// neighbour disqualifies it only if that neighbour comes earlier in raster
// order, so a flat plateau produces a single peak. The caller guarantees
// (x, y) is not on the frame edge.
func isPeak(buf *PixelBuffer, x, y int) bool {
	w := buf.Width
	v := buf.Pix[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := buf.Pix[(y+dy)*w+x+dx]
			if n > v {
				return false
			}
			if n == v && (dy < 0 || (dy == 0 && dx < 0)) {
				return false
			}
		}
	}
	return true
}

// point is an integer pixel coordinate used during region growing.
type point struct {
	x, y int
}

// refineCentroid grows an 8-connected region from the peak over pixels at or
// above half the peak's prominence and returns the background-subtracted
// brightness-weighted centroid. The region follows the star to its edge in
// every direction; growth stops after maxArea pixels.
//
// Brightness is the mean luminance of the region's pixels.
func refineCentroid(buf *PixelBuffer, px, py int, background, prominence float64, maxArea int) Star {
	w, h := buf.Width, buf.Height
	level := background + prominence/2

	visited := map[int]struct{}{py*w + px: {}}
	queue := []point{{px, py}}

	var sumW, sumX, sumY, sumLum float64
	count := 0

	for len(queue) > 0 && count < maxArea {
		p := queue[0]
		queue = queue[1:]

		lum := float64(buf.Pix[p.y*w+p.x])
		if lum < level {
			continue
		}

		weight := lum - background
		sumW += weight
		sumX += weight * float64(p.x)
		sumY += weight * float64(p.y)
		sumLum += lum
		count++

		for ny := -1; ny <= 1; ny++ {
			for nx := -1; nx <= 1; nx++ {
				x, y := p.x+nx, p.y+ny
				if x < 0 || x >= w || y < 0 || y >= h {
					continue
				}
				if _, seen := visited[y*w+x]; seen {
					continue
				}
				visited[y*w+x] = struct{}{}
				queue = append(queue, point{x, y})
			}
		}
	}

	if count == 0 || sumW <= 0 {
		return Star{X: float64(px), Y: float64(py), Brightness: float64(buf.Pix[py*w+px])}
	}
	return Star{
		X:          sumX / sumW,
		Y:          sumY / sumW,
		Brightness: clampBrightness(sumLum / float64(count)),
	}
}

// suppress applies non-maximum suppression: candidates are visited brightest
// peak first and kept only when farther than radius from every kept star.
func suppress(candidates []candidate, radius float64, limit int) []Star {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].peak > candidates[j].peak
	})

	r2 := radius * radius
	kept := make([]Star, 0)
	for _, c := range candidates {
		if limit > 0 && len(kept) >= limit {
			break
		}
		tooClose := false
		for _, k := range kept {
			dx := c.star.X - k.X
			dy := c.star.Y - k.Y
			if dx*dx+dy*dy <= r2 {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, c.star)
		}
	}
	return kept
}

func clampBrightness(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Brightest returns up to n stars ordered by brightness, brightest first.
// The input slice is not modified.
func Brightest(stars []Star, n int) []Star {
	sorted := make([]Star, len(stars))
	copy(sorted, stars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Brightness > sorted[j].Brightness
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Topmost returns up to n stars ordered by vertical position, highest in the
// frame (smallest Y) first. The input slice is not modified.
func Topmost(stars []Star, n int) []Star {
	sorted := make([]Star, len(stars))
	copy(sorted, stars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
