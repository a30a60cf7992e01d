package detection

import "math"

// Adaptive threshold bounds for StrategyThreshold.
const (
	thresholdSigma    = 1.1
	thresholdHighMin  = 120
	thresholdHighMax  = 235
	thresholdLowDelta = 25
	thresholdLowMin   = 90
	regionMinArea     = 1
	regionMaxArea     = 64
)

// adaptiveThresholds derives the seed (high) and growth (low) thresholds from
// the frame's global mean and standard deviation.
func adaptiveThresholds(buf *PixelBuffer) (high, low int) {
	n := float64(len(buf.Pix))
	var sum float64
	for _, v := range buf.Pix {
		sum += float64(v)
	}
	mean := sum / n

	var varSum float64
	for _, v := range buf.Pix {
		d := float64(v) - mean
		varSum += d * d
	}
	std := math.Sqrt(varSum / n)

	high = int(mean + thresholdSigma*std)
	if high < thresholdHighMin {
		high = thresholdHighMin
	}
	if high > thresholdHighMax {
		high = thresholdHighMax
	}
	low = high - thresholdLowDelta
	if low < thresholdLowMin {
		low = thresholdLowMin
	}
	return high, low
}

// thresholdCandidates extracts stars as connected regions above an adaptive
// global threshold.
//
// Seeds are pixels at or above the high threshold that no neighbour exceeds.
// From each seed an 8-connected flood fill collects pixels at or above the
// low threshold. Regions with area 1-64 become candidates at their centroid,
// with the region's mean luminance as brightness.
func thresholdCandidates(buf *PixelBuffer) []candidate {
	w, h := buf.Width, buf.Height
	high, low := adaptiveThresholds(buf)

	visited := make([]bool, w*h)
	candidates := make([]candidate, 0)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] {
				continue
			}
			seed := buf.Pix[idx]
			if int(seed) < high || !isLocalMax(buf, x, y) {
				continue
			}

			region := floodFill(buf, visited, x, y, low)
			if region.area < regionMinArea || region.area > regionMaxArea || region.max < high {
				continue
			}

			area := float64(region.area)
			candidates = append(candidates, candidate{
				peak: float64(region.max),
				star: Star{
					X:          region.sumX / area,
					Y:          region.sumY / area,
					Brightness: clampBrightness(region.sumLum / area),
				},
			})
		}
	}
	return candidates
}

// isLocalMax reports whether no pixel in the 3x3 neighbourhood of (x, y) is
// brighter. Edge pixels compare against their in-frame neighbours only.
func isLocalMax(buf *PixelBuffer, x, y int) bool {
	w, h := buf.Width, buf.Height
	v := buf.Pix[y*w+x]
	for ny := max(0, y-1); ny <= min(h-1, y+1); ny++ {
		for nx := max(0, x-1); nx <= min(w-1, x+1); nx++ {
			if nx == x && ny == y {
				continue
			}
			if buf.Pix[ny*w+nx] > v {
				return false
			}
		}
	}
	return true
}

// regionStats accumulates the pixels of one flood-filled region.
type regionStats struct {
	area   int
	sumX   float64
	sumY   float64
	sumLum float64
	max    int
}

// floodFill performs an iterative 8-connected flood fill from (startX, startY)
// over pixels at or above low.
//
// Uses an explicit stack rather than recursion so large regions cannot
// overflow the goroutine stack. Every pixel reached is marked visited, even
// when it is below low, so it is never used as a later seed.
func floodFill(buf *PixelBuffer, visited []bool, startX, startY, low int) regionStats {
	w, h := buf.Width, buf.Height
	var stats regionStats

	stack := []point{{startX, startY}}
	visited[startY*w+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := int(buf.Pix[p.y*w+p.x])
		if v < low {
			continue
		}

		stats.area++
		stats.sumX += float64(p.x)
		stats.sumY += float64(p.y)
		stats.sumLum += float64(v)
		if v > stats.max {
			stats.max = v
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.x+dx, p.y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if visited[ni] {
					continue
				}
				visited[ni] = true
				stack = append(stack, point{nx, ny})
			}
		}
	}
	return stats
}
