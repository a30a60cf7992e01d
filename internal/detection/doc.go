// Package detection finds point sources (stars) in night-sky frames.
//
// The detector consumes a PixelBuffer of 8-bit luminance samples and returns
// the stars it finds, brightest first. It is a pure function of its input:
// there is no internal state, no I/O and no concurrency, so one Detector may
// be shared by any number of goroutines.
//
// # Strategies
//
// Two candidate extraction strategies sit behind the same Detector:
//
//   - StrategyProminence (default): every interior pixel brighter than
//     LuminanceFloor that is a 3x3 local maximum is compared with the mean of
//     its (2*BackgroundRadius+1)² window. The window mean comes from a
//     summed-area table, so the query cost does not depend on window size.
//     Peaks with prominence (luminance minus local mean) of at least
//     MinProminence become candidates.
//   - StrategyThreshold: an adaptive global threshold (mean + 1.1σ, clamped to
//     120-235) seeds an 8-connected flood fill over pixels above a lower
//     threshold. Small regions (1-64 px) become candidates at their centroid.
//
// Both strategies finish with the same non-maximum suppression: candidates are
// visited in descending peak luminance and dropped when they lie within
// SuppressionRadius of an already accepted star. At most MaxStars are kept.
//
// # Centroids
//
// With Centroid enabled, each prominence peak is refined by growing a region
// of pixels at or above half the peak's prominence and reporting the
// background-subtracted, brightness-weighted centroid. An isolated single
// bright pixel is reported at its own integer position. The region is not
// clipped around the peak, so a saturated disc, whose peak is the raster-first
// pixel on its top edge, is still centred on the disc. Growth stops after
// CentroidMaxArea pixels.
//
// # Coordinate System
//
// Origin (0, 0) is the top-left pixel; X increases rightward and Y downward.
package detection
