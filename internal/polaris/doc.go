// Package polaris picks the most likely Polaris among detected stars.
//
// Each candidate gets three sub-scores in [0, 1]:
//
//   - height: (H/2 - y)/H + 0.5, favouring the upper half of the frame
//   - brightness: luminance / 255
//   - isolation: mean distance to the nearest five other candidates divided
//     by the frame diagonal
//
// The total is their weighted sum, 0.4/0.3/0.3 by default. Only the brightest
// 30 stars are scored, which bounds the quadratic isolation pass.
package polaris
