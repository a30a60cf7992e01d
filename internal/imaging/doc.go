// Package imaging handles the photographs around star detection: loading and
// caching frames, preparing them for detection, measuring sky conditions,
// cutting out stars and drawing annotated result images.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is the top-left corner, X increases rightward and Y
// increases downward. This matches the detection package, so star positions
// can be passed straight through.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Star positions may be fractional; they refer to pixel centres
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. The remaining functions are
// stateless and never modify their input image.
//
// # Output Images
//
// Cutouts and annotated frames are returned as base64-encoded PNG so they
// can be embedded directly in MCP tool results.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions or centres outside the image bounds
//   - Non-positive radii or scale factors
//   - Malformed hex colours
//   - File I/O and decoding errors during loading
package imaging
