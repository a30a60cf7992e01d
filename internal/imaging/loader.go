package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// FrameCache provides thread-safe caching of decoded sky frames.
//
// Frames are keyed by the path string they were loaded from. Once a frame is
// decoded, subsequent Load calls for the same path return the cached copy
// without disk I/O, which matters when an MCP client detects, scores and
// annotates the same photograph in separate tool calls.
//
// # Memory Management
//
// Full-resolution phone photographs are large (a 12 MP frame is ~48 MB as
// NRGBA). Cached frames remain in memory until removed via Evict or Clear.
//
// # Example Usage
//
//	cache := imaging.NewFrameCache()
//	img, err := cache.Load("/path/to/sky.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/sky.jpg")
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]cachedFrame
}

type cachedFrame struct {
	img    image.Image
	format string
}

// NewFrameCache creates an empty frame cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]cachedFrame),
	}
}

// Load returns the decoded frame at path, reading it from disk on first use.
//
// Supported formats are JPEG, PNG, GIF, BMP and TIFF. Different spellings of
// the same path (relative vs absolute) are cached separately.
func (c *FrameCache) Load(path string) (image.Image, error) {
	f, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return f.img, nil
}

func (c *FrameCache) load(path string) (cachedFrame, error) {
	c.mu.RLock()
	if f, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	file, err := os.Open(path)
	if err != nil {
		return cachedFrame{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return cachedFrame{}, fmt.Errorf("failed to decode image: %w", err)
	}

	f := cachedFrame{img: img, format: format}
	c.mu.Lock()
	c.frames[path] = f
	c.mu.Unlock()

	return f, nil
}

// Clear removes all frames from the cache.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]cachedFrame)
	c.mu.Unlock()
}

// Evict removes one frame. Unknown paths are ignored.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// FrameInfo describes a loaded photograph.
type FrameInfo struct {
	// Width and Height are in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder that read the file: "jpeg", "png", "gif", "bmp"
	// or "tiff".
	Format string `json:"format"`

	// Orientation is "portrait", "landscape" or "square". Latitude is
	// measured along the vertical axis, so portrait frames give finer
	// angular resolution for a given field of view.
	Orientation string `json:"orientation"`

	// Megapixels is Width*Height/1e6, rounded to one decimal.
	Megapixels float64 `json:"megapixels"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Sky summarises the frame's luminance.
	Sky *SkyStats `json:"sky"`
}

// LoadFrameInfo loads path through cache and describes it.
func LoadFrameInfo(cache *FrameCache, path string) (*FrameInfo, error) {
	f, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	bounds := f.img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	orientation := "square"
	switch {
	case h > w:
		orientation = "portrait"
	case w > h:
		orientation = "landscape"
	}

	sky, err := MeasureSky(f.img, nil)
	if err != nil {
		return nil, err
	}

	return &FrameInfo{
		Width:         w,
		Height:        h,
		Format:        f.format,
		Orientation:   orientation,
		Megapixels:    float64(int(float64(w*h)/1e5+0.5)) / 10,
		FileSizeBytes: stat.Size(),
		Sky:           sky,
	}, nil
}
