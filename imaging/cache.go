package imaging

import (
	"image"
	"sync"
)

type cacheKey struct {
	source string
	width  int
	height int
}

// Cache memoizes quantized fragments by (source, width, height) so a logo
// that appears on every label is converted once per process. Entries live
// until Clear is called.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]Fragment
	// loadFile is swappable for tests
	loadFile func(string) (image.Image, error)
}

// NewCache creates an empty fragment cache
func NewCache() *Cache {
	return &Cache{
		entries:  make(map[cacheKey]Fragment),
		loadFile: LoadFile,
	}
}

// QuantizeFile loads, quantizes and caches the image at path. Repeated
// calls with the same path and target size return the cached fragment.
func (c *Cache) QuantizeFile(path string, targetWidth, targetHeight int) (Fragment, error) {
	key := cacheKey{source: path, width: targetWidth, height: targetHeight}

	c.mu.Lock()
	if frag, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return frag, nil
	}
	load := c.loadFile
	c.mu.Unlock()

	img, err := load(path)
	if err != nil {
		return Fragment{}, err
	}
	frag := Quantize(img, targetWidth, targetHeight)

	c.mu.Lock()
	c.entries[key] = frag
	c.mu.Unlock()
	return frag, nil
}

// Len returns the number of cached fragments
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all cached fragments
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]Fragment)
}
