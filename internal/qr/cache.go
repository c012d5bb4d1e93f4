package qr

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheEntries bounds how many page addresses keep an encoded image.
const DefaultCacheEntries = 64

// Cache holds encoded PNGs by page address, evicting the least recently
// used address once it holds maxEntries images.
type Cache struct {
	size int
	pngs *lru.Cache[string, []byte]
}

// NewCache returns a Cache encoding images of size pixels.
func NewCache(size, maxEntries int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	pngs, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{size: size, pngs: pngs}, nil
}

// PNG returns the cached image for pageURL, encoding it on first use.
func (c *Cache) PNG(pageURL string) ([]byte, error) {
	if png, ok := c.pngs.Get(pageURL); ok {
		return png, nil
	}

	png, err := PNG(pageURL, c.size)
	if err != nil {
		return nil, err
	}
	c.pngs.Add(pageURL, png)
	return png, nil
}

// Len reports the number of cached images.
func (c *Cache) Len() int {
	return c.pngs.Len()
}
