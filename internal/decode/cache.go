package decode

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Raikerian/encodec-explorer/internal/codes"
)

// Cache keeps stitched buffers for recently decoded grids. Values are copied
// on the way in and out so callers may hand them to other goroutines.
type Cache struct {
	lru *lru.Cache[string, []float32]
}

// NewCache returns a cache of the given size. A size <= 0 disables caching.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		return &Cache{}, nil
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

func (c *Cache) Add(g codes.Grid, pcm []float32) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(g.Key(), append([]float32(nil), pcm...))
}

func (c *Cache) Get(g codes.Grid) ([]float32, bool) {
	if c == nil || c.lru == nil {
		return nil, false
	}
	pcm, ok := c.lru.Get(g.Key())
	if !ok {
		return nil, false
	}
	return append([]float32(nil), pcm...), true
}

func (c *Cache) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *Cache) Purge() {
	if c != nil && c.lru != nil {
		c.lru.Purge()
	}
}
