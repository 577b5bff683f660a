package palmvec

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hupe1980/palmvec/embedding"
)

// decodeCache maps Base64 payload text to its normalized vector.
// Only successful normalizations are cached.
type decodeCache struct {
	lru *lru.Cache[string, embedding.Vector]
}

func newDecodeCache(size int) (*decodeCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, embedding.Vector](size)
	if err != nil {
		return nil, err
	}
	return &decodeCache{lru: c}, nil
}

func (c *decodeCache) get(text string) (embedding.Vector, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.lru.Get(text)
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

func (c *decodeCache) add(text string, v embedding.Vector) {
	if c == nil {
		return
	}
	c.lru.Add(text, v.Clone())
}

func (c *decodeCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
