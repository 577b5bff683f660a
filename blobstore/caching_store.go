package blobstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingStore wraps a BlobStore and keeps recently read blobs in memory.
//
// Snapshot blobs are immutable once written, so a cached entry stays valid
// until the blob is overwritten or deleted through this store. Writes that
// bypass the CachingStore are not observed; do not cache mutable pointers
// such as CURRENT unless every writer goes through the same instance.
type CachingStore struct {
	inner    BlobStore
	cache    *lru.Cache[string, []byte]
	maxBytes int64
}

// NewCachingStore creates a CachingStore holding up to entries blobs.
// Blobs larger than maxBytes are passed through uncached (0 means no limit).
func NewCachingStore(inner BlobStore, entries int, maxBytes int64) (*CachingStore, error) {
	c, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, err
	}
	return &CachingStore{
		inner:    inner,
		cache:    c,
		maxBytes: maxBytes,
	}, nil
}

// Open serves the blob from the cache, loading it in full on a miss.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if data, ok := s.cache.Get(name); ok {
		return NewBytesBlob(data), nil
	}

	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.maxBytes > 0 && b.Size() > s.maxBytes {
		return b, nil
	}
	defer func() { _ = b.Close() }()

	data, err := readBlob(ctx, b)
	if err != nil {
		return nil, err
	}
	s.cache.Add(name, data)
	return NewBytesBlob(data), nil
}

// Put invalidates the cached entry and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Remove(name)
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates the cached entry and deletes through.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Remove(name)
	return s.inner.Delete(ctx, name)
}

// List is not cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Cached reports whether name is currently held in the cache.
func (s *CachingStore) Cached(name string) bool {
	return s.cache.Contains(name)
}
