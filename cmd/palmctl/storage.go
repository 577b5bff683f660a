package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/palmvec/blobstore"
	"github.com/hupe1980/palmvec/blobstore/minio"
	"github.com/hupe1980/palmvec/blobstore/s3"
	"github.com/hupe1980/palmvec/config"
	"github.com/hupe1980/palmvec/gallery"
	"github.com/hupe1980/palmvec/registry"
)

// openBlobStore builds the configured snapshot backend.
func openBlobStore(ctx context.Context, sc config.StorageConfig) (blobstore.BlobStore, error) {
	var (
		store blobstore.BlobStore
		err   error
	)

	switch strings.ToLower(sc.Backend) {
	case "memory":
		store = blobstore.NewMemoryStore()
	case "local":
		store = blobstore.NewLocalStore(sc.Dir)
	case "s3":
		s3opts := func(o *s3.Options) {
			o.Prefix = sc.Prefix
			o.Region = sc.Region
			o.Endpoint = sc.Endpoint
			o.UsePathStyle = sc.PathStyle
		}
		if sc.CommitTable != "" {
			store, err = s3.NewWithDDB(ctx, sc.Bucket, sc.CommitTable, s3opts)
		} else {
			store, err = s3.New(ctx, sc.Bucket, s3opts)
		}
	case "minio":
		store, err = minio.New(ctx, sc.Endpoint, sc.Bucket, func(o *minio.Options) {
			o.AccessKey = sc.AccessKey
			o.SecretKey = sc.SecretKey
			o.Secure = sc.Secure
			o.Region = sc.Region
			o.Prefix = sc.Prefix
			o.CreateBucket = true
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
	if err != nil {
		return nil, err
	}

	if sc.CacheEntries > 0 {
		cached, err := blobstore.NewCachingStore(store, sc.CacheEntries, 0)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return store, nil
}

func (a *app) openGalleryStore(ctx context.Context) (*gallery.Store, error) {
	blobs, err := openBlobStore(ctx, a.cfg.Storage)
	if err != nil {
		return nil, err
	}
	compression, err := a.cfg.Compression()
	if err != nil {
		return nil, err
	}
	payload, err := a.cfg.PayloadCodec()
	if err != nil {
		return nil, err
	}
	dim := a.cfg.Embedding.CanonicalLength
	return gallery.NewStore(blobs, func(o *gallery.StoreOptions) {
		o.Snapshot.Compression = compression
		o.Snapshot.Codec = payload
		o.Snapshot.Gallery = append(o.Snapshot.Gallery, func(g *gallery.Options) {
			g.Dimension = dim
			g.Hash = a.engine.Matcher().SampledHash
		})
	}), nil
}

func (a *app) openRegistry() (*registry.Registry, error) {
	payload, err := a.cfg.PayloadCodec()
	if err != nil {
		return nil, err
	}
	dim := a.cfg.Embedding.CanonicalLength
	return registry.Open(a.cfg.Registry.Path, func(o *registry.Options) {
		o.Dimension = dim
		o.Codec = payload
		o.Hash = a.engine.Matcher().SampledHash
	})
}
