// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object store. This package uses the official
// MinIO Go client, which also works against Ceph, SeaweedFS and Garage,
// and needs no AWS configuration chain.
//
// # Basic Usage
//
//	store, err := minio.New(ctx, "localhost:9000", "palm-gallery", func(o *minio.Options) {
//	    o.AccessKey = "minioadmin"
//	    o.SecretKey = "minioadmin"
//	    o.Prefix = "prod/"
//	    o.CreateBucket = true
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	snapshots := gallery.NewStore(store)
package minio
