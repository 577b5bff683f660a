// Package blobstore provides storage abstraction for gallery snapshots.
//
// BlobStore is the interface for reading and writing named blobs (snapshot
// files and the CURRENT pointer). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral deployments
//   - LocalStore: local filesystem with atomic rename-on-write
//   - CachingStore: LRU read-through cache in front of any BlobStore
//   - s3.Store / s3.DDBCommitStore: Amazon S3, optionally with DynamoDB commits
//   - minio.Store: MinIO and other S3-compatible services
//
// Names are slash-separated and relative to the store root, for example
// "snapshots/gallery-1700000000000000000.bin". A missing blob is reported as
// ErrNotFound by every implementation.
package blobstore
