// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    func(o *s3.Options) {
//	        o.Prefix = "palm-gallery/"
//	        o.Region = "eu-central-1"
//	    },
//	)
//
//	snapshots := gallery.NewStore(store)
//
// For deployments with more than one writer, wrap the store in a
// DDBCommitStore so the CURRENT pointer is advanced with DynamoDB
// conditional writes instead of an S3 overwrite.
//
// # Features
//
//   - Range reads
//   - Multipart uploads through the S3 transfer manager
//   - CRC32C integrity checksums on upload
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
