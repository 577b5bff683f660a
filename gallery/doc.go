// Package gallery holds the population of stored palm embeddings that
// identification scans run against.
//
// A Gallery assigns every record a dense ordinal in enrollment order and keeps
// three kinds of Roaring bitmaps over those ordinals:
//
//   - verified: records eligible as match candidates
//   - tombstones: deleted records awaiting Compact
//   - hash buckets: one bitmap per sampled hash, for exact-fingerprint pre-filtering
//
// Scans walk the verified bitmap in ascending ordinal order, so the candidate
// order is the enrollment order and first-match-wins is deterministic.
//
// # Snapshots
//
// Encode and Decode convert a Gallery to a self-describing binary snapshot:
//
//	+----------+---------+-------------+----------+-------+---------+------------+--------+
//	| PALMGAL1 | version | compression | reserved | count | raw len | stored len | crc32c |
//	| 8 bytes  | u16     | u8          | u8       | u32   | u32     | u32        | u32    |
//	+----------+---------+-------------+----------+-------+---------+------------+--------+
//	| payload (JSON records, optionally LZ4 or Zstandard compressed)                     |
//	+-------------------------------------------------------------------------------------+
//
// All integers are little-endian. The checksum covers the stored payload.
//
// Store persists snapshots to any blobstore.BlobStore:
//
//	store := gallery.NewStore(blobstore.NewLocalStore("/var/lib/palmvec"))
//	name, err := store.Save(ctx, g)
//	...
//	g, err = store.Latest(ctx)
package gallery
