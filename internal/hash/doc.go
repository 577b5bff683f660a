// Package hash provides the CRC32-Castagnoli checksum used for snapshot
// payloads and S3 object integrity headers.
//
// One-shot:
//
//	sum := hash.CRC32C(payload)
//
// Streaming:
//
//	h := hash.NewCRC32C()
//	h.Write(header)
//	h.Write(body)
//	sum := h.Sum32()
package hash
