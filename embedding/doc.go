// Package embedding turns untrusted palm embeddings into canonical vectors.
//
// Three input shapes are accepted at the boundary:
//
//   - Base64 text of little-endian binary16 words (the scanner wire format)
//   - a plain numeric sequence
//   - an object wrapping a numeric sequence: {"embedding": [...]}
//
// Base64 text goes through the Decoder, which tolerates transmission damage
// with a fixed set of named repairs (character cleaning, odd-byte trimming,
// truncation and zero padding to the canonical length) and rejects input that
// is too short or too corrupt. The Normalizer dispatches on the input shape
// and applies the configured Policy.
//
// # Usage
//
//	n, _ := embedding.NewNormalizer(embedding.DefaultConfig())
//	vec, err := n.Normalize(embedding.Base64(text))
//	if errors.Is(err, embedding.ErrInsufficientData) {
//	    // reject the scan
//	}
//
// All types in this package are safe for concurrent use; none hold mutable state.
package embedding
