// Package testutil provides testing utilities for palmvec.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating half-precision palm embeddings,
// encoding them the way capture devices do, and computing reference
// results for matching.
//
// # Random Embedding Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.PalmVectors(10, 512)   // half-precision representable
//	query := rng.Perturb(vecs[0], 0.05) // same palm, new scan
//
// # Wire Payloads
//
//	b64 := testutil.Base64(vecs[0])
//	raw := testutil.Words(0x3C00, 0x7C00, 0x8000)
//
// # Reference Matching
//
//	idx := testutil.BruteForceFirstMatch(query, vecs, 0.85)
package testutil
