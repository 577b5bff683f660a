// Package match compares canonical palm embeddings.
//
// Similarity is cosine similarity in [-1, 1]. Two embeddings match when their
// similarity reaches the configured threshold (0.85 by default). Scans over a
// candidate population stop at the first match in population order; they do
// not search for the best match.
//
// SampledHash produces a coarse fingerprint for cheap pre-filtering. Equal
// hashes do not imply a match and different hashes do not rule one out, so
// every authoritative decision goes through Similarity.
//
// Everything in this package is stateless and safe for concurrent use. The
// candidate slice passed to a scan must not be mutated while the scan runs.
package match
