package match

import (
	"github.com/hupe1980/palmvec/distance"
)

// Result is the outcome of comparing two embeddings.
type Result struct {
	Score   float64
	Matched bool
}

// Matcher compares embeddings with fixed options.
type Matcher struct {
	opts Options
}

// New creates a Matcher from DefaultOptions with optFns applied.
func New(optFns ...func(o *Options)) (*Matcher, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{opts: opts}, nil
}

// Default returns a Matcher with DefaultOptions.
func Default() *Matcher {
	return &Matcher{opts: DefaultOptions()}
}

// Options returns the options in effect.
func (m *Matcher) Options() Options { return m.opts }

// Threshold returns the match threshold.
func (m *Matcher) Threshold() float64 { return m.opts.Threshold }

// Similarity returns the cosine similarity of a and b.
// It fails with ErrLengthMismatch if the lengths differ, and returns 0 when
// either vector has zero magnitude.
func (m *Matcher) Similarity(a, b []float64) (float64, error) {
	return CosineSimilarity(a, b)
}

// IsMatch reports whether Similarity(a, b) reaches the threshold.
func (m *Matcher) IsMatch(a, b []float64) (bool, error) {
	return IsMatch(a, b, m.opts.Threshold)
}

// Compare returns the similarity and the match decision together.
func (m *Matcher) Compare(a, b []float64) (Result, error) {
	s, err := CosineSimilarity(a, b)
	if err != nil {
		return Result{}, err
	}
	return Result{Score: s, Matched: s >= m.opts.Threshold}, nil
}

// SampledHash fingerprints v with the matcher's hash parameters.
func (m *Matcher) SampledHash(v []float64) string {
	return sampledHash(v, m.opts.HashStride, m.opts.HashScale, m.opts.HashDelimiter)
}

// CosineSimilarity returns dot(a,b) / (|a| * |b|) in [-1, 1], or 0 if either
// norm is zero.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &LengthMismatchError{Expected: len(a), Actual: len(b)}
	}
	return distance.Cosine(a, b), nil
}

// IsMatch reports whether CosineSimilarity(a, b) >= threshold.
// The relation is symmetric in a and b.
func IsMatch(a, b []float64, threshold float64) (bool, error) {
	s, err := CosineSimilarity(a, b)
	if err != nil {
		return false, err
	}
	return s >= threshold, nil
}
