package match

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a match.
	DefaultThreshold = 0.85
	// DefaultHashStride samples every 10th element.
	DefaultHashStride = 10
	// DefaultHashScale scales samples before rounding.
	DefaultHashScale = 100
	// DefaultHashDelimiter joins the rounded samples.
	DefaultHashDelimiter = "_"
)

// Options configures a Matcher.
type Options struct {
	// Threshold is the inclusive similarity bound for IsMatch, in [-1, 1].
	Threshold float64
	// HashStride is the distance between sampled indices (0, stride, 2*stride, ...).
	HashStride int
	// HashScale multiplies each sample before rounding to an integer.
	HashScale float64
	// HashDelimiter separates samples in the hash string.
	HashDelimiter string
}

// DefaultOptions returns the production matching parameters.
func DefaultOptions() Options {
	return Options{
		Threshold:     DefaultThreshold,
		HashStride:    DefaultHashStride,
		HashScale:     DefaultHashScale,
		HashDelimiter: DefaultHashDelimiter,
	}
}

// Validate checks the options for consistency.
func (o Options) Validate() error {
	var errs []error
	if math.IsNaN(o.Threshold) || o.Threshold < -1 || o.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold must be in [-1, 1], got %v", o.Threshold))
	}
	if o.HashStride <= 0 {
		errs = append(errs, fmt.Errorf("hash stride must be positive, got %d", o.HashStride))
	}
	if !(o.HashScale > 0) || math.IsInf(o.HashScale, 0) {
		errs = append(errs, fmt.Errorf("hash scale must be positive and finite, got %v", o.HashScale))
	}
	if len(errs) > 0 {
		return fmt.Errorf("match: invalid options: %w", errors.Join(errs...))
	}
	return nil
}
