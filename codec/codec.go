// Package codec serializes palm embeddings for the registry and for gallery
// snapshot payloads.
//
// Both built-in codecs write plain JSON, so a registry or snapshot written
// with one is readable with the other. Configuration picks a codec by name.
package codec

import (
	"errors"
	"fmt"
	"math"
)

// Codec turns values into bytes and back. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var (
	// ErrNonFinite is returned when an embedding holds NaN or Inf.
	ErrNonFinite = errors.New("codec: embedding has a non-finite value")
	// ErrDimension is returned when a decoded embedding has the wrong length.
	ErrDimension = errors.New("codec: embedding has the wrong length")
)

// ByName resolves "json" (also the empty name) or "go-json".
func ByName(name string) (Codec, bool) {
	switch name {
	case "json", "":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// EncodeEmbedding serializes v as a numeric array. JSON has no spelling for
// NaN or Inf, so those are rejected up front with their index.
func EncodeEmbedding(c Codec, v []float64) ([]byte, error) {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: %v at index %d", ErrNonFinite, x, i)
		}
	}
	data, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	return data, nil
}

// DecodeEmbedding parses a numeric array and checks that it has dim
// elements. A dim of 0 accepts any length.
func DecodeEmbedding(c Codec, data []byte, dim int) ([]float64, error) {
	var v []float64
	if err := c.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	if dim > 0 && len(v) != dim {
		return nil, fmt.Errorf("%w: %d values, want %d", ErrDimension, len(v), dim)
	}
	return v, nil
}
