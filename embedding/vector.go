package embedding

import (
	"math"
	"slices"
)

// Vector is a canonical palm embedding.
//
// Vectors returned by this package are freshly allocated and must be treated
// as immutable by their consumers.
type Vector []float64

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	return slices.Clone(v)
}

// Finite reports whether every element is a finite number.
func (v Vector) Finite() bool {
	return v.firstNonFinite() < 0
}

// CountNonFinite counts NaN/Inf values among the first n elements
// (all elements if n exceeds the length).
func (v Vector) CountNonFinite(n int) int {
	n = min(n, len(v))
	count := 0
	for _, x := range v[:n] {
		if !isFinite(x) {
			count++
		}
	}
	return count
}

// Float64s returns v as a plain slice for persistence layers.
func (v Vector) Float64s() []float64 {
	return []float64(v)
}

func (v Vector) firstNonFinite() int {
	for i, x := range v {
		if !isFinite(x) {
			return i
		}
	}
	return -1
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
