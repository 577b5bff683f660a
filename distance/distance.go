package distance

import "math"

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float64) float64 {
	var ret float64
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

// Norm returns the L2 norm of v. Elements are scaled by the largest
// magnitude first, so the result is finite for any finite v.
func Norm(v []float64) float64 {
	m := maxAbs(v)
	if m == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		s := x / m
		sum += s * s
	}
	return m * math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
//
// Each operand is divided by its largest magnitude before accumulating, so
// vectors near the float64 overflow or underflow limits still compare
// correctly and a non-zero vector always has self-similarity 1.
// A zero-magnitude operand yields 0 rather than NaN.
// Assumes vectors are the same length (caller's responsibility).
func Cosine(a, b []float64) float64 {
	ma, mb := maxAbs(a), maxAbs(b)
	if ma == 0 || mb == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := a[i]/ma, b[i]/mb
		dot += x * y
		na += x * x
		nb += y * y
	}
	return clamp(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if ax := math.Abs(x); ax > m {
			m = ax
		}
	}
	return m
}

func clamp(s float64) float64 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	default:
		return s
	}
}
