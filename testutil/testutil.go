package testutil

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/palmvec/internal/f16"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// PalmVector generates a single embedding with values in [0, 1.5) rounded to
// half precision, so that it survives an encode/decode round trip unchanged.
func (r *RNG) PalmVector(dimensions int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.palmVectorLocked(dimensions)
}

func (r *RNG) palmVectorLocked(dimensions int) []float64 {
	vec := make([]float64, dimensions)
	for j := range vec {
		vec[j] = Half(r.rand.Float64() * 1.5)
	}
	return vec
}

// PalmVectors generates num embeddings. See PalmVector.
func (r *RNG) PalmVectors(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float64, num)
	for i := range num {
		vectors[i] = r.palmVectorLocked(dimensions)
	}
	return vectors
}

// GaussianVector generates a vector with values from a standard normal
// distribution, rounded to half precision. Unlike PalmVector the values are
// signed, so two independent vectors are close to orthogonal.
func (r *RNG) GaussianVector(dimensions int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vec := make([]float64, dimensions)
	for j := range vec {
		vec[j] = Half(r.rand.NormFloat64())
	}
	return vec
}

// Perturb returns a copy of v with Gaussian noise of the given standard
// deviation added to every element, modelling a second scan of the same palm.
func (r *RNG) Perturb(v []float64, noise float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = Half(x + r.rand.NormFloat64()*noise)
	}
	return out
}

// Half rounds v to the nearest half-precision value.
func Half(v float64) float64 {
	return f16.ToFloat64(f16.FromFloat64(v))
}

// Encode returns the little-endian half-precision bytes of values.
func Encode(values []float64) []byte {
	return f16.Encode(values)
}

// Base64 returns the standard Base64 text of the little-endian
// half-precision encoding of values.
func Base64(values []float64) string {
	return base64.StdEncoding.EncodeToString(f16.Encode(values))
}

// Base64FromBytes returns the standard Base64 text of raw payload bytes.
func Base64FromBytes(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// Words lays out raw binary16 bit-patterns in little-endian order.
func Words(words ...uint16) []byte {
	out := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(out[2*i:], w)
	}
	return out
}

// RepeatWord returns n copies of word as little-endian bytes.
func RepeatWord(word uint16, n int) []byte {
	words := make([]uint16, n)
	for i := range words {
		words[i] = word
	}
	return Words(words...)
}

// Cosine is a straightforward reference cosine similarity.
// It returns 0 when either vector has zero magnitude.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// BruteForceFirstMatch returns the index of the first gallery vector whose
// cosine similarity with query reaches threshold, or -1.
func BruteForceFirstMatch(query []float64, gallery [][]float64, threshold float64) int {
	for i, g := range gallery {
		if Cosine(query, g) >= threshold {
			return i
		}
	}
	return -1
}
