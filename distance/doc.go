// Package distance provides float64 vector similarity calculations.
//
// Palm embeddings are decoded from half precision into float64 and compared
// at that width, so every function here works on []float64.
//
//	sim := distance.Cosine(a, b)
package distance
